package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pizzabox/internal/logging"
)

// Session names one visitor's run. Recordings land in Dir; when the session
// directory cannot be created Dir falls back to the recordings root and
// Flat is set.
type Session struct {
	ID        string
	Dir       string
	Flat      bool
	StartedAt time.Time
}

// New creates a fresh session directory under root.
func New(root string, logger *slog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{ID: id, Dir: filepath.Join(root, id), StartedAt: time.Now().UTC()}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		logging.WarnWithContext(logger, "session directory unavailable; recording into the root", "session_dir_fallback",
			logging.String(logging.FieldSessionID, id),
			logging.String("dir", s.Dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the USB stick is writable"),
			logging.String(logging.FieldImpact, "recordings of this session share a directory with other sessions"),
		)
		s.Dir = root
		s.Flat = true
	}
	return s
}

// Kind of a referenced file.
type Kind int

const (
	// Story files are narration tracks from the story directory.
	Story Kind = iota
	// SFX files are the controller's own prompts and notifications.
	SFX
	// Rec files are visitor recordings inside the session directory.
	Rec
	// Absolute references are used as given.
	Absolute
)

func (k Kind) String() string {
	switch k {
	case Story:
		return "story"
	case SFX:
		return "sfx"
	case Rec:
		return "rec"
	default:
		return "path"
	}
}

// File references a sound, video, or photo without binding it to a directory.
type File struct {
	Kind Kind
	Name string
}

func StoryFile(name string) File { return File{Kind: Story, Name: name} }

func SFXFile(name string) File { return File{Kind: SFX, Name: name} }

func RecFile(name string) File { return File{Kind: Rec, Name: name} }

// IsZero reports an unset reference.
func (f File) IsZero() bool { return f.Name == "" }

func (f File) String() string {
	if f.Kind == Absolute {
		return f.Name
	}
	return f.Kind.String() + ":" + f.Name
}

// ParseFile reads "story:NAME", "sfx:NAME", "rec:NAME", or a plain path.
func ParseFile(raw string) (File, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return File{}, fmt.Errorf("empty file reference")
	}
	prefix, name, found := strings.Cut(raw, ":")
	if !found {
		return File{Kind: Absolute, Name: raw}, nil
	}
	if strings.TrimSpace(name) == "" {
		return File{}, fmt.Errorf("file reference %q has no name", raw)
	}
	switch strings.ToLower(prefix) {
	case "story":
		return StoryFile(name), nil
	case "sfx":
		return SFXFile(name), nil
	case "rec":
		return RecFile(name), nil
	default:
		return File{}, fmt.Errorf("file reference %q has unknown kind %q", raw, prefix)
	}
}

// Library resolves file references to paths.
type Library struct {
	StoryDir      string
	SFXDir        string
	RecordingsDir string
}

// Resolve returns the on-disk path of f. Story and SFX names gain a .wav
// suffix when they have no extension. Rec files need a session.
func (l Library) Resolve(f File, s *Session) (string, error) {
	switch f.Kind {
	case Story:
		return filepath.Join(l.StoryDir, withWav(f.Name)), nil
	case SFX:
		return filepath.Join(l.SFXDir, withWav(f.Name)), nil
	case Rec:
		if s == nil {
			return "", fmt.Errorf("recording %q outside a session", f.Name)
		}
		return filepath.Join(s.Dir, f.Name), nil
	default:
		return f.Name, nil
	}
}

func withWav(name string) string {
	if filepath.Ext(name) == "" {
		return name + ".wav"
	}
	return name
}

// Summary describes how a session ended.
type Summary struct {
	Language   string
	FinalState string
	Chapters   int
	Videos     []string
	FinishedAt time.Time
}
