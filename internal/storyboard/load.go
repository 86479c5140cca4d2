package storyboard

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pizzabox/internal/services"
	"pizzabox/internal/session"
)

// BuiltinPrefix selects an embedded storyboard, as in "builtin:showcase".
const BuiltinPrefix = "builtin:"

//go:embed builtin/*.yaml
var builtins embed.FS

type document struct {
	Name     string         `yaml:"name"`
	Chapters []chapterEntry `yaml:"chapters"`
}

type chapterEntry struct {
	Title string      `yaml:"title"`
	Skip  bool        `yaml:"skip"`
	Steps []yaml.Node `yaml:"steps"`
}

// Load reads a storyboard from a file path or a "builtin:NAME" reference.
func Load(ref string, logger *slog.Logger) (*Storyboard, error) {
	data, err := Source(ref)
	if err != nil {
		return nil, err
	}
	sb, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return sb, nil
}

// Source returns the raw YAML behind a storyboard reference.
func Source(ref string) ([]byte, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		data, err := builtins.ReadFile(path.Join("builtin", name+".yaml"))
		if err != nil {
			return nil, configFault("load", fmt.Sprintf("unknown built-in storyboard %q (have: %s)", name, strings.Join(BuiltinNames(), ", ")), nil)
		}
		return data, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "storyboard", "load", "read storyboard file", err)
	}
	return data, nil
}

// BuiltinNames lists the embedded storyboards.
func BuiltinNames() []string {
	entries, _ := builtins.ReadDir("builtin")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Parse builds and validates a storyboard from YAML.
func Parse(data []byte, logger *slog.Logger) (*Storyboard, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configFault("parse", "invalid storyboard yaml", err)
	}
	if len(doc.Chapters) == 0 {
		return nil, configFault("parse", "storyboard has no chapters", nil)
	}
	chapters := make([]*Chapter, 0, len(doc.Chapters))
	for i, entry := range doc.Chapters {
		steps := make([]Do, 0, len(entry.Steps))
		for j := range entry.Steps {
			d, err := decodeStep(&entry.Steps[j])
			if err != nil {
				return nil, fmt.Errorf("chapter %d step %d: %w", i, j, err)
			}
			steps = append(steps, d)
		}
		c := NewChapter(steps...).Named(entry.Title)
		c.SkipFlag = entry.Skip
		chapters = append(chapters, c)
	}
	sb := New(chapters, logger)
	sb.Name = doc.Name
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	return sb, nil
}

func decodeStep(node *yaml.Node) (Do, error) {
	if node.Kind != yaml.MappingNode {
		return Do{}, lineFault(node, "step must be a mapping")
	}
	var activity Activity
	overrides := Params{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if key == "do" {
			a, err := ParseActivity(value.Value)
			if err != nil {
				return Do{}, lineFault(value, err.Error())
			}
			activity = a
		}
	}
	if activity == 0 {
		return Do{}, lineFault(node, "step has no \"do\" key")
	}
	defaults, _ := Defaults(activity)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if key == "do" {
			continue
		}
		def, ok := defaults[key]
		if !ok {
			return Do{}, lineFault(node.Content[i], fmt.Sprintf("%s has no parameter %q", activity, key))
		}
		v, err := decodeValue(def, value)
		if err != nil {
			return Do{}, lineFault(value, fmt.Sprintf("%s.%s: %v", activity, key, err))
		}
		overrides[key] = v
	}
	return NewDo(activity, overrides)
}

func decodeValue(def any, node *yaml.Node) (any, error) {
	switch def.(type) {
	case int:
		var v int
		err := node.Decode(&v)
		return v, err
	case float64:
		var v float64
		err := node.Decode(&v)
		return v, err
	case bool:
		var v bool
		err := node.Decode(&v)
		return v, err
	case session.File:
		if node.Tag == "!!null" {
			return session.File{}, nil
		}
		return session.ParseFile(node.Value)
	case Selection:
		return decodeSelection(node)
	case SkipOverride:
		var v bool
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return SkipTo(v), nil
	case []Do:
		if node.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("expected a list of steps")
		}
		children := make([]Do, 0, len(node.Content))
		for _, child := range node.Content {
			d, err := decodeStep(child)
			if err != nil {
				return nil, err
			}
			children = append(children, d)
		}
		return children, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %T", def)
}

type selectionEntry struct {
	Option  string `yaml:"option"`
	Chapter *int   `yaml:"chapter"`
	Skip    *bool  `yaml:"skip"`
	Rewind  *bool  `yaml:"rewind"`
}

func decodeSelection(node *yaml.Node) (Selection, error) {
	var entry selectionEntry
	switch node.Kind {
	case yaml.ScalarNode:
		entry.Option = node.Value
	case yaml.MappingNode:
		if err := node.Decode(&entry); err != nil {
			return Selection{}, err
		}
	default:
		return Selection{}, fmt.Errorf("selection must be a name or a mapping")
	}
	var sel Selection
	switch strings.ToLower(strings.TrimSpace(entry.Option)) {
	case "continue":
		sel = Continue()
	case "repeat":
		sel = Repeat()
		if entry.Rewind != nil {
			sel = RepeatRewinding(*entry.Rewind)
		}
	case "goto":
		if entry.Chapter == nil {
			return Selection{}, fmt.Errorf("goto needs a chapter")
		}
		sel = Goto(*entry.Chapter)
	case "quit":
		sel = Quit()
	case "none", "", "~", "null":
		return Unbound(), nil
	default:
		return Selection{}, fmt.Errorf("unknown option %q", entry.Option)
	}
	if entry.Skip != nil {
		if sel.Option != OptionContinue && sel.Option != OptionGoto {
			return Selection{}, fmt.Errorf("%s does not take skip", sel.Option)
		}
		sel.Skip = SkipTo(*entry.Skip)
	}
	if entry.Rewind != nil && sel.Option != OptionRepeat {
		return Selection{}, fmt.Errorf("%s does not take rewind", sel.Option)
	}
	return sel, nil
}

func lineFault(node *yaml.Node, msg string) error {
	return configFault("parse", fmt.Sprintf("line %d: %s", node.Line, msg), nil)
}
