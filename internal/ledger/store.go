package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pizzabox/internal/session"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is kept in PRAGMA user_version. Bump it whenever schema.sql
// changes; ledgers hold history only, so an older one is deleted, not migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates a ledger written by a different version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// busyBackoff paces retries of writes that hit a locked database.
var busyBackoff = []time.Duration{
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
}

// Store persists session history.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one recorded session.
type Entry struct {
	ID         string
	Dir        string
	Flat       bool
	StartedAt  time.Time
	FinishedAt time.Time
	Language   string
	FinalState string
	Chapters   int
	Videos     []string
}

// Finished reports whether the session reached its end.
func (e Entry) Finished() bool { return !e.FinishedAt.IsZero() }

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s has version %d, this build expects %d; delete it to start a new ledger",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger setup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp ledger version: %w", err)
	}
	return tx.Commit()
}

// StartSession records a session as begun.
func (s *Store) StartSession(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return errors.New("start session: nil session")
	}
	return s.exec(ctx,
		`INSERT INTO sessions (id, dir, flat, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Dir, boolToInt(sess.Flat), sess.StartedAt.UTC().Format(time.RFC3339Nano),
	)
}

// FinishSession stores how a session ended.
func (s *Store) FinishSession(ctx context.Context, id string, summary session.Summary) error {
	videos := summary.Videos
	if videos == nil {
		videos = []string{}
	}
	encoded, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("encode videos: %w", err)
	}
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	return s.exec(ctx,
		`UPDATE sessions SET finished_at = ?, language = ?, final_state = ?, chapters = ?, videos = ? WHERE id = ?`,
		finished.UTC().Format(time.RFC3339Nano), summary.Language, summary.FinalState, summary.Chapters, string(encoded), id,
	)
}

// List returns the most recent sessions first. A non-positive limit lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, dir, flat, started_at, finished_at, language, final_state, chapters, videos
		FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			flat     int
			started  string
			finished sql.NullString
			videos   string
		)
		if err := rows.Scan(&e.ID, &e.Dir, &flat, &started, &finished, &e.Language, &e.FinalState, &e.Chapters, &videos); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		e.Flat = flat != 0
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid {
			if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(videos), &e.Videos); err != nil {
			return nil, fmt.Errorf("decode videos: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	var err error
	for attempt := 0; ; attempt++ {
		if _, err = s.db.ExecContext(ctx, query, args...); !isBusy(err) || attempt == len(busyBackoff) {
			return err
		}
		select {
		case <-time.After(busyBackoff[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_BUSY
	}
	return false
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
