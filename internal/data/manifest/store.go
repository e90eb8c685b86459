// Package manifest persists the require list of every emitted module and a
// summary of each build in SQLite.
package manifest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// timeLayout has a fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is the stored metadata of one emitted module.
type Entry struct {
	// Path is the canonical module path, e.g. "/src/a.js".
	Path        string
	Source      string
	Requires    []string
	ContentHash string
	BuildID     string
	BuiltAt     time.Time
}

// Build summarises one full or incremental build.
type Build struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Failures  int
	Cycles    int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("manifest path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("manifest path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create manifest directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite manifest %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite manifest %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func projectKeyOrDefault(key string) string {
	if key = strings.TrimSpace(key); key == "" {
		return "default"
	}
	return key
}

// Save upserts entries in one transaction.
func (s *Store) Save(projectKey string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	projectKey = projectKeyOrDefault(projectKey)

	const query = `
INSERT INTO module_manifest (project_key, path, source, requires_json, content_hash, build_id, built_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, path) DO UPDATE SET
  source=excluded.source,
  requires_json=excluded.requires_json,
  content_hash=excluded.content_hash,
  build_id=excluded.build_id,
  built_at_utc=excluded.built_at_utc
`
	return s.withRetry("save manifest", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(query)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			requires := e.Requires
			if requires == nil {
				requires = []string{}
			}
			raw, err := json.Marshal(requires)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			builtAt := e.BuiltAt
			if builtAt.IsZero() {
				builtAt = time.Now()
			}
			if _, err := stmt.Exec(projectKey, e.Path, e.Source, string(raw), e.ContentHash, e.BuildID,
				builtAt.UTC().Format(timeLayout)); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// Load returns the entry stored for path.
func (s *Store) Load(projectKey, path string) (Entry, bool, error) {
	entries, err := s.query("load manifest", `WHERE project_key = ? AND path = ?`, projectKeyOrDefault(projectKey), path)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// All returns every entry of the project ordered by path.
func (s *Store) All(projectKey string) ([]Entry, error) {
	return s.query("load manifests", `WHERE project_key = ?`, projectKeyOrDefault(projectKey))
}

func (s *Store) Delete(projectKey, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withRetry("delete manifest", func() error {
		_, err := s.db.Exec(`DELETE FROM module_manifest WHERE project_key = ? AND path = ?`, projectKeyOrDefault(projectKey), path)
		return err
	})
}

func (s *Store) query(op, where string, args ...any) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := `SELECT path, source, requires_json, content_hash, build_id, built_at_utc FROM module_manifest ` +
		where + ` ORDER BY path ASC`

	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(q, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			rawReqs    string
			builtAtRaw string
		)
		if err := rows.Scan(&e.Path, &e.Source, &rawReqs, &e.ContentHash, &e.BuildID, &builtAtRaw); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		if err := json.Unmarshal([]byte(rawReqs), &e.Requires); err != nil {
			return nil, fmt.Errorf("decode requires of %q: %w", e.Path, err)
		}
		builtAt, err := time.Parse(timeLayout, builtAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse build timestamp %q: %w", builtAtRaw, err)
		}
		e.BuiltAt = builtAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest rows: %w", err)
	}
	return entries, nil
}

func (s *Store) SaveBuild(projectKey string, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now()
	}
	return s.withRetry("save build", func() error {
		_, err := s.db.Exec(`
INSERT INTO builds (build_id, project_key, started_at_utc, duration_ms, file_count, failure_count, cycle_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, projectKeyOrDefault(projectKey), b.StartedAt.UTC().Format(timeLayout),
			b.Duration.Milliseconds(), b.Files, b.Failures, b.Cycles)
		return err
	})
}

// LastBuild returns the most recently started build of the project.
func (s *Store) LastBuild(projectKey string) (Build, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		b          Build
		startedRaw string
		durationMS int64
	)
	err := s.withRetry("load last build", func() error {
		return s.db.QueryRow(`
SELECT build_id, started_at_utc, duration_ms, file_count, failure_count, cycle_count
FROM builds WHERE project_key = ?
ORDER BY started_at_utc DESC LIMIT 1`, projectKeyOrDefault(projectKey)).
			Scan(&b.ID, &startedRaw, &durationMS, &b.Files, &b.Failures, &b.Cycles)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, false, nil
		}
		return Build{}, false, err
	}
	started, err := time.Parse(timeLayout, startedRaw)
	if err != nil {
		return Build{}, false, fmt.Errorf("parse build start %q: %w", startedRaw, err)
	}
	b.StartedAt = started.UTC()
	b.Duration = time.Duration(durationMS) * time.Millisecond
	return b, true, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
