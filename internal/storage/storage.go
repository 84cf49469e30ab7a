// Package storage provides the SQLite-backed bread post store.
//
// Rows live in the bread_posts table and are append-only: there is no update
// or delete path. Writes are serialized in-process on top of SQLite's own
// locking (WAL journal plus busy timeout), so concurrent message handlers
// cannot interleave inserts on the same connection pool.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rewired-gh/breadbot/internal/models"
)

// ErrDuplicatePost is wrapped by a StorageError when a post ID already exists.
var ErrDuplicatePost = errors.New("post already recorded")

// StorageError reports a failure at the store boundary.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Columns are positional: id, message_url, date.
const schema = `CREATE TABLE IF NOT EXISTS bread_posts (
	id PRIMARY KEY,
	message_url TEXT,
	date TEXT
)`

// Storage is the append-only bread post table.
type Storage struct {
	db      *sql.DB
	writeMu sync.Mutex
	path    string
}

// New opens (creating if needed) the database at path and applies the schema.
func New(ctx context.Context, path string, busyTimeout time.Duration) (*Storage, error) {
	if path == "" {
		return nil, &StorageError{Op: "open", Err: errors.New("database path must not be empty")}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Err: fmt.Errorf("failed to create data directory: %w", err)}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	s := &Storage{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// Path returns the database file location.
func (s *Storage) Path() string {
	return s.path
}

// Append inserts one post. A duplicate ID fails with ErrDuplicatePost and leaves the table unchanged.
func (s *Storage) Append(ctx context.Context, post models.Post) error {
	if err := post.Validate(); err != nil {
		return &StorageError{Op: "append", Err: fmt.Errorf("invalid post: %w", err)}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, "INSERT INTO bread_posts VALUES (?, ?, ?)",
		post.ID, post.MessageURL, post.Date)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			err = fmt.Errorf("%w: id %s", ErrDuplicatePost, post.ID)
		}
		return &StorageError{Op: "append", Err: err}
	}
	return nil
}

// ListAllDescending returns every post, newest first. An empty table yields an empty slice.
func (s *Storage) ListAllDescending(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, message_url, date FROM bread_posts ORDER BY date DESC")
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var (
			p   models.Post
			url sql.NullString
			dt  sql.NullString
		)
		if err := rows.Scan(&p.ID, &url, &dt); err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		p.MessageURL = url.String
		p.Date = dt.String
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	sortNewestFirst(posts)
	return posts, nil
}

// Count returns the number of recorded posts.
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bread_posts").Scan(&n); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// sortNewestFirst reorders rows by parsed timestamp. Dates written with
// different offsets or precisions do not sort lexically, so SQL order alone is
// not enough for rows written by older versions. Unparseable dates keep their
// SQL position relative to each other and sink below parseable ones.
func sortNewestFirst(posts []models.Post) {
	times := make(map[int]time.Time, len(posts))
	valid := make(map[int]bool, len(posts))
	for i := range posts {
		if t, err := posts[i].Timestamp(); err == nil {
			times[i] = t
			valid[i] = true
		}
	}

	idx := make([]int, len(posts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if valid[ia] != valid[ib] {
			return valid[ia]
		}
		if !valid[ia] {
			return false
		}
		return times[ia].After(times[ib])
	})

	sorted := make([]models.Post, len(posts))
	for i, j := range idx {
		sorted[i] = posts[j]
	}
	copy(posts, sorted)
}

func isPrimaryKeyViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
