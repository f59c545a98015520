// Package sqlite implements the persistent store on an embedded SQLite
// database. Songs and playlists live in two independent tables; each
// single-table operation is atomic, nothing spans both tables atomically.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// Store manages library persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool

	songs     *songCollection
	playlists *playlistCollection
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	if s.closed.Load() {
		return domain.ErrNotInitialized
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// openPaths guards against two live stores on the same database file.
var (
	openPathsMu sync.Mutex
	openPaths   = make(map[string]bool)
)

// Open initializes or connects to the library database at path.
// It must be called exactly once per process before any collection is used;
// a failure here is fatal to the whole system, there is no degraded mode.
// Opening a path that already has a live store returns ErrAlreadyInitialized.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite db: empty path")
	}

	openPathsMu.Lock()
	if openPaths[path] {
		openPathsMu.Unlock()
		return nil, fmt.Errorf("open sqlite db %q: %w", path, domain.ErrAlreadyInitialized)
	}
	openPaths[path] = true
	openPathsMu.Unlock()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		releasePath(path)
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			releasePath(path)
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	store.songs = &songCollection{store: store}
	store.playlists = &playlistCollection{store: store}

	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		releasePath(path)
		return nil, err
	}

	return store, nil
}

func releasePath(path string) {
	openPathsMu.Lock()
	delete(openPaths, path)
	openPathsMu.Unlock()
}

// Songs returns the song collection.
func (s *Store) Songs() ports.SongCollection {
	return s.songs
}

// Playlists returns the playlist collection.
func (s *Store) Playlists() ports.PlaylistCollection {
	return s.playlists
}

// ClearAll wipes both collections. Best effort: one table may be cleared
// even when clearing the other fails; the first failure is reported.
func (s *Store) ClearAll(ctx context.Context) error {
	var failures []error
	if err := s.exec(ctx, "DELETE FROM songs"); err != nil {
		failures = append(failures, domain.NewStorageError("clearAll", "songs", err))
	}
	if err := s.exec(ctx, "DELETE FROM playlists"); err != nil {
		failures = append(failures, domain.NewStorageError("clearAll", "playlists", err))
	}
	return errors.Join(failures...)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.closed.Swap(true) {
		return nil
	}
	releasePath(s.path)
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Usage reports the database file size on disk. Total is the size of the
// filesystem the database lives on; a failed statfs leaves it at zero,
// which callers read as "unknown".
func (s *Store) Usage(ctx context.Context) (used, total int64, err error) {
	_ = ensureContext(ctx)
	if s.closed.Load() {
		return 0, 0, domain.NewStorageError("usage", "db", domain.ErrNotInitialized)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return 0, 0, domain.NewStorageError("usage", "db", err)
	}
	used = info.Size()

	var fs unix.Statfs_t
	if err := unix.Statfs(s.path, &fs); err == nil {
		total = int64(fs.Blocks) * fs.Bsize
	}
	return used, total, nil
}

// Verify interface implementation
var (
	_ ports.Store          = (*Store)(nil)
	_ ports.QuotaInspector = (*Store)(nil)
)
