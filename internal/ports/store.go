// Package ports defines the interfaces between the core and its adapters.
// These interfaces enable the repository pattern and allow swapping
// persistence mechanisms.
package ports

import (
	"context"

	"github.com/sonata-music/sonata/internal/domain"
)

// SongCollection is the persistent store's song-addressable collection.
// Each operation is atomic within this collection and suspends the caller
// until it completes or fails with a *domain.StorageError.
//
// Thread-safety: Implementations must be thread-safe.
type SongCollection interface {
	// LoadAll retrieves every song record.
	//
	// Returns a slice (empty if none exist), or an error if loading fails.
	LoadAll(ctx context.Context) ([]domain.Song, error)

	// Put upserts a song by id. Idempotent: putting the same record twice
	// leaves the collection unchanged.
	Put(ctx context.Context, song domain.Song) error

	// Delete removes a song by id.
	// If the song doesn't exist, this is a no-op (no error).
	Delete(ctx context.Context, id string) error
}

// PlaylistCollection is the persistent store's playlist-addressable collection.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistCollection interface {
	// LoadAll retrieves every playlist record.
	LoadAll(ctx context.Context) ([]domain.Playlist, error)

	// Put upserts a playlist by id.
	Put(ctx context.Context, playlist domain.Playlist) error

	// Delete removes a playlist by id.
	// If the playlist doesn't exist, this is a no-op (no error).
	Delete(ctx context.Context, id string) error
}

// Store is the persistent store: two independently-addressable collections.
//
// No operation spans both collections atomically. This is a hard contract
// the layers above must design around (the song-deletion cascade is modeled
// as a sequence of independent per-playlist saves for exactly this reason).
//
// The store must be opened exactly once per process lifetime before any
// operation is issued; initialization failure is fatal to the whole system.
type Store interface {
	// Songs returns the song collection.
	Songs() SongCollection

	// Playlists returns the playlist collection.
	Playlists() PlaylistCollection

	// ClearAll wipes both collections as one best-effort operation. Either
	// collection may be cleared even if the other clear fails.
	ClearAll(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// QuotaInspector is an optional external query for storage usage. It is
// read-only and has no effect on the core; implementations may simply be
// absent (the repository exposes a derived in-memory size instead).
type QuotaInspector interface {
	// Usage returns used and total bytes for the backing storage.
	Usage(ctx context.Context) (used, total int64, err error)
}
