// Package memory provides an in-memory implementation of the persistent
// store. It is used for testing services without a database on disk and
// can inject failures to exercise rollback and partial-failure paths.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// errInjected is the underlying cause used for injected failures.
var errInjected = errors.New("injected store failure")

// Store is an in-memory implementation of ports.Store.
//
// Thread-safety: This implementation is thread-safe.
type Store struct {
	mu        sync.RWMutex
	songs     map[string]domain.Song
	playlists map[string]domain.Playlist

	// insertion order, so LoadAll round-trips like the sqlite store
	songOrder     []string
	playlistOrder []string

	// Behavior configuration (for testing error scenarios)
	failSongPut        bool
	failSongDelete     bool
	failPlaylistPut    bool
	failPlaylistPutIDs map[string]bool
	failLoad           bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		songs:              make(map[string]domain.Song),
		playlists:          make(map[string]domain.Playlist),
		failPlaylistPutIDs: make(map[string]bool),
	}
}

// SetFailSongPut configures song puts to fail (for testing).
func (s *Store) SetFailSongPut(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSongPut = fail
}

// SetFailSongDelete configures song deletes to fail (for testing).
func (s *Store) SetFailSongDelete(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSongDelete = fail
}

// SetFailPlaylistPut configures all playlist puts to fail (for testing).
func (s *Store) SetFailPlaylistPut(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPlaylistPut = fail
}

// SetFailPlaylistPutFor configures puts of one specific playlist to fail,
// which is how cascade partial failures are exercised.
func (s *Store) SetFailPlaylistPutFor(id string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPlaylistPutIDs[id] = fail
}

// SetFailLoad configures LoadAll on both collections to fail (for testing).
func (s *Store) SetFailLoad(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = fail
}

// Songs returns the song collection.
func (s *Store) Songs() ports.SongCollection {
	return songCollection{s}
}

// Playlists returns the playlist collection.
func (s *Store) Playlists() ports.PlaylistCollection {
	return playlistCollection{s}
}

// ClearAll wipes both collections.
func (s *Store) ClearAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.songs = make(map[string]domain.Song)
	s.playlists = make(map[string]domain.Playlist)
	s.songOrder = nil
	s.playlistOrder = nil
	return nil
}

// Close releases nothing; the store lives entirely in memory.
func (s *Store) Close() error {
	return nil
}

// SongCount returns the number of stored songs (test helper).
func (s *Store) SongCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

// StoredSong returns the durable copy of a song (test helper).
func (s *Store) StoredSong(id string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	song, ok := s.songs[id]
	return song, ok
}

// StoredPlaylist returns the durable copy of a playlist (test helper).
func (s *Store) StoredPlaylist(id string) (domain.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playlist, ok := s.playlists[id]
	return playlist, ok
}

type songCollection struct {
	store *Store
}

func (c songCollection) LoadAll(context.Context) ([]domain.Song, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failLoad {
		return nil, domain.NewStorageError("loadAll", "songs", errInjected)
	}

	songs := make([]domain.Song, 0, len(s.songOrder))
	for _, id := range s.songOrder {
		songs = append(songs, s.songs[id])
	}
	return songs, nil
}

func (c songCollection) Put(_ context.Context, song domain.Song) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSongPut {
		return domain.NewStorageError("put", "songs", errInjected)
	}

	if _, exists := s.songs[song.ID]; !exists {
		s.songOrder = append(s.songOrder, song.ID)
	}
	s.songs[song.ID] = song
	return nil
}

func (c songCollection) Delete(_ context.Context, id string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSongDelete {
		return domain.NewStorageError("delete", "songs", errInjected)
	}

	if _, exists := s.songs[id]; exists {
		delete(s.songs, id)
		s.songOrder = removeID(s.songOrder, id)
	}
	return nil
}

type playlistCollection struct {
	store *Store
}

func (c playlistCollection) LoadAll(context.Context) ([]domain.Playlist, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failLoad {
		return nil, domain.NewStorageError("loadAll", "playlists", errInjected)
	}

	playlists := make([]domain.Playlist, 0, len(s.playlistOrder))
	for _, id := range s.playlistOrder {
		playlists = append(playlists, s.playlists[id])
	}
	return playlists, nil
}

func (c playlistCollection) Put(_ context.Context, playlist domain.Playlist) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPlaylistPut || s.failPlaylistPutIDs[playlist.ID] {
		return domain.NewStorageError("put", "playlists", errInjected)
	}

	if _, exists := s.playlists[playlist.ID]; !exists {
		s.playlistOrder = append(s.playlistOrder, playlist.ID)
	}
	// Deep-copy the membership slice so later in-memory mutations by the
	// repository cannot silently alter what is "durably" stored.
	stored := playlist
	stored.SongIDs = append([]string(nil), playlist.SongIDs...)
	s.playlists[playlist.ID] = stored
	return nil
}

func (c playlistCollection) Delete(_ context.Context, id string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.playlists[id]; exists {
		delete(s.playlists, id)
		s.playlistOrder = removeID(s.playlistOrder, id)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	result := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}

// Verify interface implementation
var _ ports.Store = (*Store)(nil)
