// Package service provides business logic for the Sonata media library.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// LibraryService is the authoritative in-memory mirror of the two persisted
// collections. Every mutation writes through to the store; a failed write
// rolls the in-memory mutation back so memory never claims durability it
// does not have. The one exception is the song-deletion cascade, which is a
// sequence of independent per-playlist saves whose partial failures are
// surfaced, not hidden.
//
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.Store
	bus    ports.EventBus

	// State
	songs     []domain.Song
	playlists []domain.Playlist
	loaded    bool

	// collator's Sort mutates internal buffers, so collMu serializes it.
	collator *collate.Collator
	collMu   sync.Mutex

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service. sortLocale is a BCP 47
// tag used for locale-aware name sorting; unknown tags fall back to the
// undetermined locale.
func NewLibraryService(
	logger *slog.Logger,
	store ports.Store,
	bus ports.EventBus,
	sortLocale string,
) *LibraryService {
	return &LibraryService{
		logger:   logger,
		store:    store,
		bus:      bus,
		collator: collate.New(language.Make(sortLocale), collate.IgnoreCase),
	}
}

// Load reads both collections from the store and runs the statistics
// migration. It must be called once before any other operation; calling it
// again reloads the mirror (the migration is idempotent, re-running it on
// migrated data is a no-op).
func (s *LibraryService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.store.Songs().LoadAll(ctx)
	if err != nil {
		return err
	}
	playlists, err := s.store.Playlists().LoadAll(ctx)
	if err != nil {
		return err
	}

	s.songs = songs
	s.playlists = playlists
	s.loaded = true

	migrated := s.migrateStatsLocked(ctx)

	s.logger.Info("library loaded",
		slog.Int("songs", len(s.songs)),
		slog.Int("playlists", len(s.playlists)),
		slog.Int("stats_migrated", migrated))

	return nil
}

// migrateStatsLocked upgrades records created before statistics existed:
// a missing play count becomes 0 with no last-played time, written back to
// the store. Returns the number of records upgraded. Caller must hold mu.
func (s *LibraryService) migrateStatsLocked(ctx context.Context) int {
	migrated := 0
	for i := range s.songs {
		if s.songs[i].HasStats() {
			continue
		}
		zero := 0
		s.songs[i].PlayCount = &zero
		s.songs[i].LastPlayed = nil
		if err := s.store.Songs().Put(ctx, s.songs[i]); err != nil {
			// The record keeps working from the in-memory default; the next
			// load migrates it again.
			s.logger.Warn("stats migration write failed",
				slog.String("song_id", s.songs[i].ID),
				slog.Any("error", err))
			s.songs[i].PlayCount = nil
			continue
		}
		migrated++
	}
	return migrated
}

// AddSong appends a song to the collection and persists it.
// On a failed write the in-memory append is rolled back and a
// *domain.PersistenceError is returned.
func (s *LibraryService) AddSong(ctx context.Context, song domain.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.songs = append(s.songs, song)

	if err := s.store.Songs().Put(ctx, song); err != nil {
		s.songs = s.songs[:len(s.songs)-1]
		return domain.NewPersistenceError("addSong", song.ID, err)
	}

	s.bus.Publish(domain.NewSongAddedEvent(song))
	return nil
}

// UpdateSong replaces the in-memory record with the same id and persists it.
// On a failed write the previous record is restored.
func (s *LibraryService) UpdateSong(ctx context.Context, song domain.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateSongLocked(ctx, song)
}

func (s *LibraryService) updateSongLocked(ctx context.Context, song domain.Song) error {
	idx := s.songIndexLocked(song.ID)
	if idx < 0 {
		return domain.ErrSongNotFound
	}

	previous := s.songs[idx]
	s.songs[idx] = song

	if err := s.store.Songs().Put(ctx, song); err != nil {
		s.songs[idx] = previous
		return domain.NewPersistenceError("updateSong", song.ID, err)
	}

	s.bus.Publish(domain.NewSongUpdatedEvent(song))
	return nil
}

// RenameSong updates a song's display name.
func (s *LibraryService) RenameSong(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", name, "song name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.songIndexLocked(id)
	if idx < 0 {
		return domain.ErrSongNotFound
	}

	song := s.songs[idx]
	song.Name = name
	return s.updateSongLocked(ctx, song)
}

// ToggleFavorite flips a song's favorite flag and returns the new value.
func (s *LibraryService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.songIndexLocked(id)
	if idx < 0 {
		return false, domain.ErrSongNotFound
	}

	song := s.songs[idx]
	song.IsFavorite = !song.IsFavorite
	if err := s.updateSongLocked(ctx, song); err != nil {
		return false, err
	}
	return song.IsFavorite, nil
}

// RecordPlay increments a song's play count, stamps last-played, and
// persists the single record. Used by the statistics tracker on each fresh
// track load.
func (s *LibraryService) RecordPlay(ctx context.Context, id string, at time.Time) (domain.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.songIndexLocked(id)
	if idx < 0 {
		return domain.Song{}, domain.ErrSongNotFound
	}

	song := s.songs[idx]
	count := song.Plays() + 1
	song.PlayCount = &count
	song.LastPlayed = &at

	if err := s.updateSongLocked(ctx, song); err != nil {
		return domain.Song{}, err
	}
	return song, nil
}

// DeleteSong removes the song from the collection, persists the deletion,
// then strips the id from every playlist's membership, saving each modified
// playlist independently. The cascade is not a transaction: a
// failed playlist save does not stop the remaining saves, and the combined
// outcome is reported as a *domain.PartialFailure. A nil return means the
// song and every reference to it are gone durably.
func (s *LibraryService) DeleteSong(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.songIndexLocked(id)
	if idx < 0 {
		return domain.ErrSongNotFound
	}

	removed := s.songs[idx]
	s.songs = append(s.songs[:idx], s.songs[idx+1:]...)

	if err := s.store.Songs().Delete(ctx, id); err != nil {
		// Reinsert at the original position: nothing was deleted durably.
		s.songs = append(s.songs[:idx], append([]domain.Song{removed}, s.songs[idx:]...)...)
		return domain.NewPersistenceError("deleteSong", id, err)
	}

	// Cascade: each save is an independent step. On a failed save the stale
	// id stays in the in-memory membership too, so the step can be re-driven
	// through RemoveSongFromPlaylist; reads are unaffected either way since
	// membership views filter ids that resolve to no song.
	var failures []domain.StepFailure
	succeeded := 0
	for i := range s.playlists {
		if !s.playlists[i].ContainsSong(id) {
			continue
		}
		previous := s.playlists[i].SongIDs
		s.playlists[i].SongIDs = removeString(previous, id)
		if err := s.store.Playlists().Put(ctx, s.playlists[i]); err != nil {
			s.playlists[i].SongIDs = previous
			s.logger.Warn("cascade save failed",
				slog.String("playlist_id", s.playlists[i].ID),
				slog.String("song_id", id),
				slog.Any("error", err))
			failures = append(failures, domain.StepFailure{ID: s.playlists[i].ID, Err: err})
			continue
		}
		succeeded++
		s.bus.Publish(domain.NewPlaylistUpdatedEvent(s.playlists[i]))
	}

	s.bus.Publish(domain.NewSongDeletedEvent(id, len(failures) == 0))

	if len(failures) > 0 {
		return domain.NewPartialFailure("deleteSong cascade", succeeded, failures)
	}
	return nil
}

// CreatePlaylist validates the tags, appends the playlist, and persists it.
func (s *LibraryService) CreatePlaylist(ctx context.Context, name string, genre domain.Genre, mood, timeOfDay string) (domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Playlist{}, domain.NewValidationError("name", name, "playlist name must not be empty")
	}
	if !genre.IsValid() {
		return domain.Playlist{}, domain.NewValidationError("genre", genre, "unknown genre")
	}
	if mood != "" && !lo.Contains(domain.Moods(), mood) {
		return domain.Playlist{}, domain.NewValidationError("mood", mood, "unknown mood")
	}
	if timeOfDay != "" && !lo.Contains(domain.TimesOfDay(), timeOfDay) {
		return domain.Playlist{}, domain.NewValidationError("timeOfDay", timeOfDay, "unknown time-of-day tag")
	}

	playlist := domain.Playlist{
		ID:          domain.NewID(),
		Name:        name,
		Genre:       genre,
		Mood:        mood,
		TimeOfDay:   timeOfDay,
		SongIDs:     []string{},
		DateCreated: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = append(s.playlists, playlist)

	if err := s.store.Playlists().Put(ctx, playlist); err != nil {
		s.playlists = s.playlists[:len(s.playlists)-1]
		return domain.Playlist{}, domain.NewPersistenceError("createPlaylist", playlist.ID, err)
	}

	s.bus.Publish(domain.NewPlaylistCreatedEvent(playlist))
	return playlist, nil
}

// DeletePlaylist removes a playlist. Songs are not affected: deleting a
// playlist never deletes its members.
func (s *LibraryService) DeletePlaylist(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return domain.ErrPlaylistNotFound
	}

	removed := s.playlists[idx]
	s.playlists = append(s.playlists[:idx], s.playlists[idx+1:]...)

	if err := s.store.Playlists().Delete(ctx, id); err != nil {
		s.playlists = append(s.playlists[:idx], append([]domain.Playlist{removed}, s.playlists[idx:]...)...)
		return domain.NewPersistenceError("deletePlaylist", id, err)
	}

	s.bus.Publish(domain.NewPlaylistDeletedEvent(id))
	return nil
}

// AddSongsToPlaylist appends the given ids to the playlist's membership,
// skipping ids already present (adding an existing member is idempotent)
// and duplicates within the batch. Ids are not checked against the song
// collection here: a stale id is filtered by membership views, never by the
// write path.
func (s *LibraryService) AddSongsToPlaylist(ctx context.Context, playlistID string, songIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(playlistID)
	if idx < 0 {
		return domain.ErrPlaylistNotFound
	}

	playlist := &s.playlists[idx]

	previous := append([]string(nil), playlist.SongIDs...)
	appended := false
	for _, id := range songIDs {
		if id == "" || playlist.ContainsSong(id) {
			continue
		}
		playlist.SongIDs = append(playlist.SongIDs, id)
		appended = true
	}

	if !appended {
		return nil
	}

	if err := s.store.Playlists().Put(ctx, *playlist); err != nil {
		playlist.SongIDs = previous
		return domain.NewPersistenceError("addSongsToPlaylist", playlistID, err)
	}

	s.bus.Publish(domain.NewPlaylistUpdatedEvent(*playlist))
	return nil
}

// RemoveSongFromPlaylist strips one id from the playlist's membership.
func (s *LibraryService) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(playlistID)
	if idx < 0 {
		return domain.ErrPlaylistNotFound
	}

	playlist := &s.playlists[idx]
	if !playlist.ContainsSong(songID) {
		return nil
	}

	previous := append([]string(nil), playlist.SongIDs...)
	playlist.SongIDs = removeString(playlist.SongIDs, songID)

	if err := s.store.Playlists().Put(ctx, *playlist); err != nil {
		playlist.SongIDs = previous
		return domain.NewPersistenceError("removeSongFromPlaylist", playlistID, err)
	}

	s.bus.Publish(domain.NewPlaylistUpdatedEvent(*playlist))
	return nil
}

// ClearAll wipes both collections in the store and in memory.
// The store clear is best-effort across the two collections; if it fails,
// the mirror is reloaded so memory keeps agreeing with whatever survived.
func (s *LibraryService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearAll(ctx); err != nil {
		if songs, loadErr := s.store.Songs().LoadAll(ctx); loadErr == nil {
			s.songs = songs
		}
		if playlists, loadErr := s.store.Playlists().LoadAll(ctx); loadErr == nil {
			s.playlists = playlists
		}
		return err
	}

	s.songs = nil
	s.playlists = nil

	s.bus.Publish(domain.NewLibraryClearedEvent())
	return nil
}

// Songs returns a copy of the song collection in insertion order.
func (s *LibraryService) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]domain.Song, len(s.songs))
	copy(songs, s.songs)
	return songs
}

// SongCount returns the number of songs in the library.
func (s *LibraryService) SongCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

// SongAt returns the song at the given collection index.
func (s *LibraryService) SongAt(index int) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.songs) {
		return domain.Song{}, false
	}
	return s.songs[index], true
}

// SongByID returns the song with the given id.
func (s *LibraryService) SongByID(id string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.songIndexLocked(id)
	if idx < 0 {
		return domain.Song{}, false
	}
	return s.songs[idx], true
}

// SongIndex returns the collection index of the song with the given id,
// or -1 when it does not exist.
func (s *LibraryService) SongIndex(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.songIndexLocked(id)
}

// Playlists returns a copy of the playlist collection in insertion order.
func (s *LibraryService) Playlists() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := make([]domain.Playlist, len(s.playlists))
	copy(playlists, s.playlists)
	return playlists
}

// PlaylistByID returns the playlist with the given id.
func (s *LibraryService) PlaylistByID(id string) (domain.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return domain.Playlist{}, false
	}
	return s.playlists[idx], true
}

// PlaylistsSortedByName returns the playlists sorted by name, locale-aware.
func (s *LibraryService) PlaylistsSortedByName() []domain.Playlist {
	playlists := s.Playlists()
	s.collMu.Lock()
	s.collator.Sort(byPlaylistName(playlists))
	s.collMu.Unlock()
	return playlists
}

// SearchSongs returns the songs whose name contains the query,
// case-insensitively. An empty query matches everything.
func (s *LibraryService) SearchSongs(query string) []domain.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	songs := s.Songs()
	if query == "" {
		return songs
	}
	return lo.Filter(songs, func(song domain.Song, _ int) bool {
		return strings.Contains(strings.ToLower(song.Name), query)
	})
}

// FavoriteSongs returns the songs marked as favorites, in insertion order.
func (s *LibraryService) FavoriteSongs() []domain.Song {
	return lo.Filter(s.Songs(), func(song domain.Song, _ int) bool {
		return song.IsFavorite
	})
}

// SongsSortedByName returns the songs sorted by name, locale-aware ascending.
func (s *LibraryService) SongsSortedByName() []domain.Song {
	songs := s.Songs()
	s.collMu.Lock()
	s.collator.Sort(bySongName(songs))
	s.collMu.Unlock()
	return songs
}

// PlaylistMembers resolves the playlist's membership against the song
// collection, in membership order. Dangling ids (left behind by an
// incomplete deletion cascade) are silently dropped; a read never fails on
// them.
func (s *LibraryService) PlaylistMembers(playlistID string) ([]domain.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.playlistIndexLocked(playlistID)
	if idx < 0 {
		return nil, domain.ErrPlaylistNotFound
	}

	members := make([]domain.Song, 0, len(s.playlists[idx].SongIDs))
	for _, songID := range s.playlists[idx].SongIDs {
		if songIdx := s.songIndexLocked(songID); songIdx >= 0 {
			members = append(members, s.songs[songIdx])
		}
	}
	return members, nil
}

// ResolvedMemberCount returns how many of a playlist's member ids resolve
// to existing songs.
func (s *LibraryService) ResolvedMemberCount(playlistID string) int {
	members, err := s.PlaylistMembers(playlistID)
	if err != nil {
		return 0
	}
	return len(members)
}

// TotalSizeBytes returns the summed payload size of the library, the
// in-memory counterpart of the external storage-quota inspector.
func (s *LibraryService) TotalSizeBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.SumBy(s.songs, func(song domain.Song) int64 {
		return song.SizeBytes
	})
}

// songIndexLocked returns the index of the song with the given id, or -1.
// Caller must hold mu.
func (s *LibraryService) songIndexLocked(id string) int {
	for i := range s.songs {
		if s.songs[i].ID == id {
			return i
		}
	}
	return -1
}

// playlistIndexLocked returns the index of the playlist with the given id,
// or -1. Caller must hold mu.
func (s *LibraryService) playlistIndexLocked(id string) int {
	for i := range s.playlists {
		if s.playlists[i].ID == id {
			return i
		}
	}
	return -1
}

func removeString(ids []string, id string) []string {
	result := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}

// bySongName adapts a song slice to the collator's sort interface.
type bySongName []domain.Song

func (s bySongName) Len() int           { return len(s) }
func (s bySongName) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s bySongName) Bytes(i int) []byte { return []byte(s[i].Name) }

// byPlaylistName adapts a playlist slice to the collator's sort interface.
type byPlaylistName []domain.Playlist

func (s byPlaylistName) Len() int           { return len(s) }
func (s byPlaylistName) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s byPlaylistName) Bytes(i int) []byte { return []byte(s[i].Name) }
