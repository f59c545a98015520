package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// PlayerService drives track selection and transport over the song
// collection. Ordering is either sequential collection order or a shuffled
// permutation; both wrap around at the edges. A fresh track load publishes
// TrackLoadedEvent, which is what feeds the statistics tracker; resuming a
// paused track does not.
//
// All operations are thread-safe via sync.RWMutex.
type PlayerService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	library *LibraryService
	bus     ports.EventBus
	output  ports.AudioOutput

	// State
	currentIndex  int
	currentSongID string
	isPlaying     bool
	mode          domain.OrderMode

	// shuffleQueue is a permutation of collection indexes, rebuilt when the
	// collection size changes underneath it.
	shuffleQueue []int
	shufflePos   int

	// Concurrency control
	mu sync.RWMutex
}

// NewPlayerService creates a new playback engine and wires the audio
// output's end-of-track signal to track advancement.
func NewPlayerService(
	logger *slog.Logger,
	library *LibraryService,
	bus ports.EventBus,
	output ports.AudioOutput,
) *PlayerService {
	s := &PlayerService{
		logger:       logger,
		library:      library,
		bus:          bus,
		output:       output,
		currentIndex: -1,
		mode:         domain.OrderSequential,
	}
	output.OnEnded(func() {
		if err := s.TrackEnded(context.Background()); err != nil {
			logger.Warn("track advance failed", slog.Any("error", err))
		}
	})
	return s
}

// PlayAt loads and plays the song at the given collection index.
// An empty collection is a no-op; an index outside the collection returns a
// *domain.PlaybackError and leaves nothing playing.
func (s *PlayerService) PlayAt(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAtLocked(ctx, index)
}

func (s *PlayerService) playAtLocked(_ context.Context, index int) error {
	count := s.library.SongCount()
	if count == 0 {
		return nil
	}

	song, ok := s.library.SongAt(index)
	if !ok {
		s.isPlaying = false
		return domain.NewPlaybackError(index, "", "no song at index", nil)
	}

	if err := s.output.Load(song); err != nil {
		s.isPlaying = false
		return domain.NewPlaybackError(index, song.ID, "failed to load track", err)
	}

	s.currentIndex = index
	s.currentSongID = song.ID
	if s.mode == domain.OrderShuffled {
		s.syncQueueLocked(count)
	}

	if err := s.output.Play(); err != nil {
		s.isPlaying = false
		return domain.NewPlaybackError(index, song.ID, "failed to start playback", err)
	}
	s.isPlaying = true

	s.bus.Publish(domain.NewTrackLoadedEvent(song, index))
	return nil
}

// PlayPlaylist starts playback at the playlist's first resolvable member.
// A playlist whose members all dangle is treated as empty.
func (s *PlayerService) PlayPlaylist(ctx context.Context, playlistID string) error {
	members, err := s.library.PlaylistMembers(playlistID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return domain.ErrPlaylistEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAtLocked(ctx, s.library.SongIndex(members[0].ID))
}

// TogglePlay pauses a playing track or resumes a paused one. With no track
// loaded it starts playback at the beginning of the current order. Resuming
// never publishes TrackLoadedEvent, so a pause/resume cycle counts as one
// play.
func (s *PlayerService) TogglePlay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.library.SongCount() == 0 {
		return nil
	}

	if s.currentIndex < 0 {
		return s.playAtLocked(ctx, s.firstIndexLocked())
	}

	// Re-anchor on the current song's id; deletions may have shifted the
	// collection or removed the track entirely.
	idx := s.library.SongIndex(s.currentSongID)
	if idx < 0 {
		s.currentIndex = -1
		s.currentSongID = ""
		s.isPlaying = false
		return s.playAtLocked(ctx, s.firstIndexLocked())
	}
	s.currentIndex = idx
	song, _ := s.library.SongAt(idx)

	if s.isPlaying {
		if err := s.output.Pause(); err != nil {
			return domain.NewPlaybackError(s.currentIndex, s.currentSongID, "failed to pause", err)
		}
		s.isPlaying = false
		s.bus.Publish(domain.NewPlaybackPausedEvent(song))
		return nil
	}

	if err := s.output.Play(); err != nil {
		return domain.NewPlaybackError(s.currentIndex, s.currentSongID, "failed to resume", err)
	}
	s.isPlaying = true
	s.bus.Publish(domain.NewPlaybackResumedEvent(song))
	return nil
}

// Next advances to the following track in the current order, wrapping from
// the last track to the first.
func (s *PlayerService) Next(ctx context.Context) error {
	return s.step(ctx, 1)
}

// Previous steps back to the preceding track in the current order, wrapping
// from the first track to the last.
func (s *PlayerService) Previous(ctx context.Context) error {
	return s.step(ctx, -1)
}

// TrackEnded handles a track finishing on its own; it behaves exactly like
// Next.
func (s *PlayerService) TrackEnded(ctx context.Context) error {
	return s.step(ctx, 1)
}

func (s *PlayerService) step(ctx context.Context, direction int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.library.SongCount()
	if count == 0 {
		return nil
	}
	if s.currentIndex < 0 {
		return s.playAtLocked(ctx, s.firstIndexLocked())
	}

	// The collection may have shifted under us; re-anchor on the current
	// song's id before stepping.
	if idx := s.library.SongIndex(s.currentSongID); idx >= 0 {
		s.currentIndex = idx
	} else if s.currentIndex >= count {
		s.currentIndex = 0
	}

	var next int
	if s.mode == domain.OrderShuffled {
		s.syncQueueLocked(count)
		s.shufflePos = (s.shufflePos + direction + count) % count
		next = s.shuffleQueue[s.shufflePos]
	} else {
		next = (s.currentIndex + direction + count) % count
	}

	return s.playAtLocked(ctx, next)
}

// SetShuffle switches between sequential and shuffled ordering. Enabling
// shuffle builds a fresh permutation anchored on the current track; the
// track keeps playing either way.
func (s *PlayerService) SetShuffle(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := domain.OrderSequential
	if enabled {
		mode = domain.OrderShuffled
	}
	if mode == s.mode {
		return
	}
	s.mode = mode

	if enabled {
		s.rebuildQueueLocked(s.library.SongCount())
	} else {
		s.shuffleQueue = nil
		s.shufflePos = 0
	}

	s.logger.Debug("order mode changed", slog.String("mode", mode.String()))
	s.bus.Publish(domain.NewShuffleToggledEvent(mode))
}

// Stop halts playback and clears the current track.
func (s *PlayerService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.output.Stop(); err != nil {
		return domain.NewPlaybackError(s.currentIndex, s.currentSongID, "failed to stop", err)
	}
	s.currentIndex = -1
	s.currentSongID = ""
	s.isPlaying = false
	return nil
}

// State returns a snapshot of the engine's transport state.
func (s *PlayerService) State() domain.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlayerState{
		CurrentIndex: s.currentIndex,
		IsPlaying:    s.isPlaying,
		Mode:         s.mode,
	}
	if s.currentIndex >= 0 {
		if song, ok := s.library.SongByID(s.currentSongID); ok {
			state.CurrentSong = &song
		}
	}
	return state
}

// firstIndexLocked is where playback starts when nothing is loaded: index 0
// sequentially, the head of the permutation when shuffled.
func (s *PlayerService) firstIndexLocked() int {
	if s.mode == domain.OrderShuffled {
		s.syncQueueLocked(s.library.SongCount())
		s.shufflePos = 0
		return s.shuffleQueue[0]
	}
	return 0
}

// syncQueueLocked makes the permutation consistent with the collection size
// and the current track: rebuild when stale, then point the cursor at the
// current track's slot.
func (s *PlayerService) syncQueueLocked(count int) {
	if len(s.shuffleQueue) != count {
		s.rebuildQueueLocked(count)
	}
	for pos, idx := range s.shuffleQueue {
		if idx == s.currentIndex {
			s.shufflePos = pos
			return
		}
	}
}

// rebuildQueueLocked draws a fresh uniform permutation of the collection
// indexes, moving the current track to the front so advancing leaves it.
func (s *PlayerService) rebuildQueueLocked(count int) {
	s.shuffleQueue = rand.Perm(count)
	s.shufflePos = 0
	if s.currentIndex < 0 {
		return
	}
	for i, idx := range s.shuffleQueue {
		if idx == s.currentIndex {
			s.shuffleQueue[0], s.shuffleQueue[i] = s.shuffleQueue[i], s.shuffleQueue[0]
			break
		}
	}
}
