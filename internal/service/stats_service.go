package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// StatsService tracks listening statistics. It subscribes to fresh track
// loads and bumps the played song's counters; the write-back is best-effort,
// a failed persist is logged and the record keeps its last durable value.
type StatsService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	library *LibraryService
	bus     ports.EventBus

	// State
	subscription domain.SubscriptionID

	// topN caps the ranked views when callers pass a non-positive limit.
	topN int
}

// NewStatsService creates the statistics tracker and subscribes it to track
// loads. Call Close to detach it from the bus.
func NewStatsService(logger *slog.Logger, library *LibraryService, bus ports.EventBus, topN int) *StatsService {
	if topN <= 0 {
		topN = 10
	}
	s := &StatsService{
		logger:  logger,
		library: library,
		bus:     bus,
		topN:    topN,
	}
	s.subscription = bus.Subscribe(domain.EventTrackLoaded, s.onTrackLoaded)
	return s
}

// Close detaches the tracker from the event bus.
func (s *StatsService) Close() {
	s.bus.Unsubscribe(s.subscription)
}

func (s *StatsService) onTrackLoaded(event domain.Event) {
	loaded, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	song, err := s.library.RecordPlay(context.Background(), loaded.Song.ID, time.Now())
	if err != nil {
		s.logger.Warn("play count update failed",
			slog.String("song_id", loaded.Song.ID),
			slog.Any("error", err))
		return
	}

	s.bus.Publish(domain.NewStatsUpdatedEvent(song))
}

// MostPlayed returns up to n songs ordered by play count descending, ties
// broken by insertion order. Songs never played are included at the tail
// only if n exceeds the played count. A non-positive n uses the configured
// default.
func (s *StatsService) MostPlayed(n int) []domain.Song {
	if n <= 0 {
		n = s.topN
	}

	songs := s.library.Songs()
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].Plays() > songs[j].Plays()
	})
	return lo.Slice(songs, 0, n)
}

// RecentlyPlayed returns up to n songs ordered by last-played descending.
// Songs never played are excluded. A non-positive n uses the configured
// default.
func (s *StatsService) RecentlyPlayed(n int) []domain.Song {
	if n <= 0 {
		n = s.topN
	}

	played := lo.Filter(s.library.Songs(), func(song domain.Song, _ int) bool {
		return song.LastPlayed != nil
	})
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].LastPlayed.After(*played[j].LastPlayed)
	})
	return lo.Slice(played, 0, n)
}

// Trends computes aggregate listening metrics over the whole library.
func (s *StatsService) Trends() domain.TrendMetrics {
	songs := s.library.Songs()

	var metrics domain.TrendMetrics
	for _, song := range songs {
		plays := song.Plays()
		metrics.TotalPlays += plays
		if plays > 0 {
			metrics.DistinctPlayed++
		}
	}
	if metrics.DistinctPlayed > 0 {
		metrics.MeanPlaysPerPlayed = float64(metrics.TotalPlays) / float64(metrics.DistinctPlayed)
	}
	if len(songs) > 0 {
		metrics.PercentPlayed = float64(metrics.DistinctPlayed) / float64(len(songs)) * 100
	}
	return metrics
}
