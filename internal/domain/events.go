// Package domain defines events for the event-driven architecture.
// Events replace direct UI callbacks and enable loose coupling between the
// core and the presentation layer: the core publishes, subscribers re-render.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library events
	EventSongAdded       EventType = "library.song_added"
	EventSongUpdated     EventType = "library.song_updated"
	EventSongDeleted     EventType = "library.song_deleted"
	EventPlaylistCreated EventType = "library.playlist_created"
	EventPlaylistUpdated EventType = "library.playlist_updated"
	EventPlaylistDeleted EventType = "library.playlist_deleted"
	EventLibraryCleared  EventType = "library.cleared"

	// Playback events
	EventTrackLoaded     EventType = "player.track_loaded"
	EventPlaybackPaused  EventType = "player.paused"
	EventPlaybackResumed EventType = "player.resumed"
	EventShuffleToggled  EventType = "player.shuffle_toggled"

	// Statistics events
	EventStatsUpdated EventType = "stats.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SongAddedEvent is published when a song is committed to the library.
type SongAddedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongAddedEvent) Type() EventType {
	return EventSongAdded
}

// NewSongAddedEvent creates a new SongAddedEvent.
func NewSongAddedEvent(song Song) SongAddedEvent {
	return SongAddedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// SongUpdatedEvent is published when a song record is mutated (rename,
// favorite toggle, statistics update).
type SongUpdatedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e SongUpdatedEvent) Type() EventType {
	return EventSongUpdated
}

// NewSongUpdatedEvent creates a new SongUpdatedEvent.
func NewSongUpdatedEvent(song Song) SongUpdatedEvent {
	return SongUpdatedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// SongDeletedEvent is published after a song is removed from the song
// collection. The playlist cascade may still be in flight when subscribers
// see it; CascadeComplete reports whether every affected playlist was saved.
type SongDeletedEvent struct {
	baseEvent
	SongID          string
	CascadeComplete bool
}

// Type returns the event type.
func (e SongDeletedEvent) Type() EventType {
	return EventSongDeleted
}

// NewSongDeletedEvent creates a new SongDeletedEvent.
func NewSongDeletedEvent(songID string, cascadeComplete bool) SongDeletedEvent {
	return SongDeletedEvent{
		baseEvent:       newBaseEvent(),
		SongID:          songID,
		CascadeComplete: cascadeComplete,
	}
}

// PlaylistCreatedEvent is published when a playlist is created.
type PlaylistCreatedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistCreatedEvent) Type() EventType {
	return EventPlaylistCreated
}

// NewPlaylistCreatedEvent creates a new PlaylistCreatedEvent.
func NewPlaylistCreatedEvent(playlist Playlist) PlaylistCreatedEvent {
	return PlaylistCreatedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
	}
}

// PlaylistUpdatedEvent is published when a playlist's membership or tags change.
type PlaylistUpdatedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(playlist Playlist) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
	}
}

// PlaylistDeletedEvent is published when a playlist is deleted.
type PlaylistDeletedEvent struct {
	baseEvent
	PlaylistID string
}

// Type returns the event type.
func (e PlaylistDeletedEvent) Type() EventType {
	return EventPlaylistDeleted
}

// NewPlaylistDeletedEvent creates a new PlaylistDeletedEvent.
func NewPlaylistDeletedEvent(playlistID string) PlaylistDeletedEvent {
	return PlaylistDeletedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
	}
}

// LibraryClearedEvent is published when both collections are wiped.
type LibraryClearedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e LibraryClearedEvent) Type() EventType {
	return EventLibraryCleared
}

// NewLibraryClearedEvent creates a new LibraryClearedEvent.
func NewLibraryClearedEvent() LibraryClearedEvent {
	return LibraryClearedEvent{baseEvent: newBaseEvent()}
}

// TrackLoadedEvent is published on each fresh load of a track for playback.
// This is the statistics trigger: only fresh loads count as plays, resuming
// from pause does not re-publish it.
type TrackLoadedEvent struct {
	baseEvent
	Song  Song
	Index int
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(song Song, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
		Index:     index,
	}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPaused
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(song Song) PlaybackPausedEvent {
	return PlaybackPausedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// PlaybackResumedEvent is published when paused playback resumes without a
// fresh load.
type PlaybackResumedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e PlaybackResumedEvent) Type() EventType {
	return EventPlaybackResumed
}

// NewPlaybackResumedEvent creates a new PlaybackResumedEvent.
func NewPlaybackResumedEvent(song Song) PlaybackResumedEvent {
	return PlaybackResumedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// ShuffleToggledEvent is published when the ordering mode changes.
type ShuffleToggledEvent struct {
	baseEvent
	Mode OrderMode
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(mode OrderMode) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// StatsUpdatedEvent is published after the statistics tracker records a play.
type StatsUpdatedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e StatsUpdatedEvent) Type() EventType {
	return EventStatsUpdated
}

// NewStatsUpdatedEvent creates a new StatsUpdatedEvent.
func NewStatsUpdatedEvent(song Song) StatsUpdatedEvent {
	return StatsUpdatedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}
