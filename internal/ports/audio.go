// Package ports defines the audio output interface.
package ports

import (
	"github.com/sonata-music/sonata/internal/domain"
)

// AudioOutput is the surface the playback engine drives. The real output
// (an HTML audio element, a native device) lives in the presentation layer;
// the engine only needs load/play/pause/stop and an end-of-track signal.
//
// Thread-safety: Implementations must be thread-safe.
type AudioOutput interface {
	// Load prepares the given song's payload for playback, replacing any
	// previously loaded track. Returns an error if the payload cannot be
	// decoded or queued.
	Load(song domain.Song) error

	// Play starts or resumes playback of the loaded track.
	Play() error

	// Pause pauses playback, keeping the loaded track and its position.
	Pause() error

	// Stop stops playback and discards the loaded track.
	Stop() error

	// OnEnded registers the callback invoked when the loaded track finishes
	// on its own. The engine treats this exactly like a "next" request.
	OnEnded(fn func())
}
