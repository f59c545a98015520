// Package mock provides a mock implementation of the AudioOutput interface.
// This is used for testing the playback engine without a real audio surface.
package mock

import (
	"sync"

	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/ports"
)

// Output is a mock implementation of the AudioOutput interface.
// It simulates an audio surface in memory without playing audio.
//
// Thread-safety: This implementation is thread-safe.
type Output struct {
	mu sync.RWMutex

	loaded  *domain.Song
	playing bool
	onEnded func()

	loadCount int

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
}

// NewOutput creates a new mock audio output.
func NewOutput() *Output {
	return &Output{}
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Output) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Output) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Load prepares a song for playback.
func (m *Output) Load(song domain.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLoad {
		return domain.NewPlaybackError(-1, song.ID, "mock load failure", nil)
	}

	m.loaded = &song
	m.playing = false
	m.loadCount++
	return nil
}

// Play starts or resumes playback.
func (m *Output) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlay {
		return domain.NewPlaybackError(-1, "", "mock play failure", nil)
	}
	if m.loaded == nil {
		return domain.NewPlaybackError(-1, "", "no track loaded", nil)
	}

	m.playing = true
	return nil
}

// Pause pauses playback, keeping the loaded track.
func (m *Output) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	return nil
}

// Stop stops playback and discards the loaded track.
func (m *Output) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	m.loaded = nil
	return nil
}

// OnEnded registers the end-of-track callback.
func (m *Output) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// EmitEnded simulates the loaded track finishing on its own (test helper).
func (m *Output) EmitEnded() {
	m.mu.RLock()
	fn := m.onEnded
	m.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// Loaded returns the currently loaded song, or nil (test helper).
func (m *Output) Loaded() *domain.Song {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// IsPlaying reports whether the mock is playing (test helper).
func (m *Output) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// LoadCount returns how many loads have been issued (test helper).
func (m *Output) LoadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadCount
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
