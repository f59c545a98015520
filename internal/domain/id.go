package domain

import (
	"github.com/google/uuid"
)

// NewID returns a collision-resistant identifier for songs and playlists.
// Random 128-bit UUIDs keep ids unique even when a batch ingest creates many
// records within the same millisecond; a bare timestamp would not.
func NewID() string {
	return uuid.NewString()
}
