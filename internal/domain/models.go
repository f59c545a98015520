// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Sonata media library.
package domain

import (
	"time"
)

// Song represents one uploaded audio file and its metadata.
// This is the core domain model for library entries.
type Song struct {
	// ID is a unique identifier for the song (UUID)
	ID string

	// Name is the user-visible display name
	Name string

	// AudioData is the raw audio payload
	AudioData []byte

	// MIMEType is the MIME type the file was uploaded with (e.g. "audio/mpeg")
	MIMEType string

	// SizeBytes is the payload size as reported at upload time
	SizeBytes int64

	// DateAdded is the creation timestamp (immutable)
	DateAdded time.Time

	// PrimaryPlaylistID is a legacy single back-reference set at upload time.
	// It is display-only metadata; playlist membership is tracked solely by
	// Playlist.SongIDs. The two relations are never reconciled.
	PrimaryPlaylistID string

	// IsFavorite marks the song as a favorite
	IsFavorite bool

	// PlayCount is the number of times the song has been freshly loaded for
	// playback. A nil PlayCount marks a record created before statistics
	// existed; the load-time migration assigns such records a zero count.
	PlayCount *int

	// LastPlayed is the time of the most recent fresh load (nil if never played)
	LastPlayed *time.Time
}

// Plays returns the play count, treating pre-migration records as zero.
func (s *Song) Plays() int {
	if s.PlayCount == nil {
		return 0
	}
	return *s.PlayCount
}

// HasStats reports whether the statistics fields have been initialized.
func (s *Song) HasStats() bool {
	return s.PlayCount != nil
}

// Playlist represents a named, ordered set of song references plus descriptive tags.
type Playlist struct {
	// ID is a unique identifier for the playlist (UUID)
	ID string

	// Name is the playlist name
	Name string

	// Genre is the playlist's genre tag (required, from the fixed set below)
	Genre Genre

	// Mood is an optional mood tag
	Mood string

	// TimeOfDay is an optional time-of-day tag
	TimeOfDay string

	// SongIDs is the ordered membership relation (insertion order, no duplicates).
	// Entries may dangle while a song deletion cascade is still in flight;
	// membership views filter unresolved ids rather than failing.
	SongIDs []string

	// DateCreated is when the playlist was created
	DateCreated time.Time
}

// ContainsSong reports whether the playlist's membership list holds the given id.
func (p Playlist) ContainsSong(songID string) bool {
	for _, id := range p.SongIDs {
		if id == songID {
			return true
		}
	}
	return false
}

// Genre identifies one of the fixed playlist genres.
type Genre string

// The fixed genre set. Playlists must carry exactly one of these.
const (
	GenreClassical  Genre = "classical"
	GenreJazz       Genre = "jazz"
	GenreRock       Genre = "rock"
	GenrePop        Genre = "pop"
	GenreElectronic Genre = "electronic"
	GenreHipHop     Genre = "hiphop"
	GenreBlues      Genre = "blues"
	GenreMetal      Genre = "metal"
	GenreReggae     Genre = "reggae"
	GenreCountry    Genre = "country"
)

// Genres lists all valid genres in display order.
func Genres() []Genre {
	return []Genre{
		GenreClassical, GenreJazz, GenreRock, GenrePop, GenreElectronic,
		GenreHipHop, GenreBlues, GenreMetal, GenreReggae, GenreCountry,
	}
}

// IsValid reports whether g is a member of the fixed genre set.
func (g Genre) IsValid() bool {
	for _, known := range Genres() {
		if g == known {
			return true
		}
	}
	return false
}

// Moods lists the recognized optional mood tags.
func Moods() []string {
	return []string{"Energisch", "Entspannt", "Fokussiert", "Party", "Melancholisch", "Euphorisch"}
}

// TimesOfDay lists the recognized optional time-of-day tags.
func TimesOfDay() []string {
	return []string{"Morgens", "Mittags", "Abends", "Nachts"}
}

// OrderMode selects how the playback engine advances between tracks.
type OrderMode int

const (
	// OrderSequential advances by ±1 over the song collection with wraparound
	OrderSequential OrderMode = iota

	// OrderShuffled advances through a precomputed random permutation of indices
	OrderShuffled
)

// String returns a human-readable representation of the order mode.
func (m OrderMode) String() string {
	switch m {
	case OrderSequential:
		return "sequential"
	case OrderShuffled:
		return "shuffled"
	default:
		return "unknown"
	}
}

// PlayerState is a read-only snapshot of the playback engine.
type PlayerState struct {
	// CurrentIndex is the index into the song collection (-1 if no track)
	CurrentIndex int

	// CurrentSong is the song at CurrentIndex (nil if none)
	CurrentSong *Song

	// IsPlaying indicates whether playback is active
	IsPlaying bool

	// Mode is the current ordering mode
	Mode OrderMode
}

// FileUpload is the shape file-input collaborators (drag-drop, file picker)
// must produce for the ingestion pipeline.
type FileUpload struct {
	// Filename is the original filename including extension
	Filename string

	// MIMEType is the reported MIME type
	MIMEType string

	// Data is the raw file payload
	Data []byte
}

// IsAudio reports whether the upload carries an audio MIME type.
func (f FileUpload) IsAudio() bool {
	return len(f.MIMEType) >= 6 && f.MIMEType[:6] == "audio/"
}

// ImportFailure records one file that the ingestion pipeline could not process.
type ImportFailure struct {
	// Filename identifies the failed file
	Filename string

	// Err is the cause
	Err error
}

// LinkFailure records a playlist the ingestion pipeline could not link the
// batch's committed songs to.
type LinkFailure struct {
	// PlaylistID identifies the target playlist
	PlaylistID string

	// Err is the cause
	Err error
}

// ImportReport summarizes a batch ingest. Some files may have succeeded and
// others failed; callers must not treat the report as total success or total
// failure.
type ImportReport struct {
	// Added holds the songs committed to the library, in processing order
	Added []Song

	// Failures holds the files that could not be processed
	Failures []ImportFailure

	// LinkFailures holds the target playlists that could not be updated;
	// the songs themselves are committed regardless
	LinkFailures []LinkFailure
}

// SucceededCount returns the number of files committed to the library.
func (r ImportReport) SucceededCount() int {
	return len(r.Added)
}

// AllFailed reports whether no file in the batch was committed.
func (r ImportReport) AllFailed() bool {
	return len(r.Added) == 0 && len(r.Failures) > 0
}

// TrendMetrics are aggregate statistics over the whole library.
type TrendMetrics struct {
	// TotalPlays is the sum of play counts across the collection
	TotalPlays int

	// DistinctPlayed is the count of songs with at least one play
	DistinctPlayed int

	// MeanPlaysPerPlayed is TotalPlays / DistinctPlayed (0 if nothing played)
	MeanPlaysPerPlayed float64

	// PercentPlayed is the share of the library ever played, 0-100
	PercentPlayed float64
}
