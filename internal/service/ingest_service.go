package service

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"

	"github.com/sonata-music/sonata/internal/domain"
)

// ImportOptions configure a batch import.
type ImportOptions struct {
	// NameOverride replaces the derived display name. It is honored only
	// for single-file batches; applying one name to many files would create
	// indistinguishable records.
	NameOverride string

	// TargetPlaylistIDs are the playlists every committed song is added to.
	TargetPlaylistIDs []string
}

// IngestService turns raw file uploads into library songs. Files are
// processed strictly one at a time in batch order; one bad file never stops
// the rest, and the report tells the caller exactly which files made it in.
type IngestService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	library *LibraryService

	// Concurrency control
	mu sync.Mutex
}

// NewIngestService creates a new ingestion service.
func NewIngestService(logger *slog.Logger, library *LibraryService) *IngestService {
	return &IngestService{
		logger:  logger,
		library: library,
	}
}

// ImportBatch validates the batch up front, then processes each file in
// order: derive a display name, commit the song, and finally add every
// committed song to the target playlists. Batch-level problems return a
// *domain.ValidationError before anything is written; per-file problems are
// collected in the report and never abort the remaining files.
func (s *IngestService) ImportBatch(ctx context.Context, uploads []domain.FileUpload, opts ImportOptions) (domain.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(uploads) == 0 {
		return domain.ImportReport{}, domain.NewValidationError("uploads", nil, "batch must contain at least one file")
	}
	for _, upload := range uploads {
		if !upload.IsAudio() {
			return domain.ImportReport{}, domain.NewValidationError("uploads", upload.Filename, "not an audio file")
		}
	}

	override := strings.TrimSpace(opts.NameOverride)
	if len(uploads) == 1 {
		if opts.NameOverride != "" && override == "" {
			return domain.ImportReport{}, domain.NewValidationError("name", opts.NameOverride, "song name must not be blank")
		}
		if override == "" && strippedName(uploads[0].Filename) == "" {
			return domain.ImportReport{}, domain.NewValidationError("name", uploads[0].Filename, "song name must not be blank")
		}
	}

	primaryPlaylist := ""
	if len(opts.TargetPlaylistIDs) == 1 {
		primaryPlaylist = opts.TargetPlaylistIDs[0]
	}

	var report domain.ImportReport
	for _, upload := range uploads {
		name := s.displayName(upload, override, len(uploads) == 1)
		if name == "" {
			report.Failures = append(report.Failures, domain.ImportFailure{
				Filename: upload.Filename,
				Err:      domain.NewValidationError("name", upload.Filename, "could not derive a song name"),
			})
			continue
		}

		// Fresh records start with statistics in place; only records written
		// before statistics existed lack a count.
		zero := 0
		song := domain.Song{
			ID:                domain.NewID(),
			Name:              name,
			AudioData:         upload.Data,
			MIMEType:          upload.MIMEType,
			SizeBytes:         int64(len(upload.Data)),
			DateAdded:         time.Now(),
			PrimaryPlaylistID: primaryPlaylist,
			PlayCount:         &zero,
		}

		if err := s.library.AddSong(ctx, song); err != nil {
			s.logger.Warn("import failed",
				slog.String("filename", upload.Filename),
				slog.Any("error", err))
			report.Failures = append(report.Failures, domain.ImportFailure{
				Filename: upload.Filename,
				Err:      err,
			})
			continue
		}

		report.Added = append(report.Added, song)
	}

	if len(report.Added) > 0 {
		ids := make([]string, len(report.Added))
		for i, song := range report.Added {
			ids[i] = song.ID
		}
		for _, playlistID := range opts.TargetPlaylistIDs {
			if err := s.library.AddSongsToPlaylist(ctx, playlistID, ids); err != nil {
				// The songs are in the library; only this playlist link is
				// missing.
				s.logger.Warn("playlist link failed",
					slog.String("playlist_id", playlistID),
					slog.Any("error", err))
				report.LinkFailures = append(report.LinkFailures, domain.LinkFailure{
					PlaylistID: playlistID,
					Err:        err,
				})
			}
		}
	}

	s.logger.Info("import batch done",
		slog.Int("added", report.SucceededCount()),
		slog.Int("failed", len(report.Failures)),
		slog.Int("link_failed", len(report.LinkFailures)))

	return report, nil
}

// displayName derives the song's display name: the explicit override for a
// single-file batch, otherwise the filename without its extension, falling
// back to the embedded title tag when the filename yields nothing.
func (s *IngestService) displayName(upload domain.FileUpload, override string, single bool) string {
	if single && override != "" {
		return override
	}

	if name := strippedName(upload.Filename); name != "" {
		return name
	}

	// Best-effort tag probe; unreadable metadata just means no fallback.
	meta, err := tag.ReadFrom(bytes.NewReader(upload.Data))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title())
}

// strippedName is the filename without directory and extension.
func strippedName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "." {
		return ""
	}
	return name
}
