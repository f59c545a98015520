package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonata-music/sonata/internal/adapter/eventbus"
	"github.com/sonata-music/sonata/internal/adapter/store/memory"
	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/logger"
)

func newTestIngest(t *testing.T) (*IngestService, *LibraryService, *memory.Store) {
	t.Helper()

	store := memory.New()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	library := NewLibraryService(logger.NewTestLogger(), store, bus, "en")
	require.NoError(t, library.Load(context.Background()))

	return NewIngestService(logger.NewTestLogger(), library), library, store
}

func upload(filename string, size int) domain.FileUpload {
	return domain.FileUpload{
		Filename: filename,
		MIMEType: "audio/mpeg",
		Data:     make([]byte, size),
	}
}

func TestIngestService_ImportBatch(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("Morning Song.mp3", 64),
		upload("evening.flac", 32),
	}, ImportOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, report.SucceededCount())
	assert.Empty(t, report.Failures)
	assert.Equal(t, "Morning Song", report.Added[0].Name)
	assert.Equal(t, "evening", report.Added[1].Name)
	assert.Equal(t, int64(64), report.Added[0].SizeBytes)
	assert.NotEqual(t, report.Added[0].ID, report.Added[1].ID)
	assert.Equal(t, 2, library.SongCount())

	// Fresh imports carry zeroed statistics, not the pre-statistics shape.
	for _, song := range report.Added {
		assert.True(t, song.HasStats())
		assert.Equal(t, 0, song.Plays())
	}
}

func TestIngestService_ImportBatch_SingleNamelessFile(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	var validationErr *domain.ValidationError
	_, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload(".mp3", 8),
	}, ImportOptions{})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, library.SongCount())
}

func TestIngestService_ImportBatch_RejectsEmptyAndNonAudio(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	var validationErr *domain.ValidationError

	_, err := ingest.ImportBatch(ctx, nil, ImportOptions{})
	require.ErrorAs(t, err, &validationErr)

	// One bad file fails the batch before anything is written.
	_, err = ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("good.mp3", 8),
		{Filename: "notes.txt", MIMEType: "text/plain", Data: []byte("x")},
	}, ImportOptions{})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, library.SongCount())
}

func TestIngestService_ImportBatch_NameOverride(t *testing.T) {
	ingest, _, _ := newTestIngest(t)
	ctx := context.Background()

	// Honored for a single file.
	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("cryptic_filename_01.mp3", 8),
	}, ImportOptions{NameOverride: "Nocturne in C"})
	require.NoError(t, err)
	require.Equal(t, 1, report.SucceededCount())
	assert.Equal(t, "Nocturne in C", report.Added[0].Name)

	// A blank override on a single file is rejected up front.
	var validationErr *domain.ValidationError
	_, err = ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("another.mp3", 8),
	}, ImportOptions{NameOverride: "   "})
	require.ErrorAs(t, err, &validationErr)

	// Ignored for multi-file batches; each file keeps its own name.
	report, err = ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("one.mp3", 8),
		upload("two.mp3", 8),
	}, ImportOptions{NameOverride: "Same Name"})
	require.NoError(t, err)
	require.Equal(t, 2, report.SucceededCount())
	assert.Equal(t, "one", report.Added[0].Name)
	assert.Equal(t, "two", report.Added[1].Name)
}

func TestIngestService_ImportBatch_ContinuesPastFailures(t *testing.T) {
	ingest, library, store := newTestIngest(t)
	ctx := context.Background()

	// The nameless file fails, the surrounding files still commit.
	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("first.mp3", 8),
		upload(".mp3", 8),
		upload("third.mp3", 8),
	}, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.SucceededCount())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, ".mp3", report.Failures[0].Filename)
	assert.False(t, report.AllFailed())
	assert.Equal(t, 2, library.SongCount())
	assert.Equal(t, 2, store.SongCount())
}

func TestIngestService_ImportBatch_AllFailed(t *testing.T) {
	ingest, _, store := newTestIngest(t)
	ctx := context.Background()

	store.SetFailSongPut(true)
	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("one.mp3", 8),
		upload("two.mp3", 8),
	}, ImportOptions{})
	require.NoError(t, err)

	assert.True(t, report.AllFailed())
	assert.Len(t, report.Failures, 2)
}

func TestIngestService_ImportBatch_LinksTargetPlaylists(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	first, err := library.CreatePlaylist(ctx, "First", domain.GenreJazz, "", "")
	require.NoError(t, err)
	second, err := library.CreatePlaylist(ctx, "Second", domain.GenreRock, "", "")
	require.NoError(t, err)

	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("linked.mp3", 8),
	}, ImportOptions{TargetPlaylistIDs: []string{first.ID, second.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, report.SucceededCount())

	for _, playlistID := range []string{first.ID, second.ID} {
		members, err := library.PlaylistMembers(playlistID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, report.Added[0].ID, members[0].ID)
	}

	// Two targets means no single primary playlist.
	assert.Empty(t, report.Added[0].PrimaryPlaylistID)
}

func TestIngestService_ImportBatch_SetsPrimaryPlaylistForSingleTarget(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	playlist, err := library.CreatePlaylist(ctx, "Only", domain.GenrePop, "", "")
	require.NoError(t, err)

	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("primary.mp3", 8),
	}, ImportOptions{TargetPlaylistIDs: []string{playlist.ID}})
	require.NoError(t, err)

	require.Equal(t, 1, report.SucceededCount())
	assert.Equal(t, playlist.ID, report.Added[0].PrimaryPlaylistID)
}

func TestIngestService_ImportBatch_ReportsMissingTargetPlaylist(t *testing.T) {
	ingest, library, _ := newTestIngest(t)
	ctx := context.Background()

	report, err := ingest.ImportBatch(ctx, []domain.FileUpload{
		upload("orphan.mp3", 8),
	}, ImportOptions{TargetPlaylistIDs: []string{"missing"}})
	require.NoError(t, err)

	// The song is in the library even though the link failed; the report
	// keeps file failures and link failures apart.
	assert.Equal(t, 1, report.SucceededCount())
	assert.Empty(t, report.Failures)
	require.Len(t, report.LinkFailures, 1)
	assert.Equal(t, "missing", report.LinkFailures[0].PlaylistID)
	assert.ErrorIs(t, report.LinkFailures[0].Err, domain.ErrPlaylistNotFound)
	assert.Equal(t, 1, library.SongCount())
}
