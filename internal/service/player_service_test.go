package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonata-music/sonata/internal/adapter/audio/mock"
	"github.com/sonata-music/sonata/internal/adapter/eventbus"
	"github.com/sonata-music/sonata/internal/adapter/store/memory"
	"github.com/sonata-music/sonata/internal/domain"
	"github.com/sonata-music/sonata/internal/logger"
)

func newTestPlayer(t *testing.T, songNames ...string) (*PlayerService, *LibraryService, *mock.Output, *eventbus.SyncEventBus) {
	t.Helper()

	store := memory.New()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	library := NewLibraryService(logger.NewTestLogger(), store, bus, "en")
	require.NoError(t, library.Load(context.Background()))

	for _, name := range songNames {
		require.NoError(t, library.AddSong(context.Background(), testSong(name)))
	}

	output := mock.NewOutput()
	player := NewPlayerService(logger.NewTestLogger(), library, bus, output)
	return player, library, output, bus
}

// trackLoads collects the index of every fresh track load.
func trackLoads(bus *eventbus.SyncEventBus) *[]int {
	loads := &[]int{}
	bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
		loaded := e.(domain.TrackLoadedEvent)
		*loads = append(*loads, loaded.Index)
	})
	return loads
}

func TestPlayerService_PlayAt(t *testing.T) {
	player, _, output, bus := newTestPlayer(t, "A", "B", "C")
	loads := trackLoads(bus)

	require.NoError(t, player.PlayAt(context.Background(), 1))

	state := player.State()
	assert.Equal(t, 1, state.CurrentIndex)
	assert.True(t, state.IsPlaying)
	require.NotNil(t, state.CurrentSong)
	assert.Equal(t, "B", state.CurrentSong.Name)
	assert.True(t, output.IsPlaying())
	assert.Equal(t, []int{1}, *loads)
}

func TestPlayerService_PlayAt_EmptyCollectionIsNoOp(t *testing.T) {
	player, _, output, _ := newTestPlayer(t)

	require.NoError(t, player.PlayAt(context.Background(), 0))
	assert.Equal(t, -1, player.State().CurrentIndex)
	assert.Equal(t, 0, output.LoadCount())
}

func TestPlayerService_PlayAt_BadIndex(t *testing.T) {
	player, _, _, _ := newTestPlayer(t, "A")

	err := player.PlayAt(context.Background(), 5)
	var playbackErr *domain.PlaybackError
	require.ErrorAs(t, err, &playbackErr)
	assert.Equal(t, 5, playbackErr.Index)
	assert.False(t, player.State().IsPlaying)
}

func TestPlayerService_PlayAt_LoadFailure(t *testing.T) {
	player, _, output, _ := newTestPlayer(t, "A")

	output.SetFailLoad(true)
	err := player.PlayAt(context.Background(), 0)

	var playbackErr *domain.PlaybackError
	require.ErrorAs(t, err, &playbackErr)
	assert.False(t, player.State().IsPlaying)
}

func TestPlayerService_NextWrapsAround(t *testing.T) {
	player, _, _, bus := newTestPlayer(t, "A", "B", "C")
	loads := trackLoads(bus)
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 2))
	require.NoError(t, player.Next(ctx))

	assert.Equal(t, 0, player.State().CurrentIndex)
	assert.Equal(t, []int{2, 0}, *loads)
}

func TestPlayerService_PreviousWrapsAround(t *testing.T) {
	player, _, _, _ := newTestPlayer(t, "A", "B", "C")
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))
	require.NoError(t, player.Previous(ctx))

	assert.Equal(t, 2, player.State().CurrentIndex)
}

func TestPlayerService_TogglePlay(t *testing.T) {
	player, _, output, bus := newTestPlayer(t, "A", "B")
	loads := trackLoads(bus)
	ctx := context.Background()

	// Nothing loaded: toggling starts at the head of the order.
	require.NoError(t, player.TogglePlay(ctx))
	assert.Equal(t, 0, player.State().CurrentIndex)
	assert.True(t, player.State().IsPlaying)

	// Pause, then resume. Neither publishes a fresh load.
	require.NoError(t, player.TogglePlay(ctx))
	assert.False(t, player.State().IsPlaying)
	assert.False(t, output.IsPlaying())

	require.NoError(t, player.TogglePlay(ctx))
	assert.True(t, player.State().IsPlaying)

	assert.Equal(t, []int{0}, *loads)
	assert.Equal(t, 1, output.LoadCount())
}

func TestPlayerService_TrackEndedAdvances(t *testing.T) {
	player, _, output, bus := newTestPlayer(t, "A", "B")
	loads := trackLoads(bus)
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))

	// The output's end-of-track signal behaves exactly like Next.
	output.EmitEnded()

	assert.Equal(t, 1, player.State().CurrentIndex)
	assert.Equal(t, []int{0, 1}, *loads)
}

func TestPlayerService_ShuffleVisitsEverySong(t *testing.T) {
	player, _, _, bus := newTestPlayer(t, "A", "B", "C", "D", "E")
	loads := trackLoads(bus)
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))
	player.SetShuffle(true)
	assert.Equal(t, domain.OrderShuffled, player.State().Mode)

	// One full cycle through the permutation touches each song exactly once.
	for range 5 {
		require.NoError(t, player.Next(ctx))
	}

	visited := make(map[int]int)
	for _, idx := range *loads {
		visited[idx]++
	}
	require.Len(t, visited, 5)
	// Index 0 was loaded twice: the initial play plus the wraparound.
	assert.Equal(t, 2, visited[0])
	for idx := 1; idx < 5; idx++ {
		assert.Equal(t, 1, visited[idx])
	}
}

func TestPlayerService_ShufflePreviousStepsBack(t *testing.T) {
	player, _, _, _ := newTestPlayer(t, "A", "B", "C", "D")
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))
	player.SetShuffle(true)

	require.NoError(t, player.Next(ctx))
	forward := player.State().CurrentIndex
	require.NoError(t, player.Previous(ctx))
	assert.Equal(t, 0, player.State().CurrentIndex)
	require.NoError(t, player.Next(ctx))
	assert.Equal(t, forward, player.State().CurrentIndex)
}

func TestPlayerService_SetShuffle_Events(t *testing.T) {
	player, _, _, bus := newTestPlayer(t, "A")

	var modes []domain.OrderMode
	bus.Subscribe(domain.EventShuffleToggled, func(e domain.Event) {
		modes = append(modes, e.(domain.ShuffleToggledEvent).Mode)
	})

	player.SetShuffle(true)
	player.SetShuffle(true) // already shuffled, no event
	player.SetShuffle(false)

	assert.Equal(t, []domain.OrderMode{domain.OrderShuffled, domain.OrderSequential}, modes)
}

func TestPlayerService_PlayPlaylist(t *testing.T) {
	player, library, _, _ := newTestPlayer(t, "A", "B", "C")
	ctx := context.Background()

	songs := library.Songs()
	playlist, err := library.CreatePlaylist(ctx, "Mix", domain.GenreRock, "", "")
	require.NoError(t, err)
	require.NoError(t, library.AddSongsToPlaylist(ctx, playlist.ID, []string{songs[2].ID, songs[0].ID}))

	require.NoError(t, player.PlayPlaylist(ctx, playlist.ID))
	assert.Equal(t, 2, player.State().CurrentIndex)

	// Unknown playlist and empty playlist both fail cleanly.
	assert.ErrorIs(t, player.PlayPlaylist(ctx, "missing"), domain.ErrPlaylistNotFound)
	empty, err := library.CreatePlaylist(ctx, "Empty", domain.GenreJazz, "", "")
	require.NoError(t, err)
	assert.ErrorIs(t, player.PlayPlaylist(ctx, empty.ID), domain.ErrPlaylistEmpty)
}

func TestPlayerService_PlayPlaylist_SkipsDanglingMembers(t *testing.T) {
	player, library, _, _ := newTestPlayer(t, "A", "B")
	ctx := context.Background()

	songs := library.Songs()
	playlist, err := library.CreatePlaylist(ctx, "Mix", domain.GenrePop, "", "")
	require.NoError(t, err)
	require.NoError(t, library.AddSongsToPlaylist(ctx, playlist.ID, []string{"dangling", songs[1].ID}))

	// The dangling head is skipped; the first resolvable member plays.
	require.NoError(t, player.PlayPlaylist(ctx, playlist.ID))
	assert.Equal(t, 1, player.State().CurrentIndex)
}

func TestPlayerService_Stop(t *testing.T) {
	player, _, output, _ := newTestPlayer(t, "A")
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))
	require.NoError(t, player.Stop())

	state := player.State()
	assert.Equal(t, -1, state.CurrentIndex)
	assert.False(t, state.IsPlaying)
	assert.Nil(t, state.CurrentSong)
	assert.False(t, output.IsPlaying())
}

func TestPlayerService_TogglePlayAfterCurrentSongDeleted(t *testing.T) {
	player, library, _, bus := newTestPlayer(t, "A", "B")
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 0))
	require.NoError(t, player.TogglePlay(ctx)) // pause

	var paused []domain.Song
	bus.Subscribe(domain.EventPlaybackPaused, func(e domain.Event) {
		paused = append(paused, e.(domain.PlaybackPausedEvent).Song)
	})

	songs := library.Songs()
	require.NoError(t, library.DeleteSong(ctx, songs[0].ID))

	// The paused track is gone, so toggling starts a real track instead of
	// resuming a dangling one.
	require.NoError(t, player.TogglePlay(ctx))
	state := player.State()
	assert.True(t, state.IsPlaying)
	require.NotNil(t, state.CurrentSong)
	assert.Equal(t, "B", state.CurrentSong.Name)

	// Pausing now carries the re-anchored song, never a zero value.
	require.NoError(t, player.TogglePlay(ctx))
	require.Len(t, paused, 1)
	assert.Equal(t, "B", paused[0].Name)
}

func TestPlayerService_NextAfterCurrentSongDeleted(t *testing.T) {
	player, library, _, _ := newTestPlayer(t, "A", "B", "C")
	ctx := context.Background()

	require.NoError(t, player.PlayAt(ctx, 1))
	songs := library.Songs()
	require.NoError(t, library.DeleteSong(ctx, songs[1].ID))

	// The engine re-anchors on the shifted collection instead of failing.
	require.NoError(t, player.Next(ctx))
	state := player.State()
	assert.True(t, state.IsPlaying)
	assert.Contains(t, []int{0, 1}, state.CurrentIndex)
}
