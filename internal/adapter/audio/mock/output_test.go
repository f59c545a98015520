package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonata-music/sonata/internal/domain"
)

func TestOutput_Lifecycle(t *testing.T) {
	output := NewOutput()
	song := domain.Song{ID: "s1", Name: "Track"}

	require.NoError(t, output.Load(song))
	require.NotNil(t, output.Loaded())
	assert.Equal(t, "s1", output.Loaded().ID)
	assert.Equal(t, 1, output.LoadCount())

	require.NoError(t, output.Play())
	assert.True(t, output.IsPlaying())

	require.NoError(t, output.Pause())
	assert.False(t, output.IsPlaying())

	require.NoError(t, output.Stop())
	assert.Nil(t, output.Loaded())
}

func TestOutput_FailureInjection(t *testing.T) {
	output := NewOutput()

	output.SetFailLoad(true)
	assert.Error(t, output.Load(domain.Song{ID: "s"}))

	output.SetFailLoad(false)
	require.NoError(t, output.Load(domain.Song{ID: "s"}))

	output.SetFailPlay(true)
	assert.Error(t, output.Play())
}

func TestOutput_EmitEnded(t *testing.T) {
	output := NewOutput()

	var ended int
	output.OnEnded(func() { ended++ })

	require.NoError(t, output.Load(domain.Song{ID: "s"}))
	require.NoError(t, output.Play())
	output.EmitEnded()

	assert.Equal(t, 1, ended)
}
