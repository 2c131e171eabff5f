package video

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var smallTest = Asset{Name: "mpf_video_small_test", File: "mpf_video_small_test.mp4", Duration: 7.96}

func TestPlayerPlaybackStates(t *testing.T) {
	p := NewPlayer(smallTest, Options{Volume: 1.0, AutoPlay: true})

	assert.Equal(t, "play", p.WidgetState())
	assert.InDelta(t, 0.0, p.Position(), 0.3)
	assert.Equal(t, 1.0, p.Volume())

	p.Advance(1)
	assert.Greater(t, p.Position(), 0.0)

	p.Pause()
	p.Advance(0.1)
	assert.Equal(t, StatePaused, p.State())
	pos := p.Position()
	p.Advance(0.5)
	assert.Equal(t, pos, p.Position(), "paused video must not advance")

	p.Play()
	p.Advance(1)
	assert.Equal(t, StatePlaying, p.State())
	assert.Greater(t, p.Position(), pos)

	p.Stop()
	p.Advance(1)
	assert.Equal(t, 0.0, p.Position())

	p.Play()
	p.Advance(1)
	assert.InDelta(t, 1.0, p.Position(), 0.5)

	p.Seek(.5)
	p.Advance(.1)
	assert.InDelta(t, 4.0, p.Position(), 0.5)

	p.SetVolume(.5)
	assert.Equal(t, .5, p.Volume())
	p.SetVolume(1)
	assert.Equal(t, 1.0, p.Volume())

	p.SetPosition(.5)
	p.Advance(.1)
	assert.InDelta(t, 0.6, p.Position(), 0.1)
}

func TestPlayerEndBehaviors(t *testing.T) {
	tests := []struct {
		behavior EndBehavior
		position float64
		state    State
	}{
		{EndStop, 0, StateStopped},
		{EndPause, 7.96, StatePaused},
		{EndLoop, 1.2, StatePlaying},
	}

	for _, tt := range tests {
		t.Run(string(tt.behavior), func(t *testing.T) {
			p := NewPlayer(smallTest, Options{Volume: 1})
			p.Seek(.9)
			p.Play()
			p.SetEndBehavior(tt.behavior)
			p.Advance(2)

			assert.InDelta(t, tt.position, p.Position(), 0.1)
			assert.Equal(t, tt.state, p.State())
		})
	}
}

func TestPlayerWithoutAutoPlay(t *testing.T) {
	p := NewPlayer(smallTest, Options{Volume: 0.8, EndBehavior: EndStop})
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, "stop", p.WidgetState())

	p.Advance(1)
	assert.Equal(t, 0.0, p.Position())
	assert.Equal(t, 0.8, p.Volume())
}

func TestPlayerApply(t *testing.T) {
	p := NewPlayer(smallTest, Options{Volume: 1, AutoPlay: true})

	require.NoError(t, p.Apply("seek", 0.5))
	assert.InDelta(t, 3.98, p.Position(), 1e-9)

	require.NoError(t, p.Apply("volume", 0))
	assert.Equal(t, 0.0, p.Volume())

	require.NoError(t, p.Apply("position", 4))
	assert.Equal(t, 4.0, p.Position())

	require.NoError(t, p.Apply("pause", nil))
	assert.Equal(t, StatePaused, p.State())

	assert.Error(t, p.Apply("seek", nil))
	assert.Error(t, p.Apply("rewind", nil))
}

func TestParseEndBehavior(t *testing.T) {
	b, err := ParseEndBehavior("pause")
	require.NoError(t, err)
	assert.Equal(t, EndPause, b)

	_, err = ParseEndBehavior("bounce")
	assert.Error(t, err)
}

type fakeProber map[string]float64

func (f fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	d, ok := f[path]
	if !ok {
		return 0, errors.New("no such file")
	}
	return d, nil
}

func TestRegistryLoad(t *testing.T) {
	r := NewRegistry()
	err := r.Load(context.Background(), map[string]any{
		"mpf_video_small_test": nil,
		"attract":              map[string]any{"file": "attract_loop.mkv", "duration": "12s"},
	}, nil, LoadOptions{
		Dir:    "/machine/videos",
		Prober: fakeProber{"/machine/videos/mpf_video_small_test.mp4": 7.96},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"attract", "mpf_video_small_test"}, r.Names())

	a, err := r.Get("mpf_video_small_test")
	require.NoError(t, err)
	assert.Equal(t, 7.96, a.Duration)

	a, err = r.Get("attract")
	require.NoError(t, err)
	assert.Equal(t, "/machine/videos/attract_loop.mkv", a.File)
	assert.Equal(t, 12.0, a.Duration)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownVideo)
}

func TestRegistryLoadProbeFailure(t *testing.T) {
	r := NewRegistry()
	err := r.Load(context.Background(), map[string]any{"gone": nil}, nil, LoadOptions{Prober: fakeProber{}})
	require.Error(t, err)
	assert.False(t, r.Has("gone"))
}

func TestLoopWrapsPastMultipleLengths(t *testing.T) {
	p := NewPlayer(Asset{Name: "short", Duration: 2}, Options{AutoPlay: true})
	p.Advance(5)
	assert.True(t, math.Abs(p.Position()-1) < 1e-9)
}
