package machine

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ivlev/mcslides/internal/slideplayer"
	"github.com/ivlev/mcslides/internal/video"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const machineYAML = `
displays:
  window:
    width: 400
    height: 300
videos:
  mpf_video_small_test:
    duration: 7.96
  intro:
    file: intro_v2.mp4
sound_system:
  buffer: 1000
  channels: 2
animations:
  pulse:
    - property: opacity
      value: 0
      duration: 100ms
    - property: opacity
      value: 1
      duration: 100ms
widgets:
  score_widget:
    type: text
    text: "00"
slides:
  attract:
    - type: text
      text: PRESS START
      animations:
        show_slide: pulse
    - type: image
      image: logo
slide_player:
  init_done: attract
  play_intro:
    intro_slide:
      type: video
      video: intro
      control_events:
        - event: stop_intro
          action: stop
`

const modeYAML = `
mode:
  priority: 300
  start_events: ball_started
  stop_events: ball_ended
slides:
  mode1_slide:
    widgets:
      - type: text
        text: MODE 1
slide_player:
  mode1_show: mode1_slide
  mode_event:
    mode_widget_slide:
      type: text
      text: FROM EVENT
`

type fakeProber struct{ durations map[string]float64 }

func (f fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	return f.durations[filepath.Base(path)], nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeMachine(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), machineYAML)
	writeFile(t, filepath.Join(dir, "modes", "mode1", "config", "mode1.yaml"), modeYAML)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "modes", "no_config"), 0o755))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	f, err := os.Create(filepath.Join(dir, "images", "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 64, 16))))
	require.NoError(t, f.Close())
	return dir
}

func load(t *testing.T, dir string, opts Options) *Machine {
	t.Helper()
	opts.Path = dir
	if opts.Prober == nil {
		opts.Prober = fakeProber{durations: map[string]float64{"intro_v2.mp4": 12.5}}
	}
	opts.Logger = zaptest.NewLogger(t)
	m, err := Load(context.Background(), opts)
	require.NoError(t, err)
	return m
}

func TestLoadMachine(t *testing.T) {
	m := load(t, writeMachine(t), Options{Workers: 2, CheckAssets: true})

	assert.Equal(t, []string{"mode1"}, m.Modes())
	assert.Equal(t, []string{"default", "window"}, m.Display.TargetNames())
	w, h := m.Display.TargetByName("default").Size()
	assert.Equal(t, 400, w, "a lone display becomes the default target")
	assert.Equal(t, 300, h)

	intro, err := m.Videos.Get("intro")
	require.NoError(t, err)
	assert.Equal(t, 12.5, intro.Duration, "missing durations are probed")
	assert.Equal(t, "intro_v2.mp4", filepath.Base(intro.File))

	assert.Equal(t, 2048, m.Audio.BufferSamples)
	assert.Equal(t, 2, m.Audio.AudioChannels)

	assert.Len(t, m.Animations["pulse"], 2)
	assert.Contains(t, m.Widgets, "score_widget")
	assert.True(t, m.Display.HasSlide("attract"))
	assert.True(t, m.Display.HasSlide("mode1_slide"))

	mode, ok := m.Mode("mode1")
	require.True(t, ok)
	assert.Equal(t, 300, mode.Priority)
	assert.Equal(t, []string{"ball_started"}, mode.StartEvents)
	assert.Contains(t, mode.SlidePlayer, "mode_event")

	norm := m.Normalized()
	assert.Contains(t, norm["modes"], "mode1")
	assert.Equal(t, 2048, norm["sound_system"].(map[string]any)["buffer_samples"])
	require.NoError(t, slideplayer.EncodeConfig(io.Discard, norm))
}

func TestModesAndEvents(t *testing.T) {
	m := load(t, writeMachine(t), Options{})
	ctx := context.Background()
	target := m.Display.TargetByName("default")

	require.NoError(t, m.Post(ctx, "init_done", nil))
	assert.Equal(t, "attract", target.CurrentSlideName())

	// mode entries are not registered until the mode runs
	require.NoError(t, m.Post(ctx, "mode1_show", nil))
	assert.Equal(t, "attract", target.CurrentSlideName())

	require.NoError(t, m.Post(ctx, "ball_started", nil))
	assert.Equal(t, []string{"mode1"}, m.ActiveModes())
	require.NoError(t, m.StartMode(ctx, "mode1"), "starting a running mode is a no-op")

	require.NoError(t, m.Post(ctx, "mode_event", map[string]any{"player": 1}))
	assert.Equal(t, "mode_widget_slide", target.CurrentSlideName())
	assert.Equal(t, 300, target.CurrentSlide().Priority)
	assert.Equal(t, 1, target.CurrentSlide().Params["player"])

	require.NoError(t, m.Post(ctx, "ball_ended", nil))
	assert.Empty(t, m.ActiveModes())
	assert.Equal(t, "attract", target.CurrentSlideName(), "mode slides go away with the mode")

	assert.ErrorIs(t, m.StartMode(ctx, "nope"), ErrUnknownMode)
	assert.ErrorIs(t, m.StopMode(ctx, "nope"), ErrUnknownMode)
}

func TestVideoSlideControlEvents(t *testing.T) {
	m := load(t, writeMachine(t), Options{})
	ctx := context.Background()

	require.NoError(t, m.Post(ctx, "play_intro", nil))
	slide := m.Display.TargetByName("default").CurrentSlide()
	require.NotNil(t, slide)
	player := slide.WidgetsOfType("video")[0].Video
	assert.Equal(t, video.StatePlaying, player.State())

	m.Display.Advance(2)
	require.NoError(t, m.Post(ctx, "stop_intro", nil))
	assert.Equal(t, video.StateStopped, player.State())
	assert.Zero(t, player.Position())
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown mode", func(t *testing.T) {
		_, err := Load(ctx, Options{Path: writeMachine(t), Modes: []string{"mode9"}})
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(ctx, Options{Path: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("unknown named animation", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
slides:
  s:
    - type: text
      text: HI
      animations:
        show_slide: wobble
`)
		_, err := Load(ctx, Options{Path: dir})
		assert.ErrorContains(t, err, "wobble")
	})

	t.Run("unknown video", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
slide_player:
  e:
    s:
      type: video
      video: missing
`)
		_, err := Load(ctx, Options{Path: dir})
		assert.ErrorContains(t, err, "missing")
	})

	t.Run("missing image with asset checks", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
slides:
  s:
    - type: image
      image: nowhere
`)
		_, err := Load(ctx, Options{Path: dir, CheckAssets: true})
		assert.ErrorContains(t, err, "nowhere")

		_, err = Load(ctx, Options{Path: dir})
		assert.NoError(t, err, "images are only checked on request")
	})

	t.Run("bad slide_player entry", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
slide_player:
  e:
    s:
      transition:
        direction: left
`)
		_, err := Load(ctx, Options{Path: dir})
		assert.ErrorIs(t, err, slideplayer.ErrMissingTransitionType)
	})
}

func TestMachineFilesMergeInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
displays:
  dmd:
    width: 128
    height: 32
slide_player:
  a: slide_a
`)
	writeFile(t, filepath.Join(dir, "config", "local.yaml"), `
displays:
  dmd:
    height: 64
slide_player:
  b: slide_b
`)
	m := load(t, dir, Options{ConfigFiles: []string{"config.yaml", "local.yaml"}})

	w, h := m.Display.TargetByName("dmd").Size()
	assert.Equal(t, 128, w)
	assert.Equal(t, 64, h)
	assert.Equal(t, []string{"a", "b"}, m.Player.Events())
}

func TestDefaultDisplayAndSlideOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), `
displays:
  default:
    width: 1024
    height: 768
slides:
  host:
    - type: slide_frame
      name: inset
      width: 320
      height: 240
slide_player:
  show_both:
    zeta:
      - type: text
        text: Z
    alpha:
      - type: text
        text: A
  show_host: host
`)
	writeFile(t, filepath.Join(dir, "modes", "framed", "config", "framed.yaml"), `
mode:
  priority: 100
  target: inset
slide_player:
  framed_event:
    framed_slide:
      type: text
      text: IN THE FRAME
`)
	m := load(t, dir, Options{})
	ctx := context.Background()

	assert.Equal(t, []string{"default"}, m.Display.TargetNames())
	w, h := m.Display.TargetByName("default").Size()
	assert.Equal(t, 1024, w, "a display named default sets the default size")
	assert.Equal(t, 768, h)

	target := m.Display.TargetByName("default")
	require.NoError(t, m.Post(ctx, "show_both", nil))
	assert.Equal(t, "alpha", target.CurrentSlideName(), "slides of one entry play in the order written")

	require.NoError(t, m.Post(ctx, "show_host", nil))
	require.NoError(t, m.StartMode(ctx, "framed"))
	require.NoError(t, m.Post(ctx, "framed_event", nil))
	frame := m.Display.TargetByName("inset")
	require.NotNil(t, frame)
	assert.Equal(t, "framed_slide", frame.CurrentSlideName())
	require.NoError(t, m.StopMode(ctx, "framed"))
}
