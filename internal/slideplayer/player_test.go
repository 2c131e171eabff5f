package slideplayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type call struct {
	method   string
	target   string
	slide    string
	mode     string
	settings map[string]any
}

type recordingTarget struct {
	name  string
	calls *[]call
}

func (r recordingTarget) record(method, slide string, mode *Mode, settings map[string]any) error {
	c := call{method: method, target: r.name, slide: slide, settings: settings}
	if mode != nil {
		c.mode = mode.Name
	}
	*r.calls = append(*r.calls, c)
	return nil
}

func (r recordingTarget) ShowSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error {
	return r.record("show", name, mode, settings)
}

func (r recordingTarget) AddAndShowSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error {
	return r.record("add", name, mode, settings)
}

func (r recordingTarget) RemoveSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error {
	return r.record("remove", name, mode, settings)
}

type recordingTargets struct {
	calls   []call
	targets map[string]bool
}

func newRecordingTargets(names ...string) *recordingTargets {
	r := &recordingTargets{targets: make(map[string]bool)}
	for _, n := range names {
		r.targets[n] = true
	}
	return r
}

func (r *recordingTargets) Target(name string) (Target, bool) {
	if !r.targets[name] {
		return nil, false
	}
	return recordingTarget{name: name, calls: &r.calls}, true
}

func TestPlayShowsNamedSlideAndAddsWidgetSlides(t *testing.T) {
	targets := newRecordingTargets("default", "dmd")
	p := New(targets, nil, nil)

	validated, err := p.ValidateConfig(loadYAML(t, slidePlayerYAML))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Play(ctx, validated["some_event3"].(map[string]any), PlayOptions{}))
	require.NoError(t, p.Play(ctx, validated["some_event5"].(map[string]any), PlayOptions{}))

	require.Len(t, targets.calls, 2)
	assert.Equal(t, "show", targets.calls[0].method)
	assert.Equal(t, "slide3", targets.calls[0].slide)
	assert.Equal(t, "default", targets.calls[0].target)
	assert.NotContains(t, targets.calls[0].settings, "target", "target is consumed")

	assert.Equal(t, "add", targets.calls[1].method)
	assert.Equal(t, "slide5", targets.calls[1].slide)
}

func TestPlayPriorityAndKwargs(t *testing.T) {
	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)

	settings := map[string]any{
		"slides": map[string]any{
			"score": map[string]any{"priority": 5},
		},
		"play_kwargs": map[string]any{"show": false},
	}
	err := p.Play(context.Background(), settings, PlayOptions{
		Priority: 200,
		Kwargs:   map[string]any{"player": 1},
	})
	require.NoError(t, err)

	require.Len(t, targets.calls, 1)
	got := targets.calls[0].settings
	assert.Equal(t, 205, got["priority"])
	assert.Equal(t, false, got["show"])
	assert.Equal(t, 1, got["player"])

	// the caller's settings are not modified
	assert.Equal(t, 5, settings["slides"].(map[string]any)["score"].(map[string]any)["priority"])
	assert.Contains(t, settings, "play_kwargs")
}

func TestPlayKeepsWrittenSlideOrder(t *testing.T) {
	const doc = `
show_both:
  zeta:
    - type: text
      text: Z
  alpha:
    - type: text
      text: A
  mid:
`
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))

	order := ReadOrder(&node)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, order["show_both"])

	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)
	validated, err := p.ValidateOrderedConfig(loadYAML(t, doc), order)
	require.NoError(t, err)
	require.NoError(t, p.Play(context.Background(), validated["show_both"].(map[string]any), PlayOptions{}))

	var played []string
	for _, c := range targets.calls {
		played = append(played, c.slide)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, played)

	// without a recorded order the slides play by name
	targets.calls = nil
	validated, err = p.ValidateConfig(loadYAML(t, doc))
	require.NoError(t, err)
	require.NoError(t, p.Play(context.Background(), validated["show_both"].(map[string]any), PlayOptions{}))
	require.Len(t, targets.calls, 3)
	assert.Equal(t, "alpha", targets.calls[0].slide)
}

func TestOrderMerge(t *testing.T) {
	base := Order{"e": {"b", "a"}, "f": {"x"}}
	merged := base.Merge(Order{"e": {"c", "a"}, "g": {"y"}})

	assert.Equal(t, []string{"b", "a", "c"}, merged["e"])
	assert.Equal(t, []string{"x"}, merged["f"])
	assert.Equal(t, []string{"y"}, merged["g"])
	assert.Equal(t, []string{"b", "a"}, base["e"], "merge does not modify the receiver")
}

func TestPlayMissingPriorityIsSet(t *testing.T) {
	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)

	require.NoError(t, p.Play(context.Background(), map[string]any{"s": map[string]any{"priority": nil}}, PlayOptions{Priority: 7}))
	assert.Equal(t, 7, targets.calls[0].settings["priority"])
}

func TestPlayTargetResolution(t *testing.T) {
	targets := newRecordingTargets("default", "dmd", "window")
	p := New(targets, nil, nil)
	ctx := context.Background()

	modeTarget, _ := targets.Target("window")
	mode := &Mode{Name: "mode2", Priority: 100, Target: modeTarget}

	tests := []struct {
		name     string
		target   any
		mode     *Mode
		expected string
	}{
		{"explicit target", "dmd", nil, "dmd"},
		{"explicit target wins over mode", "dmd", mode, "dmd"},
		{"unknown target falls back to mode", "playfield", mode, "window"},
		{"mode target", nil, mode, "window"},
		{"default target", nil, nil, "default"},
		{"unknown target falls back to default", "playfield", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets.calls = nil
			err := p.Play(ctx, map[string]any{"s": map[string]any{"target": tt.target}}, PlayOptions{Mode: tt.mode})
			require.NoError(t, err)
			require.Len(t, targets.calls, 1)
			assert.Equal(t, tt.expected, targets.calls[0].target)
		})
	}
}

func TestPlayWithoutDefaultTarget(t *testing.T) {
	p := New(newRecordingTargets("dmd"), nil, nil)
	err := p.Play(context.Background(), map[string]any{"s": map[string]any{}}, PlayOptions{})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestPlayRemoveAction(t *testing.T) {
	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)

	validated, err := p.ValidateConfig(map[string]any{
		"remove_slide_mode2_frame": map[string]any{"slide_mode2_frame": map[string]any{"action": "remove"}},
	})
	require.NoError(t, err)

	require.NoError(t, p.Play(context.Background(), validated["remove_slide_mode2_frame"].(map[string]any), PlayOptions{}))
	require.Len(t, targets.calls, 1)
	assert.Equal(t, "remove", targets.calls[0].method)
	assert.Equal(t, "slide_mode2_frame", targets.calls[0].slide)
}

func TestPlaySlideSettingRenamesSlide(t *testing.T) {
	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)

	require.NoError(t, p.Play(context.Background(), map[string]any{"entry": map[string]any{"slide": "attract"}}, PlayOptions{}))
	assert.Equal(t, "attract", targets.calls[0].slide)
}

func TestHandleEventRegisterUnregister(t *testing.T) {
	targets := newRecordingTargets("default")
	p := New(targets, nil, nil)
	ctx := context.Background()

	machineWide, err := p.ValidateConfig(map[string]any{"ball_started": "base"})
	require.NoError(t, err)
	modeCfg, err := p.ValidateConfig(map[string]any{"ball_started": "mode_overlay"})
	require.NoError(t, err)

	mode := &Mode{Name: "mode1", Priority: 300}
	p.Register(nil, machineWide)
	p.Register(mode, modeCfg)
	assert.Equal(t, []string{"ball_started"}, p.Events())

	found, err := p.HandleEvent(ctx, "ball_started", nil)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, targets.calls, 2)
	assert.Equal(t, 0, targets.calls[0].settings["priority"])
	assert.Equal(t, 300, targets.calls[1].settings["priority"])
	assert.Equal(t, "mode1", targets.calls[1].mode)

	p.Unregister(mode)
	targets.calls = nil
	_, err = p.HandleEvent(ctx, "ball_started", nil)
	require.NoError(t, err)
	require.Len(t, targets.calls, 1)
	assert.Equal(t, "base", targets.calls[0].slide)

	found, err = p.HandleEvent(ctx, "nothing_here", nil)
	require.NoError(t, err)
	assert.False(t, found)
}
