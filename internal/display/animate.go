package display

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/animation"
	"github.com/ivlev/mcslides/internal/configspec"
)

// Animation events the display raises itself. Any other event name in a
// widget's animations: section is listened for on the bus.
const (
	AddToSlideEvent = "add_to_slide"
	ShowSlideEvent  = "show_slide"
)

type runningAnimation struct {
	timeline *animation.Timeline
	elapsed  float64
	repeat   bool
}

// DefineAnimations stores the normalized animations: section that
// named_animation steps refer to
func (d *Display) DefineAnimations(named map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.animations = configspec.CopyMap(named)
}

// Property returns the current value of a numeric widget property
func (w *Widget) Property(name string) (float64, bool) {
	v, ok := w.props[name]
	return v, ok
}

// Animating reports whether an animation is running on the widget
func (w *Widget) Animating() bool {
	return w.anim != nil
}

func initialProps(settings map[string]any) map[string]float64 {
	props := make(map[string]float64)
	for k, v := range settings {
		switch n := v.(type) {
		case int:
			props[k] = float64(n)
		case float64:
			props[k] = n
		}
	}
	return props
}

// steps expands the animation steps of a widget for event, resolving named
// animations
func (d *Display) steps(w *Widget, event string) ([]animation.Step, bool) {
	raw, ok := configspec.AsList(w.Animations[event])
	if !ok {
		return nil, false
	}

	var out []animation.Step
	repeat := false
	for _, item := range raw {
		sm, ok := configspec.AsMap(item)
		if !ok {
			continue
		}
		expanded := []any{sm}
		if name, ok := sm["named_animation"].(string); ok {
			list, found := configspec.AsList(d.animations[name])
			if !found {
				d.logger.Warn("unknown named animation", zap.String("animation", name))
				continue
			}
			expanded = list
		}
		for _, e := range expanded {
			em, ok := configspec.AsMap(e)
			if !ok {
				continue
			}
			step, r := toStep(em)
			out = append(out, step)
			repeat = repeat || r
		}
	}
	return out, repeat
}

func toStep(settings map[string]any) (animation.Step, bool) {
	step := animation.Step{Targets: make(map[string]float64), Easing: "linear"}
	props, _ := configspec.AsList(settings["property"])
	values, _ := configspec.AsList(settings["value"])
	for i, p := range props {
		name, ok := p.(string)
		if !ok || i >= len(values) {
			continue
		}
		// non-numeric values such as colors are not interpolated
		if f, err := strconv.ParseFloat(fmtValue(values[i]), 64); err == nil {
			step.Targets[name] = f
		}
	}
	step.Relative, _ = settings["relative"].(bool)
	step.Duration, _ = settings["duration"].(float64)
	if e, ok := settings["easing"].(string); ok {
		step.Easing = e
	}
	step.WithPrevious = settings["timing"] == "with_previous"
	repeat, _ := settings["repeat"].(bool)
	return step, repeat
}

func fmtValue(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// animateLocked starts the animations a widget has for event, replacing any
// running one
func (d *Display) animateLocked(s *Slide, event string) {
	for _, w := range s.Widgets {
		steps, repeat := d.steps(w, event)
		if len(steps) == 0 {
			continue
		}
		w.anim = &runningAnimation{
			timeline: animation.NewTimeline(w.props, steps),
			repeat:   repeat,
		}
		d.logger.Debug("animation started",
			zap.String("slide", s.Name),
			zap.String("widget", w.Key),
			zap.String("event", event))
	}
}

// registerAnimationEvents listens on the bus for the custom animation
// events of the slide's widgets
func (d *Display) registerAnimationEvents(s *Slide) {
	seen := make(map[string]bool)
	for _, w := range s.Widgets {
		for event := range w.Animations {
			if event == AddToSlideEvent || event == ShowSlideEvent || seen[event] {
				continue
			}
			seen[event] = true
			ev := event
			key := d.bus.Add(ev, func(ctx context.Context, kwargs map[string]any) error {
				d.mu.Lock()
				defer d.mu.Unlock()
				d.animateLocked(s, ev)
				return nil
			})
			s.handlerKeys = append(s.handlerKeys, key)
		}
	}
}

func (w *Widget) advanceAnimation(dt float64) {
	a := w.anim
	if a == nil {
		return
	}
	a.elapsed += dt
	length := a.timeline.Length()
	if a.repeat && length > 0 {
		for a.elapsed >= length {
			a.elapsed -= length
		}
	}
	for k, v := range a.timeline.Values(a.elapsed) {
		w.props[k] = v
	}
	if !a.repeat && a.elapsed >= length {
		w.anim = nil
	}
}
