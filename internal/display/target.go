package display

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/animation"
	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/slideplayer"
)

// BlankSlide is reported as the current slide name of an empty target
const BlankSlide = "blank"

// Transition is a running handoff between two slides
type Transition struct {
	Type     string
	From     string
	To       string
	Duration float64
	Easing   string
	Elapsed  float64
}

// Progress returns the eased progress of the transition
func (tr Transition) Progress() float64 {
	return animation.Progress(tr.Easing, tr.Elapsed, tr.Duration)
}

// Target is a display surface with its stack of slides
type Target struct {
	name    string
	width   int
	height  int
	display *Display

	slides     map[string]*Slide
	current    *Slide
	transition *Transition

	// owner is the slide whose slide_frame widget created the target
	owner *Slide
}

func (t *Target) Name() string { return t.name }

// Frame reports whether the target is a slide frame on another slide
func (t *Target) Frame() bool {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	return t.owner != nil
}

// Size returns the target's width and height in pixels
func (t *Target) Size() (int, int) { return t.width, t.height }

// ShowSlide shows a slide that is already on the target, or creates it from
// the slides: section. Settings from the slide_player entry override the
// definition.
func (t *Target) ShowSlide(ctx context.Context, name string, mode *slideplayer.Mode, settings map[string]any) error {
	d := t.display
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := t.slides[name]; ok {
		t.applyLocked(existing, settings)
		return nil
	}

	def, ok := d.definitions[name]
	if !ok {
		return fmt.Errorf("%w: %s", slideplayer.ErrUnknownSlide, name)
	}

	merged := configspec.CopyMap(def)
	for k, v := range settings {
		if v == nil {
			if _, inDef := merged[k]; inDef {
				continue
			}
		}
		merged[k] = v
	}
	return t.addLocked(name, mode, merged)
}

// AddAndShowSlide builds a new slide from the widgets in settings, replacing
// any slide with the same name on this target
func (t *Target) AddAndShowSlide(ctx context.Context, name string, mode *slideplayer.Mode, settings map[string]any) error {
	d := t.display
	d.mu.Lock()
	defer d.mu.Unlock()
	return t.addLocked(name, mode, settings)
}

// RemoveSlide removes a slide. Removing a slide that is not on the target
// is not an error.
func (t *Target) RemoveSlide(ctx context.Context, name string, mode *slideplayer.Mode, settings map[string]any) error {
	d := t.display
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := t.slides[name]; !ok {
		d.logger.Debug("slide to remove is not on target", zap.String("slide", name), zap.String("target", t.name))
		return nil
	}
	var transition map[string]any
	if settings != nil {
		transition, _ = configspec.AsMap(settings["transition"])
	}
	t.removeLocked(name, transition)
	return nil
}

// CurrentSlide returns the slide being shown, or nil
func (t *Target) CurrentSlide() *Slide {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	return t.current
}

// CurrentSlideName returns the name of the slide being shown
func (t *Target) CurrentSlideName() string {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	if t.current == nil {
		return BlankSlide
	}
	return t.current.Name
}

// Slide returns a slide on the target by name, or nil
func (t *Target) Slide(name string) *Slide {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	return t.slides[name]
}

// Transition returns the running transition, if any
func (t *Target) Transition() (Transition, bool) {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	if t.transition == nil {
		return Transition{}, false
	}
	return *t.transition, true
}

func (t *Target) addLocked(name string, mode *slideplayer.Mode, settings map[string]any) error {
	d := t.display

	widgetList, _ := configspec.AsList(settings["widgets"])
	widgets, err := d.buildWidgets(widgetList)
	if err != nil {
		return fmt.Errorf("slide %s: %w", name, err)
	}

	old := t.slides[name]
	frames, err := d.claimFramesLocked(widgets, old)
	if err != nil {
		return fmt.Errorf("slide %s: %w", name, err)
	}
	if old != nil {
		d.unregisterControlEvents(old)
		d.releaseFramesLocked(old, frames)
	}

	s := &Slide{
		Name:    name,
		Widgets: widgets,
		Params:  make(map[string]any),
		seq:     d.nextSeq(),
		frames:  frames,
	}
	for _, f := range frames {
		f.owner = s
	}
	if mode != nil {
		s.Mode = mode.Name
	}
	t.slides[name] = s
	d.registerControlEvents(s)
	d.registerAnimationEvents(s)
	d.animateLocked(s, AddToSlideEvent)

	t.applyLocked(s, settings)
	return nil
}

// applyLocked applies the slide_player settings to a slide on the target
// and decides whether it becomes the current slide
func (t *Target) applyLocked(s *Slide, settings map[string]any) {
	d := t.display

	if p, ok := settings["priority"].(int); ok {
		s.Priority = p
	}
	if bg, ok := settings["background_color"].(string); ok {
		s.BackgroundColor = bg
	}
	if exp, ok := settings["expire"].(float64); ok && exp > 0 {
		s.expireAt = d.clock + exp
	}
	s.transOut, _ = configspec.AsMap(settings["transition_out"])
	for k, v := range settings {
		if !isSlideSetting(k) {
			s.Params[k] = v
		}
	}
	d.renderTextLocked(s)
	s.seq = d.nextSeq()

	show := true
	if b, ok := settings["show"].(bool); ok {
		show = b
	}
	force, _ := settings["force"].(bool)
	if !show {
		return
	}

	if force || t.current == nil || t.current == s || s.Priority >= t.current.Priority {
		transition, _ := configspec.AsMap(settings["transition"])
		t.setCurrentLocked(s, transition)
	}
}

func (t *Target) setCurrentLocked(s *Slide, transition map[string]any) {
	from := BlankSlide
	if t.current != nil {
		from = t.current.Name
	}
	t.current = s

	to := BlankSlide
	if s != nil {
		to = s.Name
	}
	t.transition = newTransition(transition, from, to)
	if s != nil {
		t.display.animateLocked(s, ShowSlideEvent)
	}

	t.display.logger.Debug("current slide changed",
		zap.String("target", t.name),
		zap.String("from", from),
		zap.String("to", to))
}

func (t *Target) removeLocked(name string, transition map[string]any) {
	s, ok := t.slides[name]
	if !ok {
		return
	}
	delete(t.slides, name)
	t.display.unregisterControlEvents(s)
	t.display.releaseFramesLocked(s, nil)

	if t.current != s {
		return
	}
	if transition == nil {
		transition = s.transOut
	}

	var next *Slide
	for _, candidate := range t.slides {
		if next == nil || candidate.Priority > next.Priority ||
			(candidate.Priority == next.Priority && candidate.seq > next.seq) {
			next = candidate
		}
	}
	t.setCurrentLocked(next, transition)
}

func (t *Target) advanceLocked(dt float64) {
	d := t.display

	for _, s := range t.slides {
		for _, w := range s.Widgets {
			if w.Video != nil {
				w.Video.Advance(dt)
			}
			w.advanceAnimation(dt)
		}
		kept := s.Widgets[:0]
		for _, w := range s.Widgets {
			if w.expireAt > 0 && w.expireAt <= d.clock {
				continue
			}
			kept = append(kept, w)
		}
		s.Widgets = kept
	}

	if t.transition != nil {
		t.transition.Elapsed += dt
		if t.transition.Elapsed >= t.transition.Duration {
			t.transition = nil
		}
	}

	for name, s := range t.slides {
		if s.expireAt > 0 && s.expireAt <= d.clock {
			d.logger.Debug("slide expired", zap.String("slide", name), zap.String("target", t.name))
			t.removeLocked(name, nil)
		}
	}
}

func newTransition(settings map[string]any, from, to string) *Transition {
	if settings == nil {
		return nil
	}
	tr := &Transition{From: from, To: to, Easing: "linear"}
	tr.Type, _ = settings["type"].(string)
	if tr.Type == "" || tr.Type == "none" {
		return nil
	}
	if dur, ok := settings["duration"].(float64); ok {
		tr.Duration = dur
	}
	if e, ok := settings["easing"].(string); ok {
		tr.Easing = e
	}
	return tr
}

func isSlideSetting(key string) bool {
	switch key {
	case "slide", "target", "priority", "show", "force", "expire", "action",
		"background_color", "widgets", "transition", "transition_out":
		return true
	}
	return false
}
