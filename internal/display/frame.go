package display

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrTargetExists is returned when a slide frame uses the name of a target
// that is already registered
var ErrTargetExists = errors.New("target already exists")

// claimFramesLocked creates a target for every slide_frame widget of a slide
// that is about to be added. Frames the replaced slide old already owns are
// kept with their slides and resized.
func (d *Display) claimFramesLocked(widgets []*Widget, old *Slide) ([]*Target, error) {
	seen := make(map[string]bool)
	for _, w := range widgets {
		if w.Type != "slide_frame" {
			continue
		}
		name, _ := w.Settings["name"].(string)
		if name == "" {
			return nil, errors.New("slide_frame needs a name")
		}
		if seen[name] {
			return nil, fmt.Errorf("slide frame %s: %w", name, ErrTargetExists)
		}
		seen[name] = true
		if t, ok := d.targets[name]; ok && (old == nil || t.owner != old) {
			return nil, fmt.Errorf("slide frame %s: %w", name, ErrTargetExists)
		}
	}

	var frames []*Target
	for _, w := range widgets {
		if w.Type != "slide_frame" {
			continue
		}
		name := w.Settings["name"].(string)
		width, height := toPixels(w.Settings["width"]), toPixels(w.Settings["height"])

		t, ok := d.targets[name]
		if ok {
			t.width, t.height = width, height
		} else {
			t = d.newTarget(name, width, height)
			d.targets[name] = t
			d.logger.Debug("added slide frame", zap.String("target", name), zap.Int("width", width), zap.Int("height", height))
		}
		w.Frame = t
		frames = append(frames, t)
	}
	return frames, nil
}

// releaseFramesLocked drops the frames owned by s that are not in keep,
// along with every slide shown in them
func (d *Display) releaseFramesLocked(s *Slide, keep []*Target) {
	for _, f := range s.frames {
		if f.owner != s || containsTarget(keep, f) {
			continue
		}
		for name, child := range f.slides {
			delete(f.slides, name)
			d.unregisterControlEvents(child)
			d.releaseFramesLocked(child, nil)
		}
		f.current, f.transition = nil, nil
		f.owner = nil
		if d.targets[f.name] == f {
			delete(d.targets, f.name)
		}
		d.logger.Debug("removed slide frame", zap.String("target", f.name), zap.String("slide", s.Name))
	}
	s.frames = nil
}

func containsTarget(list []*Target, t *Target) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

func toPixels(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
