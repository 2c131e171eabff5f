package display

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/events"
	"github.com/ivlev/mcslides/internal/video"
)

// Slide is a slide placed on a target
type Slide struct {
	Name            string
	Mode            string
	Priority        int
	BackgroundColor string

	// Widgets are in drawing order from the top down
	Widgets []*Widget

	// Params are the event parameters the slide was played with
	Params map[string]any

	seq         int
	expireAt    float64
	transOut    map[string]any
	handlerKeys []events.Key
	frames      []*Target
}

// Widget is a widget instance on a slide
type Widget struct {
	Type     string
	Key      string
	Z        int
	Settings map[string]any

	// Video is set for video widgets
	Video *video.Player

	// Frame is the target a slide_frame widget shows
	Frame *Target

	// Animations are the widget's animation steps by event
	Animations map[string]any

	expireAt float64
	props    map[string]float64
	anim     *runningAnimation
	text     string
}

// Widget returns the first widget with the given key, or nil
func (s *Slide) Widget(key string) *Widget {
	for _, w := range s.Widgets {
		if w.Key == key {
			return w
		}
	}
	return nil
}

// WidgetsOfType returns the widgets of a type in drawing order
func (s *Slide) WidgetsOfType(widgetType string) []*Widget {
	var out []*Widget
	for _, w := range s.Widgets {
		if w.Type == widgetType {
			out = append(out, w)
		}
	}
	return out
}

// buildWidgets instantiates processed widget settings. Widgets with a higher
// z are drawn on top; among equal z the first listed is on top.
func (d *Display) buildWidgets(list []any) ([]*Widget, error) {
	widgets := make([]*Widget, 0, len(list))
	for i, item := range list {
		settings, ok := configspec.AsMap(item)
		if !ok {
			return nil, fmt.Errorf("widget %d: expected a map, got %T", i, item)
		}

		w := &Widget{Settings: configspec.CopyMap(settings)}
		w.Type, _ = settings["type"].(string)
		w.Key, _ = settings["key"].(string)
		w.Z, _ = settings["z"].(int)
		w.Animations, _ = configspec.AsMap(w.Settings["animations"])
		w.props = initialProps(settings)
		if exp, ok := settings["expire"].(float64); ok && exp > 0 {
			w.expireAt = d.clock + exp
		}

		if w.Type == "video" {
			p, err := d.newVideoPlayer(settings)
			if err != nil {
				return nil, fmt.Errorf("widget %d: %w", i, err)
			}
			w.Video = p
		}
		widgets = append(widgets, w)
	}

	sort.SliceStable(widgets, func(i, j int) bool {
		return widgets[i].Z > widgets[j].Z
	})
	return widgets, nil
}

func (d *Display) newVideoPlayer(settings map[string]any) (*video.Player, error) {
	name, _ := settings["video"].(string)
	asset, err := d.videos.Get(name)
	if err != nil {
		return nil, err
	}

	opts := video.Options{Volume: 1.0, AutoPlay: true, EndBehavior: video.EndLoop}
	if v, ok := settings["volume"].(float64); ok {
		opts.Volume = v
	}
	if ap, ok := settings["auto_play"].(bool); ok {
		opts.AutoPlay = ap
	}
	if eb, ok := settings["end_behavior"].(string); ok {
		b, err := video.ParseEndBehavior(eb)
		if err != nil {
			return nil, err
		}
		opts.EndBehavior = b
	}
	return video.NewPlayer(asset, opts), nil
}

// registerControlEvents hooks the control_events of the slide's video
// widgets onto the bus. The keys are kept on the slide so the handlers go
// away with it.
func (d *Display) registerControlEvents(s *Slide) {
	for _, w := range s.Widgets {
		if w.Video == nil {
			continue
		}
		list, _ := configspec.AsList(w.Settings["control_events"])
		for _, item := range list {
			ce, ok := configspec.AsMap(item)
			if !ok {
				continue
			}
			event, _ := ce["event"].(string)
			action, _ := ce["action"].(string)
			value := ce["value"]
			player := w.Video

			key := d.bus.Add(event, func(ctx context.Context, kwargs map[string]any) error {
				d.mu.Lock()
				defer d.mu.Unlock()
				return player.Apply(action, value)
			})
			s.handlerKeys = append(s.handlerKeys, key)
			d.logger.Debug("registered video control event",
				zap.String("slide", s.Name),
				zap.String("event", event),
				zap.String("action", action))
		}
	}
}

func (d *Display) unregisterControlEvents(s *Slide) {
	for _, key := range s.handlerKeys {
		d.bus.Remove(key)
	}
	s.handlerKeys = nil
}
