package slideplayer

import (
	"fmt"
	"sort"

	"github.com/ivlev/mcslides/internal/configspec"
)

// ExpressConfig expands the shorthand form of a slide_player entry. A list
// is a set of widgets to put on a new slide; anything else names a slide.
func ExpressConfig(value any) map[string]any {
	if list, ok := configspec.AsList(value); ok {
		return map[string]any{"widgets": list}
	}
	return map[string]any{"slide": value}
}

// ValidateConfig validates the slide_player: section of a machine or mode
// config. Keys are event names; the result maps each event to
// {slides: {<slide name>: <validated settings>}}.
//
// Entries may be written as:
//
//	some_event: slide_name
//	some_event: [<widget>, <widget>]
//	some_event:
//	  slide_name:
//	    target: dmd
//	    transition: fade
//	some_event:
//	  slide_name:
//	    type: text           # a single widget
//	    text: SOME TEXT
//	some_event:
//	  slide_name: [<widget>, <widget>]
//
// Slides of one event are played in name order. Use ValidateOrderedConfig
// to keep the order they were written in.
func (p *Player) ValidateConfig(cfg map[string]any) (map[string]any, error) {
	return p.ValidateOrderedConfig(cfg, nil)
}

// ValidateOrderedConfig is ValidateConfig for a section whose slide order
// was read with ReadOrder. Entries with more than one slide record the order
// under OrderKey.
func (p *Player) ValidateOrderedConfig(cfg map[string]any, order Order) (map[string]any, error) {
	validated := make(map[string]any, len(cfg))

	for _, event := range sortedMapKeys(cfg) {
		raw := cfg[event]

		var slides map[string]any
		switch v := raw.(type) {
		case nil:
			return nil, fmt.Errorf("slide_player:%s: entry is empty", event)
		case string:
			slides = map[string]any{v: map[string]any{}}
		default:
			if m, ok := configspec.AsMap(v); ok {
				slides = m
			} else if _, ok := configspec.AsList(v); ok {
				slides = map[string]any{event: ExpressConfig(v)}
			} else {
				slides = map[string]any{fmt.Sprint(v): map[string]any{}}
			}
		}

		names := slideOrder(slides, order[event])
		out := make(map[string]any, len(slides))
		for _, slide := range names {
			s, err := p.ValidateShowConfig(slide, slides[slide])
			if err != nil {
				return nil, fmt.Errorf("slide_player:%s: %w", event, err)
			}
			for k, v := range s {
				out[k] = v
			}
		}

		entry := map[string]any{"slides": out}
		if len(names) > 1 {
			list := make([]any, len(names))
			for i, n := range names {
				list[i] = n
			}
			entry[OrderKey] = list
		}
		validated[event] = entry
	}
	return validated, nil
}

// ValidateShowConfig validates the settings of one slide, as found in a
// slide_player entry or the slides: section of a show, and returns
// {slide: validated}
func (p *Player) ValidateShowConfig(slide string, settings any) (map[string]any, error) {
	validated, err := p.normalizeSlide("slide_player", slide, settings)
	if err != nil {
		return nil, err
	}
	return map[string]any{slide: validated}, nil
}

// ProcessSlides validates the machine-wide slides: section, where each name
// maps to a widget list or to slide settings with a widgets: entry
func (p *Player) ProcessSlides(section map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(section))
	for _, name := range sortedMapKeys(section) {
		validated, err := p.normalizeSlide("slides", name, section[name])
		if err != nil {
			return nil, fmt.Errorf("slides: %w", err)
		}
		out[name] = validated
	}
	return out, nil
}

func (p *Player) normalizeSlide(section, slide string, raw any) (map[string]any, error) {
	settings, err := p.sniffSettings(section, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", slide, err)
	}

	validated, err := p.validator.ValidateConfig(section, settings, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", slide, err)
	}

	for _, key := range []string{"transition", "transition_out"} {
		t, ok := validated[key]
		if !ok || t == nil {
			continue
		}
		tr, err := p.validateTransition(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", slide, key, err)
		}
		validated[key] = tr
	}

	if w, ok := validated["widgets"]; ok && w != nil {
		list, err := p.widgets.ProcessConfig(w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", slide, err)
		}
		validated["widgets"] = list
	}
	return validated, nil
}

// sniffSettings decides whether raw holds slide settings or widget
// settings. A list is widgets. A map with any key that is not a valid
// setting of section is the settings of a single widget.
func (p *Player) sniffSettings(section string, raw any) (map[string]any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	if list, ok := configspec.AsList(raw); ok {
		return map[string]any{"widgets": list}, nil
	}

	m, ok := configspec.AsMap(raw)
	if !ok {
		return nil, fmt.Errorf("expected slide settings or widgets, got %T", raw)
	}
	for key := range m {
		if !p.validator.IsValidKey(section, key) {
			return map[string]any{"widgets": []any{m}}, nil
		}
	}
	return configspec.CopyMap(m), nil
}

func (p *Player) validateTransition(raw any) (map[string]any, error) {
	settings, ok := configspec.AsMap(raw)
	if !ok {
		settings = map[string]any{"type": raw}
	}

	t, ok := settings["type"]
	if !ok || t == nil {
		return nil, ErrMissingTransitionType
	}
	name := fmt.Sprint(t)
	if !p.validator.Has("transitions:" + name) {
		return nil, fmt.Errorf("unknown transition type %q", name)
	}
	return p.validator.ValidateConfig("transitions:"+name, settings, "")
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
