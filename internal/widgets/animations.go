package widgets

import (
	"fmt"

	"github.com/ivlev/mcslides/internal/configspec"
)

// ProcessAnimations normalizes a widget's animations: section, which maps
// event names to animation steps. Every event ends up with a list of steps.
func (p *Processor) ProcessAnimations(cfg map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(cfg))

	for event, settings := range cfg {
		var steps []any
		switch s := settings.(type) {
		case string:
			// a string is a list of named animations
			for _, name := range configspec.StringToList(s) {
				steps = append(steps, name)
			}
		default:
			if m, ok := configspec.AsMap(s); ok {
				steps = []any{m}
			} else if l, ok := configspec.AsList(s); ok {
				steps = l
			} else {
				return nil, fmt.Errorf("animations:%s: unexpected %T", event, settings)
			}
		}

		list := make([]any, 0, len(steps))
		for _, step := range steps {
			a, err := p.ProcessAnimation(step)
			if err != nil {
				return nil, fmt.Errorf("animations:%s: %w", event, err)
			}
			list = append(list, a)
		}
		out[event] = list
	}
	return out, nil
}

// ProcessAnimation normalizes a single animation step. A string refers to a
// named animation; a map holds the settings of one step.
func (p *Processor) ProcessAnimation(cfg any) (map[string]any, error) {
	if name, ok := cfg.(string); ok {
		return map[string]any{"named_animation": name}, nil
	}

	m, ok := configspec.AsMap(cfg)
	if !ok {
		return nil, fmt.Errorf("expected an animation name or settings, got %T", cfg)
	}
	if _, named := m["named_animation"]; named && len(m) == 1 {
		return configspec.CopyMap(m), nil
	}

	validated, err := p.validator.ValidateConfig("widgets:animations", m, "")
	if err != nil {
		return nil, err
	}

	props, _ := validated["property"].([]any)
	values, _ := validated["value"].([]any)
	if len(props) != len(values) {
		return nil, fmt.Errorf("animation \"property\" list (%v) is not the same length as the \"value\" list (%v)", props, values)
	}
	return validated, nil
}

// ProcessNamedAnimations normalizes the machine-wide animations: section,
// where each name maps to one step or a list of steps
func (p *Processor) ProcessNamedAnimations(cfg map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(cfg))
	for name, settings := range cfg {
		var steps []any
		if m, ok := configspec.AsMap(settings); ok {
			steps = []any{m}
		} else if l, ok := configspec.AsList(settings); ok {
			steps = l
		} else {
			return nil, fmt.Errorf("animations:%s: unexpected %T", name, settings)
		}

		list := make([]any, 0, len(steps))
		for _, step := range steps {
			if _, ok := step.(string); ok {
				return nil, fmt.Errorf("animations:%s: named animations cannot reference other named animations", name)
			}
			a, err := p.ProcessAnimation(step)
			if err != nil {
				return nil, fmt.Errorf("animations:%s: %w", name, err)
			}
			list = append(list, a)
		}
		out[name] = list
	}
	return out, nil
}

// NamedAnimationRefs collects every named_animation referenced by a list of
// processed widgets
func NamedAnimationRefs(widgetList []any) []string {
	var refs []string
	for _, w := range widgetList {
		wm, ok := configspec.AsMap(w)
		if !ok {
			continue
		}
		anims, ok := configspec.AsMap(wm["animations"])
		if !ok {
			continue
		}
		for _, steps := range anims {
			list, _ := configspec.AsList(steps)
			for _, step := range list {
				sm, ok := configspec.AsMap(step)
				if !ok {
					continue
				}
				if name, ok := sm["named_animation"].(string); ok {
					refs = append(refs, name)
				}
			}
		}
	}
	return refs
}
