// Package widgets normalizes widget and animation config into the settings
// maps consumed by the widget factory.
package widgets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/mcslides/internal/configspec"
)

var (
	// ErrMissingType is returned for widget settings without a type
	ErrMissingType = errors.New("widget config requires a \"type:\" setting")
	// ErrUnknownType is returned for widget types the schema does not know
	ErrUnknownType = errors.New("unknown widget type")
)

// Processor normalizes widget config
type Processor struct {
	validator *configspec.Validator
}

// NewProcessor creates a Processor. A nil validator uses the default schema.
func NewProcessor(v *configspec.Validator) *Processor {
	if v == nil {
		v = configspec.Default()
	}
	return &Processor{validator: v}
}

// ProcessConfig normalizes a widgets: entry. A single map is treated as a
// one-element list. Order is preserved: the first widget listed is drawn on
// top of the ones after it.
func (p *Processor) ProcessConfig(cfg any) ([]any, error) {
	var list []any
	if m, ok := configspec.AsMap(cfg); ok {
		list = []any{m}
	} else if l, ok := configspec.AsList(cfg); ok {
		list = l
	} else {
		return nil, fmt.Errorf("widgets: expected a map or a list, got %T", cfg)
	}

	out := make([]any, 0, len(list))
	for i, item := range list {
		m, ok := configspec.AsMap(item)
		if !ok {
			return nil, fmt.Errorf("widget %d: expected a map, got %T", i, item)
		}
		w, err := p.ProcessWidget(m)
		if err != nil {
			return nil, fmt.Errorf("widget %d: %w", i, err)
		}
		out = append(out, w)
	}
	return out, nil
}

// ProcessWidget validates a single widget's settings against the common
// widget settings plus those of its type
func (p *Processor) ProcessWidget(cfg map[string]any) (map[string]any, error) {
	rawType, ok := cfg["type"]
	if !ok || rawType == nil {
		return nil, ErrMissingType
	}
	widgetType := strings.ToLower(fmt.Sprint(rawType))
	if widgetType == "animations" || !p.validator.Has("widgets:"+widgetType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, widgetType)
	}

	settings := configspec.CopyMap(cfg)
	settings["type"] = widgetType

	validated, err := p.validator.ValidateConfig("widgets:"+widgetType, settings, "widgets:common")
	if err != nil {
		return nil, err
	}

	if events, ok := validated["control_events"]; ok && events != nil {
		ce, err := p.processControlEvents(events)
		if err != nil {
			return nil, err
		}
		validated["control_events"] = ce
	}

	validated["_default_settings"] = []any{}

	if anims, ok := validated["animations"]; ok && anims != nil {
		m, ok := configspec.AsMap(anims)
		if !ok {
			return nil, fmt.Errorf("animations: expected a map of events, got %T", anims)
		}
		processed, err := p.ProcessAnimations(m)
		if err != nil {
			return nil, err
		}
		validated["animations"] = processed
	} else {
		validated["animations"] = nil
	}

	return validated, nil
}

func (p *Processor) processControlEvents(cfg any) ([]any, error) {
	var list []any
	if m, ok := configspec.AsMap(cfg); ok {
		list = []any{m}
	} else if l, ok := configspec.AsList(cfg); ok {
		list = l
	} else {
		return nil, fmt.Errorf("control_events: expected a list, got %T", cfg)
	}

	out := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := configspec.AsMap(item)
		if !ok {
			return nil, fmt.Errorf("control_events: expected a map, got %T", item)
		}
		validated, err := p.validator.ValidateConfig("video_control_events", m, "")
		if err != nil {
			return nil, err
		}
		out = append(out, validated)
	}
	return out, nil
}
