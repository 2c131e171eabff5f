// Package slideplayer turns slide_player: configuration into slide
// operations on display targets. Config arrives loosely typed (bare slide
// names, widget lists, partial settings) and is normalized before it is
// played.
package slideplayer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/widgets"
)

// Player validates slide_player config and plays it on display targets
type Player struct {
	validator *configspec.Validator
	widgets   *widgets.Processor
	targets   Targets
	logger    *zap.Logger

	mu      sync.RWMutex
	entries map[string][]entry
}

type entry struct {
	mode     *Mode
	settings map[string]any
}

// New creates a Player. targets may be nil when the Player is only used to
// validate config.
func New(targets Targets, v *configspec.Validator, logger *zap.Logger) *Player {
	if v == nil {
		v = configspec.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		validator: v,
		widgets:   widgets.NewProcessor(v),
		targets:   targets,
		logger:    logger,
		entries:   make(map[string][]entry),
	}
}

// Widgets returns the widget processor used for slide widgets
func (p *Player) Widgets() *widgets.Processor {
	return p.widgets
}

// PlayOptions carries the context a slide_player entry is played in
type PlayOptions struct {
	Mode *Mode
	// Priority is added to the priority of every slide
	Priority int
	// PlayKwargs are merged into every slide's settings
	PlayKwargs map[string]any
	// Kwargs are the parameters of the event that triggered the entry
	Kwargs map[string]any
}

// Play plays a validated slide_player entry. settings maps slide names to
// their validated settings, optionally wrapped in {slides: ...}. Slides are
// played in the order listed under OrderKey, otherwise by name. Settings
// with widgets create a new slide; otherwise the named slide is shown.
func (p *Player) Play(ctx context.Context, settings map[string]any, opts PlayOptions) error {
	if p.targets == nil {
		return fmt.Errorf("%w: no targets configured", ErrUnknownTarget)
	}

	settings = configspec.CopyMap(settings)
	playKwargs := opts.PlayKwargs
	if pk, ok := configspec.AsMap(settings["play_kwargs"]); ok {
		playKwargs = pk
		delete(settings, "play_kwargs")
	}
	written := orderOf(settings[OrderKey])
	delete(settings, OrderKey)
	if slides, ok := configspec.AsMap(settings["slides"]); ok {
		settings = slides
	}

	for _, slide := range slideOrder(settings, written) {
		s, ok := configspec.AsMap(settings[slide])
		if !ok {
			return fmt.Errorf("slide %s: expected settings map, got %T", slide, settings[slide])
		}
		for k, v := range playKwargs {
			s[k] = v
		}
		for k, v := range opts.Kwargs {
			s[k] = v
		}

		switch pr := s["priority"].(type) {
		case int:
			s["priority"] = pr + opts.Priority
		case float64:
			s["priority"] = int(pr) + opts.Priority
		default:
			s["priority"] = opts.Priority
		}

		target, err := p.resolveTarget(s, opts.Mode)
		if err != nil {
			return fmt.Errorf("slide %s: %w", slide, err)
		}

		name := slide
		if n, ok := s["slide"].(string); ok && n != "" {
			name = n
		}
		action, _ := s["action"].(string)
		delete(s, "action")

		switch {
		case action == "remove":
			err = target.RemoveSlide(ctx, name, opts.Mode, s)
		case s["widgets"] != nil:
			err = target.AddAndShowSlide(ctx, name, opts.Mode, s)
		default:
			err = target.ShowSlide(ctx, name, opts.Mode, s)
		}
		if err != nil {
			return fmt.Errorf("slide %s: %w", name, err)
		}

		p.logger.Debug("played slide",
			zap.String("slide", name),
			zap.String("action", actionName(action)),
			zap.Any("priority", s["priority"]))
	}
	return nil
}

// resolveTarget pops the target setting. An unknown or missing target falls
// back to the mode's target and then to the default target.
func (p *Player) resolveTarget(s map[string]any, mode *Mode) (Target, error) {
	name, _ := s["target"].(string)
	delete(s, "target")

	if name != "" {
		if t, ok := p.targets.Target(name); ok {
			return t, nil
		}
		p.logger.Warn("unknown slide target, falling back", zap.String("target", name))
	}
	if mode != nil && mode.Target != nil {
		return mode.Target, nil
	}
	if mode != nil && mode.TargetName != "" {
		if t, ok := p.targets.Target(mode.TargetName); ok {
			return t, nil
		}
	}
	if t, ok := p.targets.Target(DefaultTarget); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, DefaultTarget)
}

// Register adds the entries of a validated slide_player section. mode is
// nil for the machine-wide section.
func (p *Player) Register(mode *Mode, validated map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for event, settings := range validated {
		m, ok := configspec.AsMap(settings)
		if !ok {
			continue
		}
		p.entries[event] = append(p.entries[event], entry{mode: mode, settings: m})
	}
}

// Unregister drops every entry registered for mode
func (p *Player) Unregister(mode *Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for event, list := range p.entries {
		kept := list[:0]
		for _, e := range list {
			if e.mode != mode {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(p.entries, event)
		} else {
			p.entries[event] = kept
		}
	}
}

// Events lists the events with registered entries
func (p *Player) Events() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m := make(map[string]any, len(p.entries))
	for event := range p.entries {
		m[event] = nil
	}
	return sortedMapKeys(m)
}

// HandleEvent plays every entry registered for event. It reports whether
// any entry was found.
func (p *Player) HandleEvent(ctx context.Context, event string, kwargs map[string]any) (bool, error) {
	p.mu.RLock()
	list := make([]entry, len(p.entries[event]))
	copy(list, p.entries[event])
	p.mu.RUnlock()

	for _, e := range list {
		opts := PlayOptions{Mode: e.mode, Kwargs: kwargs}
		if e.mode != nil {
			opts.Priority = e.mode.Priority
		}
		if err := p.Play(ctx, e.settings, opts); err != nil {
			return true, fmt.Errorf("slide_player:%s: %w", event, err)
		}
	}
	return len(list) > 0, nil
}

func actionName(action string) string {
	if action == "" {
		return "play"
	}
	return action
}
