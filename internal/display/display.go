// Package display keeps the slide stacks of the machine's display targets.
// It is the in-process stand-in for the rendering engine: it knows which
// slide is showing where, drives transitions, slide expiry and video
// playback from a simulated clock, and never draws anything.
package display

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/events"
	"github.com/ivlev/mcslides/internal/slideplayer"
	"github.com/ivlev/mcslides/internal/video"
)

// Display owns every Target of a machine
type Display struct {
	mu          sync.Mutex
	targets     map[string]*Target
	definitions map[string]map[string]any
	animations  map[string]any
	bus         *events.Bus
	videos      *video.Registry
	logger      *zap.Logger
	clock       float64
	seq         int

	// vars holds the player and machine variables text widgets show
	vars map[string]map[string]any
}

// Options configures a Display
type Options struct {
	Bus    *events.Bus
	Videos *video.Registry
	Logger *zap.Logger
}

// New creates a Display with a single default target
func New(opts Options) *Display {
	d := &Display{
		targets:     make(map[string]*Target),
		definitions: make(map[string]map[string]any),
		vars:        map[string]map[string]any{"player": {}, "machine": {}},
		bus:         opts.Bus,
		videos:      opts.Videos,
		logger:      opts.Logger,
	}
	if d.bus == nil {
		d.bus = events.NewBus(opts.Logger)
	}
	if d.videos == nil {
		d.videos = video.NewRegistry()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.AddTarget(slideplayer.DefaultTarget, 800, 600)
	return d
}

// AddTarget registers a target. Adding an existing name resizes that
// target and returns it.
func (d *Display) AddTarget(name string, width, height int) *Target {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.targets[name]; ok {
		t.width, t.height = width, height
		return t
	}
	t := d.newTarget(name, width, height)
	d.targets[name] = t
	return t
}

func (d *Display) newTarget(name string, width, height int) *Target {
	return &Target{
		name:    name,
		width:   width,
		height:  height,
		display: d,
		slides:  make(map[string]*Slide),
	}
}

// SetDefault makes the target called name also reachable as "default"
func (d *Display) SetDefault(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[name]
	if !ok {
		return fmt.Errorf("%w: %s", slideplayer.ErrUnknownTarget, name)
	}
	d.targets[slideplayer.DefaultTarget] = t
	return nil
}

// Target implements slideplayer.Targets
func (d *Display) Target(name string) (slideplayer.Target, bool) {
	t := d.TargetByName(name)
	if t == nil {
		return nil, false
	}
	return t, true
}

// TargetByName returns the named target or nil
func (d *Display) TargetByName(name string) *Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.targets[name]
}

// TargetNames lists the registered target names
func (d *Display) TargetNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.targets))
	for n := range d.targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefineSlide stores a normalized entry of the slides: section
func (d *Display) DefineSlide(name string, settings map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.definitions[name] = configspec.CopyMap(settings)
}

// HasSlide reports whether a slide definition exists
func (d *Display) HasSlide(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.definitions[name]
	return ok
}

// Bus returns the event bus widgets register their control events on
func (d *Display) Bus() *events.Bus {
	return d.bus
}

// Clock returns the simulated time in seconds
func (d *Display) Clock() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock
}

// Advance moves the simulated clock forward by dt seconds, running video
// playback, transitions and slide expiry on every target
func (d *Display) Advance(dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clock += dt
	seen := make(map[*Target]bool, len(d.targets))
	for _, t := range d.targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		t.advanceLocked(dt)
	}
}

// RemoveModeSlides removes every slide owned by mode from every target
func (d *Display) RemoveModeSlides(mode string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[*Target]bool, len(d.targets))
	for _, t := range d.targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		for name, s := range t.slides {
			if s.Mode == mode {
				t.removeLocked(name, nil)
			}
		}
	}
}

func (d *Display) nextSeq() int {
	d.seq++
	return d.seq
}
