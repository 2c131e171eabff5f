// Package machine loads a machine folder: the machine-wide config files and
// the config of every mode. It validates the media sections and wires the
// display, the event bus, video and audio settings and the slide player.
package machine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/audio"
	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/display"
	"github.com/ivlev/mcslides/internal/events"
	"github.com/ivlev/mcslides/internal/slideplayer"
	"github.com/ivlev/mcslides/internal/video"
)

// Options controls how a machine folder is loaded
type Options struct {
	Path        string
	ConfigFiles []string
	// Modes limits the modes loaded. Empty loads every mode found.
	Modes       []string
	Workers     int
	CheckAssets bool
	// Prober fills in video durations missing from the config. May be nil.
	Prober    video.Prober
	Validator *configspec.Validator
	Logger    *zap.Logger
}

// Mode is a loaded mode
type Mode struct {
	Name        string
	Priority    int
	Target      string
	StartEvents []string
	StopEvents  []string
	// SlidePlayer is the validated slide_player: section of the mode
	SlidePlayer map[string]any
	Slides      map[string]any
	Widgets     map[string]any
}

// Machine is a loaded and validated machine config
type Machine struct {
	opts   Options
	logger *zap.Logger
	v      *configspec.Validator

	Display *display.Display
	Bus     *events.Bus
	Videos  *video.Registry
	Audio   audio.Settings
	Player  *slideplayer.Player

	Slides      map[string]any
	Widgets     map[string]any
	Animations  map[string]any
	SlidePlayer map[string]any

	modes map[string]*Mode

	mu     sync.Mutex
	active map[string]*slideplayer.Mode
}

// Load reads and validates the machine at opts.Path
func Load(ctx context.Context, opts Options) (*Machine, error) {
	if opts.Path == "" {
		opts.Path = "."
	}
	if len(opts.ConfigFiles) == 0 {
		opts.ConfigFiles = []string{"config.yaml"}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Validator == nil {
		opts.Validator = configspec.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Machine{
		opts:   opts,
		logger: opts.Logger,
		v:      opts.Validator,
		Bus:    events.NewBus(opts.Logger),
		Videos: video.NewRegistry(),
		modes:  make(map[string]*Mode),
		active: make(map[string]*slideplayer.Mode),
	}
	m.Display = display.New(display.Options{Bus: m.Bus, Videos: m.Videos, Logger: opts.Logger})
	m.Player = slideplayer.New(m.Display, m.v, opts.Logger)

	modes, err := m.modeNames()
	if err != nil {
		return nil, err
	}
	machineCfg, modeCfgs, err := m.readAll(ctx, modes)
	if err != nil {
		return nil, err
	}

	if err := m.loadMachine(ctx, machineCfg.cfg, machineCfg.order); err != nil {
		return nil, err
	}
	for _, name := range modes {
		if err := m.loadMode(name, modeCfgs[name].cfg, modeCfgs[name].order); err != nil {
			return nil, fmt.Errorf("mode %s: %w", name, err)
		}
	}
	if err := m.checkReferences(ctx); err != nil {
		return nil, err
	}

	m.logger.Info("machine loaded",
		zap.String("path", opts.Path),
		zap.Int("modes", len(m.modes)),
		zap.Int("slides", len(m.Slides)),
		zap.Int("videos", len(m.Videos.Names())))
	return m, nil
}

func (m *Machine) modeNames() ([]string, error) {
	found, err := discoverModes(m.opts.Path)
	if err != nil {
		return nil, err
	}
	if len(m.opts.Modes) == 0 {
		return found, nil
	}

	available := make(map[string]bool, len(found))
	for _, f := range found {
		available[f] = true
	}
	for _, want := range m.opts.Modes {
		if !available[want] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMode, want)
		}
	}
	return m.opts.Modes, nil
}

func (m *Machine) loadMachine(ctx context.Context, cfg map[string]any, order slideplayer.Order) error {
	if err := m.loadDisplays(section(cfg, "displays")); err != nil {
		return err
	}

	err := m.Videos.Load(ctx, section(cfg, "videos"), m.v, video.LoadOptions{
		Dir:     filepath.Join(m.opts.Path, "videos"),
		Prober:  m.opts.Prober,
		Workers: m.opts.Workers,
		Logger:  m.logger,
	})
	if err != nil {
		return err
	}

	m.Audio, err = audio.FromConfig(section(cfg, "sound_system"), m.v, m.logger)
	if err != nil {
		return err
	}

	m.Animations, err = m.Player.Widgets().ProcessNamedAnimations(section(cfg, "animations"))
	if err != nil {
		return err
	}
	m.Display.DefineAnimations(m.Animations)

	m.Widgets, err = m.processNamedWidgets(section(cfg, "widgets"))
	if err != nil {
		return err
	}

	m.Slides, err = m.Player.ProcessSlides(section(cfg, "slides"))
	if err != nil {
		return fmt.Errorf("slides: %w", err)
	}
	for name, s := range m.Slides {
		m.Display.DefineSlide(name, s.(map[string]any))
	}

	m.SlidePlayer, err = m.Player.ValidateOrderedConfig(section(cfg, "slide_player"), order)
	if err != nil {
		return fmt.Errorf("slide_player: %w", err)
	}
	m.Player.Register(nil, m.SlidePlayer)
	return nil
}

// loadDisplays adds a target per display. A lone display, or the one marked
// default, also answers to "default".
func (m *Machine) loadDisplays(cfg map[string]any) error {
	var defaultName string
	names := sortedKeys(cfg)
	for _, name := range names {
		settings, _ := configspec.AsMap(cfg[name])
		validated, err := m.v.ValidateConfig("displays", settings, "")
		if err != nil {
			return fmt.Errorf("displays:%s: %w", name, err)
		}
		m.Display.AddTarget(name, validated["width"].(int), validated["height"].(int))
		if validated["default"].(bool) {
			if defaultName != "" {
				return fmt.Errorf("displays: both %s and %s are marked default", defaultName, name)
			}
			defaultName = name
		}
	}
	if defaultName == "" && len(names) == 1 {
		defaultName = names[0]
	}
	if defaultName != "" && defaultName != slideplayer.DefaultTarget {
		return m.Display.SetDefault(defaultName)
	}
	return nil
}

func (m *Machine) processNamedWidgets(cfg map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(cfg))
	for name, raw := range cfg {
		list, err := m.Player.Widgets().ProcessConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("widgets:%s: %w", name, err)
		}
		out[name] = list
	}
	return out, nil
}

func (m *Machine) loadMode(name string, cfg map[string]any, order slideplayer.Order) error {
	settings, _ := configspec.AsMap(cfg["mode"])
	validated, err := m.v.ValidateConfig("mode", settings, "")
	if err != nil {
		return err
	}

	mode := &Mode{Name: name, Priority: validated["priority"].(int)}
	mode.Target, _ = validated["target"].(string)
	mode.StartEvents = stringList(validated["start_events"])
	mode.StopEvents = stringList(validated["stop_events"])

	mode.Slides, err = m.Player.ProcessSlides(section(cfg, "slides"))
	if err != nil {
		return fmt.Errorf("slides: %w", err)
	}
	for slide, s := range mode.Slides {
		if m.Display.HasSlide(slide) {
			m.logger.Warn("mode slide replaces an existing definition", zap.String("mode", name), zap.String("slide", slide))
		}
		m.Display.DefineSlide(slide, s.(map[string]any))
	}

	mode.Widgets, err = m.processNamedWidgets(section(cfg, "widgets"))
	if err != nil {
		return err
	}

	mode.SlidePlayer, err = m.Player.ValidateOrderedConfig(section(cfg, "slide_player"), order)
	if err != nil {
		return fmt.Errorf("slide_player: %w", err)
	}

	for _, event := range mode.StartEvents {
		m.Bus.Add(event, func(ctx context.Context, kwargs map[string]any) error {
			return m.StartMode(ctx, name)
		})
	}
	for _, event := range mode.StopEvents {
		m.Bus.Add(event, func(ctx context.Context, kwargs map[string]any) error {
			return m.StopMode(ctx, name)
		})
	}

	m.modes[name] = mode
	return nil
}

// Mode returns a loaded mode
func (m *Machine) Mode(name string) (*Mode, bool) {
	mode, ok := m.modes[name]
	return mode, ok
}

// Modes lists the loaded modes
func (m *Machine) Modes() []string {
	names := make([]string, 0, len(m.modes))
	for n := range m.modes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Normalized returns the validated media config of the machine and its
// modes in one map
func (m *Machine) Normalized() map[string]any {
	videos := make(map[string]any)
	for _, name := range m.Videos.Names() {
		a, _ := m.Videos.Get(name)
		videos[name] = map[string]any{"file": a.File, "duration": a.Duration}
	}

	modes := make(map[string]any, len(m.modes))
	for name, mode := range m.modes {
		modes[name] = map[string]any{
			"mode": map[string]any{
				"priority":     mode.Priority,
				"target":       nilIfEmpty(mode.Target),
				"start_events": toAnyList(mode.StartEvents),
				"stop_events":  toAnyList(mode.StopEvents),
			},
			"slides":       mode.Slides,
			"widgets":      mode.Widgets,
			"slide_player": mode.SlidePlayer,
		}
	}

	return map[string]any{
		"slides":       m.Slides,
		"widgets":      m.Widgets,
		"animations":   m.Animations,
		"slide_player": m.SlidePlayer,
		"videos":       videos,
		"sound_system": m.Audio.Map(),
		"modes":        modes,
	}
}

func section(cfg map[string]any, name string) map[string]any {
	s, _ := configspec.AsMap(cfg[name])
	return s
}

func stringList(v any) []string {
	list, _ := configspec.AsList(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toAnyList(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
