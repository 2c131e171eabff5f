package machine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/slideplayer"
)

// StartMode registers the slide_player entries of a mode. Starting a mode
// that is already running does nothing.
func (m *Machine) StartMode(ctx context.Context, name string) error {
	mode, ok := m.modes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.active[name]; running {
		return nil
	}

	sm := &slideplayer.Mode{Name: name, Priority: mode.Priority, TargetName: mode.Target}
	m.Player.Register(sm, mode.SlidePlayer)
	m.active[name] = sm

	m.logger.Info("mode started", zap.String("mode", name), zap.Int("priority", mode.Priority))
	return nil
}

// StopMode unregisters a running mode and removes its slides
func (m *Machine) StopMode(ctx context.Context, name string) error {
	if _, ok := m.modes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sm, running := m.active[name]
	if !running {
		return nil
	}

	m.Player.Unregister(sm)
	m.Display.RemoveModeSlides(name)
	delete(m.active, name)

	m.logger.Info("mode stopped", zap.String("mode", name))
	return nil
}

// ActiveModes lists the running modes
func (m *Machine) ActiveModes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.active))
	for n := range m.active {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Post delivers an event to the bus handlers (mode start/stop, video control
// events) and then to the slide player
func (m *Machine) Post(ctx context.Context, event string, kwargs map[string]any) error {
	if err := m.Bus.Post(ctx, event, kwargs); err != nil {
		return err
	}
	if _, err := m.Player.HandleEvent(ctx, event, kwargs); err != nil {
		return err
	}
	return nil
}
