package slideplayer

import (
	"context"
	"errors"
)

var (
	// ErrUnknownTarget is returned when no target can be resolved for a slide
	ErrUnknownTarget = errors.New("unknown display target")
	// ErrUnknownSlide is returned when a named slide has no definition
	ErrUnknownSlide = errors.New("unknown slide")
	// ErrMissingTransitionType is returned for transition settings without a type
	ErrMissingTransitionType = errors.New("transition: section of config requires a \"type:\" setting")
)

// DefaultTarget is the name of the target used when neither the settings
// nor the mode name one
const DefaultTarget = "default"

// Target is a display surface that shows one slide at a time. It is
// implemented by the rendering engine.
type Target interface {
	// ShowSlide shows a slide that was defined in the slides: section
	ShowSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error
	// AddAndShowSlide builds a new slide from the widgets in settings
	AddAndShowSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error
	// RemoveSlide removes a slide from the target
	RemoveSlide(ctx context.Context, name string, mode *Mode, settings map[string]any) error
}

// Targets resolves target names
type Targets interface {
	Target(name string) (Target, bool)
}

// Mode is the game mode a slide_player entry belongs to
type Mode struct {
	Name     string
	Priority int
	// Target is used for slides that do not name a target. May be nil.
	Target Target
	// TargetName is looked up when a slide is played and Target is nil, so
	// it may name a slide frame that only exists while its slide does
	TargetName string
}
