package configspec

import (
	"errors"
	"fmt"
)

// ErrUnknownSection is returned when a section is not part of the schema
var ErrUnknownSection = errors.New("unknown config section")

// ValidationError describes a single invalid setting
type ValidationError struct {
	Section string
	Key     string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("%s:%s: %s", e.Section, e.Key, e.Reason)
}
