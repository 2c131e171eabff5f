package configspec

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Validator checks config maps against the embedded schema
type Validator struct {
	sections map[string]Section
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// New parses the embedded schema
func New() (*Validator, error) {
	sections, err := parseSpec(specYAML)
	if err != nil {
		return nil, err
	}
	return &Validator{sections: sections}, nil
}

// Default returns a shared validator for the embedded schema. The schema is
// compiled into the binary, so a parse failure is a programming error.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, err := New()
		if err != nil {
			panic(err)
		}
		defaultValidator = v
	})
	return defaultValidator
}

// Has reports whether a section exists
func (v *Validator) Has(section string) bool {
	_, ok := v.sections[strings.ToLower(section)]
	return ok
}

// Keys returns the setting names of a section in sorted order
func (v *Validator) Keys(section string) []string {
	return sortedKeys(v.sections[strings.ToLower(section)])
}

// IsValidKey reports whether key is a setting of section
func (v *Validator) IsValidKey(section, key string) bool {
	_, ok := v.sections[strings.ToLower(section)][key]
	return ok
}

// SubSections lists the names under a group such as "widgets" or
// "transitions"
func (v *Validator) SubSections(group string) []string {
	prefix := group + ":"
	var names []string
	for name := range v.sections {
		if strings.HasPrefix(name, prefix) {
			names = append(names, strings.TrimPrefix(name, prefix))
		}
	}
	sort.Strings(names)
	return names
}

// ValidateConfig validates cfg against section, optionally layered over
// baseSection. The returned map is a new map with defaults applied and
// values coerced. Keys starting with an underscore are internal and pass
// through untouched.
func (v *Validator) ValidateConfig(section string, cfg map[string]any, baseSection string) (map[string]any, error) {
	section = strings.ToLower(section)
	spec, ok := v.sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	merged := spec
	if baseSection != "" {
		base, ok := v.sections[strings.ToLower(baseSection)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, baseSection)
		}
		merged = make(Section, len(base)+len(spec))
		for k, item := range base {
			merged[k] = item
		}
		for k, item := range spec {
			merged[k] = item
		}
	}

	for key := range cfg {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if _, ok := merged[key]; !ok {
			return nil, &ValidationError{Section: section, Key: key, Reason: "not a valid setting"}
		}
	}

	out := make(map[string]any, len(merged))
	for _, key := range sortedKeys(merged) {
		item := merged[key]
		value, present := cfg[key]

		switch {
		case item.Kind == KindIgnore:
			if present {
				out[key] = value
			}
		case present:
			c, err := coerceItem(item, value)
			if err != nil {
				return nil, &ValidationError{Section: section, Key: key, Reason: err.Error()}
			}
			out[key] = c
		case item.HasDefault:
			out[key] = DeepCopy(item.Default)
		default:
			return nil, &ValidationError{Section: section, Key: key, Reason: "required setting is missing"}
		}
	}

	for key, value := range cfg {
		if strings.HasPrefix(key, "_") {
			out[key] = value
		}
	}
	return out, nil
}
