// Package configspec validates configuration sections against an embedded
// schema. The schema describes every setting as kind|type|default and the
// validator coerces loosely typed YAML values into that shape.
package configspec

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed spec.yaml
var specYAML []byte

// Kind describes how many values a setting holds
type Kind string

const (
	KindSingle Kind = "single"
	KindList   Kind = "list"
	KindIgnore Kind = "ignore"
)

// ItemSpec is the parsed form of a single kind|type|default entry
type ItemSpec struct {
	Kind       Kind
	Type       string
	Enum       []string
	Default    any
	HasDefault bool
}

// Required reports whether the setting must be present in the config
func (s ItemSpec) Required() bool {
	return s.Kind != KindIgnore && !s.HasDefault
}

// Section maps setting names to their specs
type Section map[string]ItemSpec

func parseSpec(data []byte) (map[string]Section, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config spec: %w", err)
	}

	sections := make(map[string]Section)
	for name, body := range raw {
		if isGroup(body) {
			for sub, subBody := range body {
				items, _ := AsMap(subBody)
				section, err := parseSection(name+":"+sub, items)
				if err != nil {
					return nil, err
				}
				sections[name+":"+sub] = section
			}
			continue
		}

		section, err := parseSection(name, body)
		if err != nil {
			return nil, err
		}
		sections[name] = section
	}
	return sections, nil
}

// isGroup reports whether every value is itself a section
func isGroup(body map[string]any) bool {
	if len(body) == 0 {
		return false
	}
	for _, v := range body {
		if _, ok := AsMap(v); !ok {
			return false
		}
	}
	return true
}

func parseSection(name string, items map[string]any) (Section, error) {
	section := make(Section, len(items))
	for key, v := range items {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("config spec %s:%s: expected string, got %T", name, key, v)
		}
		item, err := parseItem(s)
		if err != nil {
			return nil, fmt.Errorf("config spec %s:%s: %w", name, key, err)
		}
		section[key] = item
	}
	return section, nil
}

func parseItem(s string) (ItemSpec, error) {
	parts := strings.SplitN(s, "|", 3)
	kind := Kind(strings.TrimSpace(parts[0]))

	switch kind {
	case KindIgnore:
		return ItemSpec{Kind: KindIgnore}, nil
	case KindSingle, KindList:
	default:
		return ItemSpec{}, fmt.Errorf("unknown kind %q", kind)
	}

	if len(parts) < 2 {
		return ItemSpec{}, fmt.Errorf("missing type in %q", s)
	}

	item := ItemSpec{Kind: kind, Type: strings.TrimSpace(parts[1])}
	if strings.HasPrefix(item.Type, "enum(") && strings.HasSuffix(item.Type, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(item.Type, "enum("), ")")
		item.Enum = StringToList(inner)
		item.Type = "enum"
	}
	if !knownType(item.Type) {
		return ItemSpec{}, fmt.Errorf("unknown type %q", item.Type)
	}

	if len(parts) == 3 {
		item.HasDefault = true
		literal := strings.TrimSpace(parts[2])
		if literal != "None" {
			def, err := coerceItem(item, literal)
			if err != nil {
				return ItemSpec{}, fmt.Errorf("default %q: %w", literal, err)
			}
			item.Default = def
		}
	}
	return item, nil
}

func knownType(t string) bool {
	switch t {
	case "str", "int", "float", "num", "bool", "secs", "ms", "easing", "enum":
		return true
	}
	return false
}

// sortedKeys returns the keys of a section in a stable order
func sortedKeys(section Section) []string {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
