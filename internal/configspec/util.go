package configspec

import (
	"fmt"
	"strings"
)

// AsMap returns v as a string-keyed map. YAML maps with non-string keys are
// converted by formatting their keys.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// AsList returns v as a list if it is one
func AsList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// StringToList splits a string on commas and whitespace, dropping empty
// entries
func StringToList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// DeepCopy copies nested maps and lists. Leaf values are shared.
func DeepCopy(v any) any {
	if m, ok := AsMap(v); ok {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = DeepCopy(val)
		}
		return out
	}
	if l, ok := AsList(v); ok {
		out := make([]any, len(l))
		for i, val := range l {
			out[i] = DeepCopy(val)
		}
		return out
	}
	return v
}

// CopyMap deep copies a string-keyed map
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return DeepCopy(m).(map[string]any)
}

// Merge deep merges src into dst. Nested maps are merged key by key; any
// other value in src replaces the one in dst.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		sm, srcIsMap := AsMap(v)
		dm, dstIsMap := AsMap(dst[k])
		if srcIsMap && dstIsMap {
			dst[k] = Merge(CopyMap(dm), sm)
			continue
		}
		dst[k] = DeepCopy(v)
	}
	return dst
}
