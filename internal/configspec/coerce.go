package configspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/mcslides/internal/animation"
)

func coerceItem(item ItemSpec, v any) (any, error) {
	if item.Kind == KindList {
		return coerceList(item, v)
	}
	return coerceValue(item, v)
}

func coerceList(item ItemSpec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	var values []any
	switch l := v.(type) {
	case string:
		for _, s := range StringToList(l) {
			values = append(values, s)
		}
	default:
		if list, ok := AsList(v); ok {
			values = list
		} else {
			values = []any{v}
		}
	}

	out := make([]any, 0, len(values))
	for i, val := range values {
		c, err := coerceValue(item, val)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func coerceValue(item ItemSpec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch item.Type {
	case "str":
		return toString(v)
	case "int":
		return toInt(v)
	case "float":
		return toFloat(v)
	case "num":
		return toNum(v)
	case "bool":
		return toBool(v)
	case "secs":
		return toSecs(v)
	case "ms":
		return toMs(v)
	case "easing":
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		if !animation.IsEasing(s) {
			return nil, fmt.Errorf("unknown easing %q", s)
		}
		return s, nil
	case "enum":
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		for _, e := range item.Enum {
			if s == e {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of %s", s, strings.Join(item.Enum, ", "))
	}
	return nil, fmt.Errorf("unknown type %q", item.Type)
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int, int64, float64, bool:
		return fmt.Sprint(s), nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toNum(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return n, nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("expected a number, got %q", n)
	}
	return nil, fmt.Errorf("expected a number, got %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("expected a boolean, got %q", b)
	case int:
		return b != 0, nil
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

// toSecs converts a number of seconds or a duration string such as "1s",
// "250ms" or "1m30s" to float seconds
func toSecs(v any) (float64, error) {
	switch n := v.(type) {
	case int, int64, float64:
		return toFloat(n)
	case string:
		s := strings.TrimSpace(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("expected a time value, got %q", n)
		}
		return d.Seconds(), nil
	}
	return 0, fmt.Errorf("expected a time value, got %T", v)
}

// toMs is toSecs for settings counted in milliseconds: a bare number is
// already ms, a duration string carries its own unit.
func toMs(v any) (int, error) {
	switch n := v.(type) {
	case int, int64, float64:
		f, err := toFloat(n)
		if err != nil {
			return 0, err
		}
		return int(math.Round(f)), nil
	case string:
		s := strings.TrimSpace(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(f)), nil
		}
	}
	secs, err := toSecs(v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(secs * 1000)), nil
}
