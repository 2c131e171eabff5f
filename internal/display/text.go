package display

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// placeholderRE matches (name), (player|name) and (machine|name)
var placeholderRE = regexp.MustCompile(`\((?:(player|machine)\|)?([A-Za-z_][A-Za-z0-9_]*)\)`)

var numberPrinter = message.NewPrinter(language.English)

// Text returns the text a text widget shows, with its placeholders filled in
func (w *Widget) Text() string {
	return w.text
}

// SetPlayerVar sets a variable shown by (player|name) placeholders and
// refreshes the text widgets on every target
func (d *Display) SetPlayerVar(name string, value any) {
	d.setVar("player", name, value)
}

// SetMachineVar sets a variable shown by (machine|name) placeholders
func (d *Display) SetMachineVar(name string, value any) {
	d.setVar("machine", name, value)
}

func (d *Display) setVar(scope, name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vars[scope][name] = value
	seen := make(map[*Target]bool, len(d.targets))
	for _, t := range d.targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		for _, s := range t.slides {
			d.renderTextLocked(s)
		}
	}
}

func (d *Display) renderTextLocked(s *Slide) {
	for _, w := range s.Widgets {
		if w.Type != "text" {
			continue
		}
		raw, _ := w.Settings["text"].(string)
		w.text = d.expandText(raw, s.Params, w.Settings)
	}
}

// expandText fills in placeholders. (name) comes from the event parameters
// the slide was played with. Player and machine placeholders come from the
// variables set on the display and fall back to the event parameters.
// Placeholders with no value are left as written.
func (d *Display) expandText(text string, params, settings map[string]any) string {
	out := placeholderRE.ReplaceAllStringFunc(text, func(match string) string {
		sub := placeholderRE.FindStringSubmatch(match)
		scope, name := sub[1], sub[2]

		var (
			v  any
			ok bool
		)
		if scope != "" {
			v, ok = d.vars[scope][name]
		}
		if !ok {
			v, ok = params[name]
		}
		if !ok {
			return match
		}
		return formatValue(v, settings)
	})

	casing, _ := settings["casing"].(string)
	return applyCasing(out, casing)
}

// formatValue renders a placeholder value. Integers honour number_grouping
// and min_digits.
func formatValue(v any, settings map[string]any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != float64(int64(x)) {
			return fmt.Sprint(x)
		}
		n = int64(x)
	default:
		return fmt.Sprint(v)
	}

	s := fmt.Sprint(n)
	if grouping, _ := settings["number_grouping"].(bool); grouping {
		s = numberPrinter.Sprintf("%d", n)
	}
	if minDigits, _ := settings["min_digits"].(int); len(s) < minDigits {
		s = strings.Repeat("0", minDigits-len(s)) + s
	}
	return s
}

func applyCasing(s, casing string) string {
	switch casing {
	case "upper":
		return cases.Upper(language.Und).String(s)
	case "lower":
		return cases.Lower(language.Und).String(s)
	case "title":
		return cases.Title(language.Und).String(s)
	case "capitalize":
		s = cases.Lower(language.Und).String(s)
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return s
}
