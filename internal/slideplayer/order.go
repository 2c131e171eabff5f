package slideplayer

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/mcslides/internal/configspec"
)

// OrderKey is the key a validated entry keeps its slide order under. Slides
// of one entry are played in this order, so at equal priority the slide
// written last ends up showing.
const OrderKey = "_order"

// Order lists the slide names of each slide_player event in the order they
// were written
type Order map[string][]string

// ReadOrder reads the slide order from a slide_player: node. node may be a
// document or the mapping itself. Events whose entry is not a mapping are
// left out; they hold a single slide.
func ReadOrder(node *yaml.Node) Order {
	node = resolveNode(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	order := make(Order)
	for i := 0; i+1 < len(node.Content); i += 2 {
		entry := resolveNode(node.Content[i+1])
		if entry == nil || entry.Kind != yaml.MappingNode {
			continue
		}
		names := make([]string, 0, len(entry.Content)/2)
		for j := 0; j+1 < len(entry.Content); j += 2 {
			names = append(names, entry.Content[j].Value)
		}
		order[node.Content[i].Value] = names
	}
	return order
}

// SectionOrder finds key in the top level mapping of a config document and
// reads the slide order below it
func SectionOrder(doc *yaml.Node, key string) Order {
	root := resolveNode(doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return ReadOrder(root.Content[i+1])
		}
	}
	return nil
}

// Merge returns the order of two configs merged key by key: an event keeps
// the slides of o in place and gains the new slides of other after them
func (o Order) Merge(other Order) Order {
	out := make(Order, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for event, names := range other {
		have := make(map[string]bool, len(out[event]))
		for _, n := range out[event] {
			have[n] = true
		}
		merged := append([]string(nil), out[event]...)
		for _, n := range names {
			if !have[n] {
				merged = append(merged, n)
			}
		}
		out[event] = merged
	}
	return out
}

func resolveNode(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// slideOrder lists the slides of an entry: names from written first, then
// any others sorted by name
func slideOrder(slides map[string]any, written []string) []string {
	if len(written) == 0 {
		return sortedMapKeys(slides)
	}

	out := make([]string, 0, len(slides))
	seen := make(map[string]bool, len(slides))
	for _, name := range written {
		if _, ok := slides[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range slides {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// orderOf reads the OrderKey list of a validated entry
func orderOf(raw any) []string {
	list, ok := configspec.AsList(raw)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names
}
