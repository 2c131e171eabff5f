package machine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/assets"
	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/slideplayer"
	"github.com/ivlev/mcslides/internal/widgets"
)

// widgetLists collects every processed widget list of the machine and its
// modes, keyed by where it was found
func (m *Machine) widgetLists() map[string][]any {
	out := make(map[string][]any)
	addSlides := func(prefix string, slides map[string]any) {
		for name, s := range slides {
			sm, _ := configspec.AsMap(s)
			if list, ok := configspec.AsList(sm["widgets"]); ok {
				out[prefix+"slides:"+name] = list
			}
		}
	}
	addWidgets := func(prefix string, named map[string]any) {
		for name, w := range named {
			if list, ok := configspec.AsList(w); ok {
				out[prefix+"widgets:"+name] = list
			}
		}
	}
	addSlidePlayer := func(prefix string, sp map[string]any) {
		for event, entry := range sp {
			em, _ := configspec.AsMap(entry)
			slides, _ := configspec.AsMap(em["slides"])
			addSlides(prefix+"slide_player:"+event+":", slides)
		}
	}

	addSlides("", m.Slides)
	addWidgets("", m.Widgets)
	addSlidePlayer("", m.SlidePlayer)
	for name, mode := range m.modes {
		prefix := "modes:" + name + ":"
		addSlides(prefix, mode.Slides)
		addWidgets(prefix, mode.Widgets)
		addSlidePlayer(prefix, mode.SlidePlayer)
	}
	return out
}

// checkReferences makes sure named animations and videos used by widgets
// exist and that mode targets name a display or a slide frame. With
// CheckAssets it also makes sure image files can be read.
func (m *Machine) checkReferences(ctx context.Context) error {
	lists := m.widgetLists()
	where := make([]string, 0, len(lists))
	for w := range lists {
		where = append(where, w)
	}
	sort.Strings(where)

	images := make(map[string]bool)
	frames := make(map[string]bool)
	for _, w := range where {
		list := lists[w]
		for _, ref := range widgets.NamedAnimationRefs(list) {
			if _, ok := m.Animations[ref]; !ok {
				return fmt.Errorf("%s: unknown named animation %q", w, ref)
			}
		}
		for _, item := range list {
			wm, _ := configspec.AsMap(item)
			switch wm["type"] {
			case "video":
				name, _ := wm["video"].(string)
				if !m.Videos.Has(name) {
					return fmt.Errorf("%s: unknown video %q", w, name)
				}
			case "image":
				if name, ok := wm["image"].(string); ok {
					images[name] = true
				}
			case "slide_frame":
				if name, ok := wm["name"].(string); ok {
					frames[name] = true
				}
			}
		}
	}

	for _, name := range m.Modes() {
		target := m.modes[name].Target
		if target != "" && !frames[target] && m.Display.TargetByName(target) == nil {
			return fmt.Errorf("mode %s: %w: %s", name, slideplayer.ErrUnknownTarget, target)
		}
	}

	if !m.opts.CheckAssets || len(images) == 0 {
		return nil
	}

	roots := []string{m.opts.Path}
	for _, name := range m.Modes() {
		roots = append(roots, modeRoot(m.opts.Path, name))
	}
	names := make([]string, 0, len(images))
	for n := range images {
		names = append(names, n)
	}
	sort.Strings(names)

	probed, err := assets.NewImages(roots...).ProbeAll(ctx, names, m.opts.Workers)
	if err != nil {
		return err
	}
	for _, name := range names {
		img := probed[name]
		m.logger.Debug("image asset",
			zap.String("image", name),
			zap.String("format", img.Format),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height))
	}
	return nil
}
