package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/mcslides/internal/configspec"
)

// ErrUnknownVideo is returned when a widget references a video that is not
// in the registry
var ErrUnknownVideo = errors.New("unknown video")

// Asset is a video file known to the media controller
type Asset struct {
	Name     string
	File     string
	Duration float64 // seconds
}

// Prober reads the duration of a media file
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe probes media durations with the ffprobe binary
type FFprobe struct {
	Path string
}

// Duration returns the container duration of path in seconds
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected output %q", path, string(out))
	}
	return duration, nil
}

// Registry holds the video assets of a machine
type Registry struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{assets: make(map[string]Asset)}
}

// Add registers an asset, replacing any asset with the same name
func (r *Registry) Add(a Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[a.Name] = a
}

// Get looks up an asset by name
func (r *Registry) Get(name string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[name]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrUnknownVideo, name)
	}
	return a, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names returns the registered asset names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.assets))
	for n := range r.assets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadOptions controls how a videos: section is turned into assets
type LoadOptions struct {
	Dir     string // directory relative file names are resolved against
	Prober  Prober // used when a video has no configured duration; may be nil
	Workers int
	Logger  *zap.Logger
}

// Load validates a videos: section and registers its assets. Durations
// missing from the config are probed concurrently.
func (r *Registry) Load(ctx context.Context, section map[string]any, v *configspec.Validator, opts LoadOptions) error {
	if v == nil {
		v = configspec.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	assets := make([]Asset, 0, len(section))
	for name, raw := range section {
		settings, ok := configspec.AsMap(raw)
		if !ok && raw != nil {
			return fmt.Errorf("videos:%s: expected a map, got %T", name, raw)
		}
		validated, err := v.ValidateConfig("videos", settings, "")
		if err != nil {
			return fmt.Errorf("videos:%s: %w", name, err)
		}

		a := Asset{Name: name, File: name + ".mp4"}
		if f, ok := validated["file"].(string); ok {
			a.File = f
		}
		if opts.Dir != "" && !filepath.IsAbs(a.File) {
			a.File = filepath.Join(opts.Dir, a.File)
		}
		if d, ok := validated["duration"].(float64); ok {
			a.Duration = d
		}
		assets = append(assets, a)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range assets {
		if assets[i].Duration > 0 || opts.Prober == nil {
			continue
		}
		a := &assets[i]
		g.Go(func() error {
			d, err := opts.Prober.Duration(gctx, a.File)
			if err != nil {
				return fmt.Errorf("videos:%s: %w", a.Name, err)
			}
			a.Duration = d
			logger.Debug("probed video", zap.String("video", a.Name), zap.Float64("duration", d))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, a := range assets {
		r.Add(a)
	}
	return nil
}
