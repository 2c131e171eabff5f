package machine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/mcslides/internal/configspec"
	"github.com/ivlev/mcslides/internal/slideplayer"
)

// ErrUnknownMode is returned for modes that were not loaded
var ErrUnknownMode = errors.New("unknown mode")

type fileJob struct {
	mode string // empty for machine files
	path string
}

type fileResult struct {
	job  fileJob
	file configFile
}

// configFile is a parsed config file along with the order its slide_player
// entries list their slides in
type configFile struct {
	cfg   map[string]any
	order slideplayer.Order
}

// readConfig reads one YAML config file. An empty file is an empty config.
func readConfig(path string) (configFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return configFile{}, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return configFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	f := configFile{cfg: make(map[string]any)}
	if doc.Kind == 0 {
		return f, nil
	}
	if err := doc.Decode(&f.cfg); err != nil {
		return configFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.cfg == nil {
		f.cfg = make(map[string]any)
	}
	f.order = slideplayer.SectionOrder(&doc, "slide_player")
	return f, nil
}

// discoverModes lists the modes under <path>/modes that have a
// config/<mode>.yaml file
func discoverModes(path string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(path, "modes"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var modes []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(modeConfigPath(path, entry.Name())); err == nil {
			modes = append(modes, entry.Name())
		}
	}
	sort.Strings(modes)
	return modes, nil
}

func modeRoot(path, mode string) string {
	return filepath.Join(path, "modes", mode)
}

func modeConfigPath(path, mode string) string {
	return filepath.Join(modeRoot(path, mode), "config", mode+".yaml")
}

// readAll reads the machine files and the config file of every mode with at
// most workers files in flight. Machine files are merged in order.
func (m *Machine) readAll(ctx context.Context, modes []string) (configFile, map[string]configFile, error) {
	var jobs []fileJob
	for _, f := range m.opts.ConfigFiles {
		p := f
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.opts.Path, "config", f)
		}
		jobs = append(jobs, fileJob{path: p})
	}
	for _, mode := range modes {
		jobs = append(jobs, fileJob{mode: mode, path: modeConfigPath(m.opts.Path, mode)})
	}

	results := make([]fileResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := readConfig(job.path)
			if err != nil {
				return err
			}
			results[i] = fileResult{job: job, file: f}
			m.logger.Debug("read config file", zap.String("path", job.path), zap.String("mode", job.mode))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return configFile{}, nil, err
	}

	machine := configFile{cfg: make(map[string]any)}
	modeCfgs := make(map[string]configFile, len(modes))
	for _, r := range results {
		if r.job.mode == "" {
			machine.cfg = configspec.Merge(machine.cfg, r.file.cfg)
			machine.order = machine.order.Merge(r.file.order)
		} else {
			modeCfgs[r.job.mode] = r.file
		}
	}
	return machine, modeCfgs, nil
}
