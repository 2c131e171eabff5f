// Package assets resolves the image files referenced by image widgets and
// reads their dimensions.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var ErrImageNotFound = errors.New("image not found")

// Extensions are tried in order when an image is named without one
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Image is a resolved image file
type Image struct {
	Name   string
	Path   string
	Format string
	Width  int
	Height int
}

// Images finds images in a set of folders. Machine folders are searched
// before mode folders in the order they were added.
type Images struct {
	dirs []string
}

// NewImages searches the images folder of every root
func NewImages(roots ...string) *Images {
	im := &Images{}
	for _, r := range roots {
		im.dirs = append(im.dirs, filepath.Join(r, "images"))
	}
	return im
}

// Resolve finds the file for an image name. A name with an extension is
// looked up as given; otherwise every known extension is tried.
func (im *Images) Resolve(name string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range Extensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, dir := range im.dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrImageNotFound, name)
}

// Probe resolves name and decodes only the image header
func (im *Images) Probe(name string) (Image, error) {
	path, err := im.Resolve(name)
	if err != nil {
		return Image{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Image{}, fmt.Errorf("image %s: %w", path, err)
	}
	return Image{Name: name, Path: path, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ProbeAll probes every name with at most workers files open at once
func (im *Images) ProbeAll(ctx context.Context, names []string, workers int) (map[string]Image, error) {
	results := make([]Image, len(names))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := im.Probe(name)
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Image, len(names))
	for _, img := range results {
		out[img.Name] = img
	}
	return out, nil
}

// List returns the image names found in the search folders without
// extension, sorted
func (im *Images) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, dir := range im.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			for _, known := range Extensions {
				if ext == known {
					seen[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = true
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
