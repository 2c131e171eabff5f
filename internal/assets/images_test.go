package assets

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".gif":
		require.NoError(t, gif.Encode(f, img, nil))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	default:
		t.Fatalf("no encoder for %s", path)
	}
}

func TestResolveAndProbe(t *testing.T) {
	machine := t.TempDir()
	mode := filepath.Join(machine, "modes", "base")
	writeImage(t, filepath.Join(machine, "images", "logo.png"), 128, 32)
	writeImage(t, filepath.Join(mode, "images", "logo.bmp"), 10, 10)
	writeImage(t, filepath.Join(mode, "images", "ball.gif"), 16, 8)

	im := NewImages(machine, mode)

	img, err := im.Probe("logo")
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format, "machine folder is searched first")
	assert.Equal(t, 128, img.Width)
	assert.Equal(t, 32, img.Height)

	img, err = im.Probe("logo.bmp")
	require.NoError(t, err)
	assert.Equal(t, "bmp", img.Format)

	img, err = im.Probe("ball")
	require.NoError(t, err)
	assert.Equal(t, "gif", img.Format)
	assert.Equal(t, 16, img.Width)

	_, err = im.Probe("missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestProbeAll(t *testing.T) {
	machine := t.TempDir()
	writeImage(t, filepath.Join(machine, "images", "a.png"), 1, 2)
	writeImage(t, filepath.Join(machine, "images", "b.png"), 3, 4)
	im := NewImages(machine)

	got, err := im.ProbeAll(context.Background(), []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got["a"].Height)
	assert.Equal(t, 3, got["b"].Width)

	_, err = im.ProbeAll(context.Background(), []string{"a", "nope"}, 2)
	assert.ErrorIs(t, err, ErrImageNotFound)

	names, err := im.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestProbeRejectsCorruptFile(t *testing.T) {
	machine := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(machine, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(machine, "images", "broken.png"), []byte("not a png"), 0o644))

	_, err := NewImages(machine).Probe("broken")
	assert.Error(t, err)
}
