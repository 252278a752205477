package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMCodesP/imgtransform/internal/config"
	"github.com/SMCodesP/imgtransform/internal/fixture"
	"github.com/SMCodesP/imgtransform/internal/raster"
	"github.com/SMCodesP/imgtransform/internal/resize"
)

func TestResolveProfile(t *testing.T) {
	p, err := resolveProfile(config.Pipeline{Profile: "minimal"})
	require.NoError(t, err)
	assert.Equal(t, "minimal", p.Name)
	assert.Equal(t, resize.Triangle, p.Strategy)
	assert.Equal(t, 70, p.Quality)

	p, err = resolveProfile(config.Pipeline{Profile: "minimal", ResizeStrategy: "parallel", DefaultQuality: 90})
	require.NoError(t, err)
	assert.Equal(t, resize.Parallel, p.Strategy)
	assert.Equal(t, 90, p.Quality)

	_, err = resolveProfile(config.Pipeline{Profile: "default", ResizeStrategy: "cubic"})
	assert.Error(t, err)
}

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(in, fixture.PNG(fixture.Gradient(60, 40)), 0o644))

	rootCmd.SetArgs([]string{
		"process", in,
		"--ops", "width=30,format=png",
		"--out", out,
		"--log-level", "error",
	})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	img, err := raster.Decode(data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, 30, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestProcessCommand_DefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(in, fixture.PNG(fixture.Gradient(16, 16)), 0o644))

	processOut = ""
	rootCmd.SetArgs([]string{"process", in, "--ops", "format=webp", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "photo.webp"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "a/photo.avif", outputPath("a/photo.jpg", "avif"))
	assert.Equal(t, "photo.jpeg", outputPath("photo", "jpeg"))
	assert.Equal(t, "a/photo.out.png", outputPath("a/photo.png", "png"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "...cdef", truncKey("0123456789abcdef", 7))
}
