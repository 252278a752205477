package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/resize"
)

func TestGet_Known(t *testing.T) {
	p := Get("minimal")
	assert.Equal(t, "minimal", p.Name)
	assert.Equal(t, resize.Triangle, p.Strategy)
	assert.Equal(t, []format.Format{format.JPEG, format.PNG}, p.Encoders)
}

func TestGet_UnknownFallsBack(t *testing.T) {
	p := Get("nope")
	assert.Equal(t, "nope", p.Name)
	assert.Equal(t, resize.Parallel, p.Strategy)
	assert.Empty(t, p.Encoders)
	assert.Equal(t, 75, p.Quality)

	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"compat", "default", "minimal"}, Names())
}

func TestWithOverrides(t *testing.T) {
	base := Get(DefaultName)

	p := base.WithStrategy(resize.Triangle).WithQuality(140)
	assert.Equal(t, resize.Triangle, p.Strategy)
	assert.Equal(t, 100, p.Quality)
	assert.Equal(t, resize.Parallel, base.Strategy, "copy must not touch the original")

	assert.Equal(t, 0, base.WithQuality(-3).Quality)
}
