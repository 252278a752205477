package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SMCodesP/imgtransform/internal/format"
)

func TestParse_Empty(t *testing.T) {
	s := Parse("")
	assert.Empty(t, s.Canonical())
	assert.Empty(t, s.Dropped())

	_, ok := s.Width()
	assert.False(t, ok)
	assert.Equal(t, uint8(75), s.Quality())
	assert.Equal(t, format.JPEG, s.Format())
}

func TestParse_AllKeys(t *testing.T) {
	s := Parse("width=500,format=webp,quality=80")

	w, ok := s.Width()
	assert.True(t, ok)
	assert.Equal(t, uint32(500), w)
	assert.Equal(t, uint8(80), s.Quality())
	assert.Equal(t, format.WebP, s.Format())
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	s := Parse("width=100,width=200,format=png,format=avif")

	w, _ := s.Width()
	assert.Equal(t, uint32(200), w)
	assert.Equal(t, format.AVIF, s.Format())
}

func TestParse_MalformedTokensDropped(t *testing.T) {
	s := Parse("foo,quality=,=7,width=320")

	w, ok := s.Width()
	assert.True(t, ok)
	assert.Equal(t, uint32(320), w)
	assert.Equal(t, uint8(75), s.Quality(), "empty quality falls back to default")
	assert.Equal(t, []string{"foo", "=7"}, s.Dropped())
}

func TestParse_ValueKeepsLaterEquals(t *testing.T) {
	// The value is "webp=lossless", which is not a format name.
	s := Parse("format=webp=lossless,width=8=9")
	assert.Equal(t, format.JPEG, s.Format())
	_, ok := s.Width()
	assert.False(t, ok)
}

func TestWidth_Invalid(t *testing.T) {
	for _, in := range []string{"width=0", "width=-5", "width=abc", "width=99999999999", "width=1.5"} {
		_, ok := Parse(in).Width()
		assert.False(t, ok, in)
	}
}

func TestQuality_Clamped(t *testing.T) {
	assert.Equal(t, uint8(100), Parse("quality=300").Quality())
	assert.Equal(t, uint8(0), Parse("quality=-5").Quality())
	assert.Equal(t, uint8(0), Parse("quality=0").Quality())
	assert.Equal(t, uint8(75), Parse("quality=high").Quality())
	assert.Equal(t, uint8(90), Parse("").QualityOr(90))
}

func TestFormat_Fallback(t *testing.T) {
	assert.Equal(t, format.JPEG, Parse("format=gif").Format())
	assert.Equal(t, format.JPEG, Parse("format=tiff").Format())
	assert.Equal(t, format.JPEG, Parse("format=").Format())
	assert.Equal(t, format.PNG, Parse("format=PNG").Format())
	assert.Equal(t, format.JPEG, Parse("format=jpg").Format())
}

func TestCanonical(t *testing.T) {
	a := Parse("quality=80,width=500,format=webp,foo=bar")
	b := Parse("format=webp,bogus,width=500,quality=80")
	assert.Equal(t, "format=webp,quality=80,width=500", a.Canonical())
	assert.Equal(t, a.Canonical(), b.Canonical())
}
