package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]Format{
		"png":   PNG,
		"PNG":   PNG,
		" webp": WebP,
		"avif":  AVIF,
		"jpg":   JPEG,
		"jpeg":  JPEG,
		"tif":   TIFF,
		"heic":  Unknown,
		"":      Unknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, Parse(in), "Parse(%q)", in)
	}
}

func TestFromContentType(t *testing.T) {
	assert.Equal(t, PNG, FromContentType("image/png"))
	assert.Equal(t, JPEG, FromContentType("image/jpg"))
	assert.Equal(t, WebP, FromContentType("IMAGE/WEBP; charset=binary"))
	assert.Equal(t, Unknown, FromContentType("application/octet-stream"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/avif", AVIF.ContentType())
	assert.Equal(t, "image/jpeg", JPEG.ContentType())
	assert.Equal(t, "application/octet-stream", Unknown.ContentType())
}

func TestIsOutput(t *testing.T) {
	for _, f := range []Format{PNG, JPEG, WebP, AVIF} {
		assert.True(t, f.IsOutput(), f.String())
	}
	assert.False(t, GIF.IsOutput())
	assert.False(t, Unknown.IsOutput())
}
