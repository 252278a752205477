package encoder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMCodesP/imgtransform/internal/fixture"
	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

func noiseImage(t testing.TB, w, h int, layout raster.Layout) *raster.Image {
	t.Helper()
	img, err := raster.FromNRGBA(fixture.Noise(w, h), layout, format.PNG)
	require.NoError(t, err)
	return img
}

func TestDispatch_Signatures(t *testing.T) {
	r := NewRegistry(nil)
	img := noiseImage(t, 48, 32, raster.RGBA8)

	tests := []struct {
		format      format.Format
		contentType string
		check       func(t *testing.T, data []byte)
	}{
		{format.PNG, "image/png", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
		}},
		{format.JPEG, "image/jpeg", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte{0xff, 0xd8}))
		}},
		{format.WebP, "image/webp", func(t *testing.T, data []byte) {
			require.True(t, len(data) > 12)
			assert.Equal(t, "RIFF", string(data[:4]))
			assert.Equal(t, "WEBP", string(data[8:12]))
		}},
		{format.AVIF, "image/avif", func(t *testing.T, data []byte) {
			require.True(t, len(data) > 12)
			assert.Equal(t, "ftyp", string(data[4:8]))
			assert.Contains(t, string(data[8:32]), "avif")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			out, err := r.Dispatch(img, Request{Format: tt.format, Quality: 75})
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, out.ContentType)
			assert.Equal(t, tt.format, out.Format)
			assert.Equal(t, tt.format.String(), out.Extension)
			tt.check(t, out.Data)

			back, err := raster.Decode(out.Data, "")
			require.NoError(t, err)
			assert.Equal(t, 48, back.Width)
			assert.Equal(t, 32, back.Height)
			assert.Equal(t, tt.format, back.Source)
		})
	}
}

func TestDispatch_RGBInput(t *testing.T) {
	r := NewRegistry(nil)
	img := noiseImage(t, 16, 16, raster.RGB8)

	for _, f := range format.Outputs {
		out, err := r.Dispatch(img, Request{Format: f, Quality: 60})
		require.NoError(t, err, f.String())
		assert.NotEmpty(t, out.Data)
	}
}

func TestPNG_IgnoresQuality(t *testing.T) {
	r := NewRegistry(nil)
	img := noiseImage(t, 32, 32, raster.RGBA8)

	low, err := r.Dispatch(img, Request{Format: format.PNG, Quality: 1})
	require.NoError(t, err)
	high, err := r.Dispatch(img, Request{Format: format.PNG, Quality: 100})
	require.NoError(t, err)
	assert.Equal(t, low.Data, high.Data)
}

func TestLossy_QualityChangesSize(t *testing.T) {
	r := NewRegistry(nil)
	img := noiseImage(t, 64, 64, raster.RGB8)

	for _, f := range []format.Format{format.JPEG, format.WebP, format.AVIF} {
		t.Run(f.String(), func(t *testing.T) {
			low, err := r.Dispatch(img, Request{Format: f, Quality: 5})
			require.NoError(t, err)
			high, err := r.Dispatch(img, Request{Format: f, Quality: 95})
			require.NoError(t, err)
			assert.Greater(t, len(high.Data), len(low.Data)*3/2,
				"q95=%d bytes, q5=%d bytes", len(high.Data), len(low.Data))
		})
	}
}

func TestRegistry_EncoderSetFallback(t *testing.T) {
	r := NewRegistry([]format.Format{format.PNG, format.WebP})

	assert.Equal(t, []format.Format{format.WebP, format.JPEG, format.PNG}, r.Available())
	assert.Nil(t, r.Get(format.AVIF))
	assert.Equal(t, format.JPEG, r.Resolve(format.AVIF))

	out, err := r.Dispatch(noiseImage(t, 8, 8, raster.RGB8), Request{Format: format.AVIF, Quality: 50})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "encoders: webp, jpeg, png", r.String())
}

type fakeEncoder struct {
	f      format.Format
	data   []byte
	err    error
	panics bool
}

func (e *fakeEncoder) Format() format.Format { return e.f }
func (e *fakeEncoder) Extension() string     { return e.f.Extension() }
func (e *fakeEncoder) Available() bool       { return true }
func (e *fakeEncoder) Encode(*raster.Image, int) ([]byte, error) {
	if e.panics {
		panic("boom")
	}
	return e.data, e.err
}

func TestDispatch_EncoderFailures(t *testing.T) {
	img := noiseImage(t, 4, 4, raster.RGB8)

	tests := map[string]*fakeEncoder{
		"error": {f: format.JPEG, err: errors.New("rejected")},
		"panic": {f: format.JPEG, panics: true},
		"empty": {f: format.JPEG},
	}
	for name, enc := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewRegistryWith([]Encoder{enc}, nil)
			out, err := r.Dispatch(img, Request{Format: format.JPEG})
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrEncode)
		})
	}
}

func TestDispatch_BadBuffer(t *testing.T) {
	r := NewRegistry(nil)
	img := &raster.Image{Width: 4, Height: 4, Layout: raster.RGBA8, Pix: make([]uint8, 3)}

	for _, f := range format.Outputs {
		_, err := r.Dispatch(img, Request{Format: f})
		assert.ErrorIs(t, err, ErrEncode, f.String())
	}
	_, err := r.Dispatch(nil, Request{Format: format.PNG})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestAVIF_DimensionDomain(t *testing.T) {
	img := &raster.Image{Width: avifMaxDimension + 1, Height: 1, Layout: raster.RGB8}
	_, err := (&AVIFEncoder{}).Encode(img, 50)
	assert.ErrorIs(t, err, ErrEncode)

	img = &raster.Image{Width: 65536, Height: 65536, Layout: raster.RGBA8}
	_, err = (&AVIFEncoder{}).Encode(img, 50)
	assert.ErrorIs(t, err, ErrEncode, "w*h*4 overflows 32 bits")
}

func TestWebP_DimensionDomain(t *testing.T) {
	img := &raster.Image{Width: webpMaxDimension + 1, Height: 1, Layout: raster.RGB8}
	_, err := (&WebPEncoder{}).Encode(img, 50)
	assert.ErrorIs(t, err, ErrEncode)
}
