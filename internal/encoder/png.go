package encoder

import (
	"bytes"
	"image/png"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// PNGEncoder encodes images to PNG using Go's standard library.
// Lossless: quality is ignored and output depends only on the pixels.
type PNGEncoder struct {
	Compression png.CompressionLevel
}

func (e *PNGEncoder) Format() format.Format { return format.PNG }
func (e *PNGEncoder) Extension() string     { return format.PNG.Extension() }
func (e *PNGEncoder) Available() bool       { return true }

func (e *PNGEncoder) Encode(img *raster.Image, _ int) ([]byte, error) {
	src, err := img.NRGBA()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(512 * 1024) // pre-alloc 512KB

	// Opaque NRGBA is written as truecolor without alpha.
	enc := &png.Encoder{CompressionLevel: e.Compression}
	if err := enc.Encode(&buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
