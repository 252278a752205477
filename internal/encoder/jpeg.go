package encoder

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// JPEGEncoder encodes images to JPEG using Go's standard library.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() format.Format { return format.JPEG }
func (e *JPEGEncoder) Extension() string     { return format.JPEG.Extension() }
func (e *JPEGEncoder) Available() bool       { return true }

// Encode writes a baseline JPEG. Quality is on the encoder's native 1-100
// scale; 0 is raised to 1. Alpha is dropped.
func (e *JPEGEncoder) Encode(img *raster.Image, quality int) ([]byte, error) {
	src, err := opaqueView(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // pre-alloc 256KB for typical photos

	err = jpeg.Encode(&buf, src, &jpeg.Options{Quality: clampQuality(quality, 1)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// opaqueView returns an image without alpha so that the JPEG encoder does not
// see premultiplied-to-black edges.
func opaqueView(img *raster.Image) (image.Image, error) {
	if img.Layout == raster.RGBA8 {
		if err := img.Validate(); err != nil {
			return nil, err
		}
		flat := &raster.Image{
			Pix:    make([]uint8, img.Width*img.Height*3),
			Width:  img.Width,
			Height: img.Height,
			Layout: raster.RGB8,
			Source: img.Source,
		}
		for i, j := 0, 0; i < len(img.Pix); i, j = i+4, j+3 {
			copy(flat.Pix[j:j+3], img.Pix[i:i+3])
		}
		img = flat
	}
	return img.NRGBA()
}
