package encoder

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/avif"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// avifMaxDimension is the largest side the AV1 still-image encoder accepts.
const avifMaxDimension = 65536

// avifFastest is the encoder speed preset, 0 = slowest, 10 = fastest.
const avifFastest = 10

// AVIFEncoder encodes images to AVIF in-process.
type AVIFEncoder struct {
	// Speed overrides the fastest preset when in 1-9.
	Speed int
}

func (e *AVIFEncoder) Format() format.Format { return format.AVIF }
func (e *AVIFEncoder) Extension() string     { return format.AVIF.Extension() }
func (e *AVIFEncoder) Available() bool       { return true }

func (e *AVIFEncoder) Encode(img *raster.Image, quality int) ([]byte, error) {
	pixels, err := avifPixels(img)
	if err != nil {
		return nil, err
	}

	speed := avifFastest
	if e.Speed > 0 && e.Speed < avifFastest {
		speed = e.Speed
	}
	q := clampQuality(quality, 0)

	var buf bytes.Buffer
	err = avif.Encode(&buf, pixels, avif.Options{
		Quality:      q,
		QualityAlpha: q,
		Speed:        speed,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// avifPixels validates the dimensions against the encoder's numeric domain
// and flattens the buffer into explicit RGBA pixels.
func avifPixels(img *raster.Image) (*image.NRGBA, error) {
	if img.Width <= 0 || img.Height <= 0 ||
		img.Width > avifMaxDimension || img.Height > avifMaxDimension {
		return nil, fmt.Errorf("%w: avif: dimensions %dx%d outside 1..%d",
			ErrEncode, img.Width, img.Height, avifMaxDimension)
	}
	n := uint64(img.Width) * uint64(img.Height)
	if n > uint64(^uint32(0))/4 {
		return nil, fmt.Errorf("%w: avif: %dx%d overflows the RGBA buffer", ErrEncode, img.Width, img.Height)
	}

	return img.NRGBA()
}
