package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	_ "github.com/chai2010/webp"
	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/SMCodesP/imgtransform/internal/format"
)

// MaxPixels bounds width*height of accepted inputs (~100 megapixels).
const MaxPixels = 100_000_000

// ErrDecode reports input bytes that could not be turned into pixels.
var ErrDecode = errors.New("decode failed")

// Decode detects the format of data from its signature and decodes it into a
// packed buffer. contentType is recorded in Image.Declared and otherwise
// ignored.
func Decode(data []byte, contentType string) (img *Image, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	// Third-party decoders are not all hardened against hostile input.
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: decoder panic: %v", ErrDecode, r)
		}
	}()

	info, err := probe(data)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, info.Format, err)
	}

	out, err := FromImage(src, info.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	out.Declared = format.FromContentType(contentType)
	return out, nil
}

// Info is what the header of an encoded image reveals.
type Info struct {
	Width    int
	Height   int
	Format   format.Format
	HasAlpha bool
}

// Probe reads dimensions and format without decoding pixels.
func Probe(data []byte) (info Info, err error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty input", ErrDecode)
	}
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("%w: decoder panic: %v", ErrDecode, r)
		}
	}()
	return probe(data)
}

func probe(data []byte) (Info, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}
	return Info{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format.Parse(name),
		HasAlpha: modelHasAlpha(cfg.ColorModel),
	}, nil
}

func modelHasAlpha(m color.Model) bool {
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}
	switch m {
	case color.YCbCrModel, color.GrayModel, color.Gray16Model, color.CMYKModel:
		return false
	}
	return true
}

// FromImage converts any standard library image into a packed buffer whose
// layout follows the source color model.
func FromImage(src image.Image, source format.Format) (*Image, error) {
	return FromNRGBA(imaging.Clone(src), LayoutOf(src), source)
}

// LayoutOf picks the packed layout for a decoded image: opaque color models
// become RGB8, models that can carry alpha become RGBA8. Unknown models
// widen to RGBA8.
func LayoutOf(img image.Image) Layout {
	switch m := img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return RGB8
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return RGBA8
			}
		}
		return RGB8
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64,
		*image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return RGBA8
	}

	if !modelHasAlpha(img.ColorModel()) {
		return RGB8
	}
	return RGBA8
}
