// Package raster holds the decoded pixel buffer that flows through a
// transform: tightly packed 8-bit RGB or RGBA rows plus the format the bytes
// were decoded from.
package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/SMCodesP/imgtransform/internal/format"
)

// Layout is the channel arrangement of Image.Pix.
type Layout int

const (
	LayoutUnknown Layout = iota
	RGB8                 // 3 channels, no alpha
	RGBA8                // 4 channels, non-premultiplied alpha
)

func (l Layout) String() string {
	switch l {
	case RGB8:
		return "rgb8"
	case RGBA8:
		return "rgba8"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Channels returns bytes per pixel, or 0 for an unsupported layout.
func (l Layout) Channels() int {
	switch l {
	case RGB8:
		return 3
	case RGBA8:
		return 4
	default:
		return 0
	}
}

// ErrLayout reports a buffer whose layout or length cannot be interpreted.
var ErrLayout = errors.New("unsupported pixel layout")

// Image is a decoded picture. It is never modified after construction;
// transforms return a new Image.
type Image struct {
	Pix    []uint8
	Width  int
	Height int
	Layout Layout

	// Source is the format detected from the input bytes.
	Source format.Format
	// Declared is the format the caller claimed (e.g. from a Content-Type),
	// Unknown when none was given. It is informational only.
	Declared format.Format
}

// Channels returns bytes per pixel.
func (m *Image) Channels() int { return m.Layout.Channels() }

// Validate checks that dimensions, layout and buffer length agree.
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrLayout)
	}
	c := m.Layout.Channels()
	if c == 0 {
		return fmt.Errorf("%w: %s", ErrLayout, m.Layout)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrLayout, m.Width, m.Height)
	}
	if want := m.Width * m.Height * c; len(m.Pix) != want {
		return fmt.Errorf("%w: buffer is %d bytes, %dx%d %s needs %d",
			ErrLayout, len(m.Pix), m.Width, m.Height, m.Layout, want)
	}
	return nil
}

// NRGBA expands the buffer into a standard library image. RGB8 pixels get an
// opaque alpha channel.
func (m *Image) NRGBA() (*image.NRGBA, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	switch m.Layout {
	case RGBA8:
		copy(out.Pix, m.Pix)
	case RGB8:
		for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
			out.Pix[j+0] = m.Pix[i+0]
			out.Pix[j+1] = m.Pix[i+1]
			out.Pix[j+2] = m.Pix[i+2]
			out.Pix[j+3] = 0xff
		}
	}
	return out, nil
}

// FromNRGBA packs src into a new Image with the requested layout. RGB8
// discards alpha.
func FromNRGBA(src *image.NRGBA, layout Layout, source format.Format) (*Image, error) {
	c := layout.Channels()
	if c == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLayout, layout)
	}
	b := src.Rect
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrLayout, w, h)
	}

	pix := make([]uint8, w*h*c)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := pix[y*w*c : (y+1)*w*c]
		if layout == RGBA8 {
			copy(dst, row[:w*4])
			continue
		}
		for x := 0; x < w; x++ {
			dst[x*3+0] = row[x*4+0]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}

	return &Image{
		Pix:    pix,
		Width:  w,
		Height: h,
		Layout: layout,
		Source: source,
	}, nil
}
