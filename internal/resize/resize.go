// Package resize scales a raster.Image to a target width while preserving
// aspect ratio and pixel layout.
package resize

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/SMCodesP/imgtransform/internal/raster"
)

// MaxDimension is the largest width or height a resize may produce.
const MaxDimension = 65535

// ErrResize reports a resize that cannot be performed.
var ErrResize = errors.New("resize failed")

// Strategy selects the resampling implementation.
type Strategy int

const (
	// Parallel resamples with a Lanczos kernel, splitting rows across
	// GOMAXPROCS goroutines.
	Parallel Strategy = iota
	// Triangle resamples with a fixed bilinear (triangle) kernel.
	Triangle
)

func (s Strategy) String() string {
	switch s {
	case Parallel:
		return "parallel"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a config value to a Strategy. Empty selects Parallel.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "parallel", "lanczos":
		return Parallel, nil
	case "triangle", "bilinear", "simple":
		return Triangle, nil
	default:
		return Parallel, fmt.Errorf("unknown resize strategy %q", name)
	}
}

// TargetSize computes the output dimensions for scaling a w0×h0 image to
// width: height is round(h0*width/w0) and both sides are at least 1. The
// target area is bounded by raster.MaxPixels, like decoded inputs.
func TargetSize(w0, h0 int, width uint32) (int, int, error) {
	if w0 <= 0 || h0 <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid source dimensions %dx%d", ErrResize, w0, h0)
	}
	w := int(width)
	h := int(math.Round(float64(h0) * float64(width) / float64(w0)))
	w = max(w, 1)
	h = max(h, 1)
	if w > MaxDimension || h > MaxDimension {
		return 0, 0, fmt.Errorf("%w: target %dx%d exceeds %d", ErrResize, w, h, MaxDimension)
	}
	if int64(w)*int64(h) > raster.MaxPixels {
		return 0, 0, fmt.Errorf("%w: target %dx%d exceeds %d pixels", ErrResize, w, h, raster.MaxPixels)
	}
	return w, h, nil
}

// Resizer scales images with a fixed strategy. It holds no mutable state and
// is safe for concurrent use.
type Resizer struct {
	Strategy Strategy
}

// New returns a Resizer using s.
func New(s Strategy) *Resizer {
	return &Resizer{Strategy: s}
}

// Resize returns a new image scaled to width with the source layout. The
// input is not modified.
func (r *Resizer) Resize(img *raster.Image, width uint32) (out *raster.Image, err error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrResize)
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResize, err)
	}
	w, h, err := TargetSize(img.Width, img.Height, width)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: %s resampler panic: %v", ErrResize, r.Strategy, rec)
		}
	}()

	src, err := img.NRGBA()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResize, err)
	}

	var scaled image.Image
	switch r.Strategy {
	case Parallel:
		scaled = imaging.Resize(src, w, h, imaging.Lanczos)
	case Triangle:
		scaled = resize.Resize(uint(w), uint(h), src, resize.Bilinear)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %s", ErrResize, r.Strategy)
	}

	nrgba, ok := scaled.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(scaled)
	}
	if b := nrgba.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("%w: resampler produced %dx%d, want %dx%d", ErrResize, b.Dx(), b.Dy(), w, h)
	}

	out, err = raster.FromNRGBA(nrgba, img.Layout, img.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: reconstruct %s buffer: %v", ErrResize, img.Layout, err)
	}
	out.Declared = img.Declared
	return out, nil
}
