package encoder

import (
	"fmt"
	"image/png"
	"strings"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// Registry holds the enabled encoders and routes each request to one of them.
type Registry struct {
	encoders map[format.Format]Encoder
}

// All returns one encoder for every output format.
func All() []Encoder {
	return []Encoder{
		&AVIFEncoder{},
		&WebPEncoder{},
		&JPEGEncoder{},
		&PNGEncoder{Compression: png.DefaultCompression},
	}
}

// NewRegistry creates a registry restricted to the formats in set. An empty
// set enables every format. JPEG is always enabled as the fallback.
func NewRegistry(set []format.Format) *Registry {
	return NewRegistryWith(All(), set)
}

// NewRegistryWith is NewRegistry over a caller-supplied encoder list.
func NewRegistryWith(all []Encoder, set []format.Format) *Registry {
	r := &Registry{
		encoders: make(map[format.Format]Encoder),
	}

	enabled := map[format.Format]bool{format.Default: true}
	for _, f := range set {
		enabled[f] = true
	}

	for _, enc := range all {
		if !enc.Available() {
			continue
		}
		if len(set) == 0 || enabled[enc.Format()] {
			r.encoders[enc.Format()] = enc
		}
	}

	return r
}

// Get returns the encoder for the given format, or nil if not enabled.
func (r *Registry) Get(f format.Format) Encoder {
	return r.encoders[f]
}

// Available returns all enabled formats in priority order.
func (r *Registry) Available() []format.Format {
	var result []format.Format
	for _, f := range format.Outputs {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// Resolve maps a requested format to the one that will be produced: formats
// outside the enabled set fall back to JPEG.
func (r *Registry) Resolve(f format.Format) format.Format {
	if _, ok := r.encoders[f]; ok {
		return f
	}
	return format.Default
}

// Dispatch encodes img as requested. The image is always re-encoded, even
// when its source format already matches the request.
func (r *Registry) Dispatch(img *raster.Image, req Request) (*Output, error) {
	target := r.Resolve(req.Format)
	enc := r.encoders[target]
	if enc == nil {
		return nil, fmt.Errorf("%w: no encoder for %s", ErrEncode, target)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrEncode)
	}

	data, err := encodeSafe(enc, img, req.Quality)
	if err != nil {
		return nil, err
	}
	return &Output{
		Data:        data,
		ContentType: target.ContentType(),
		Format:      target,
		Extension:   enc.Extension(),
	}, nil
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	names := make([]string, len(avail))
	for i, f := range avail {
		names[i] = f.String()
	}
	return fmt.Sprintf("encoders: %s", strings.Join(names, ", "))
}
