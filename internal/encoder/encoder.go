package encoder

import (
	"errors"
	"fmt"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// ErrEncode reports a buffer an encoder could not turn into bytes.
var ErrEncode = errors.New("encode failed")

// Encoder encodes a raster image to a specific format.
type Encoder interface {
	// Format returns the output format.
	Format() format.Format

	// Encode converts the image to bytes at the given quality (0-100).
	// Lossless encoders ignore quality.
	Encode(img *raster.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// Request selects the output of a Dispatch call.
type Request struct {
	Format  format.Format
	Quality int
}

// Output is an encoded image.
type Output struct {
	Data        []byte
	ContentType string
	Format      format.Format
	Extension   string // file extension without dot
}

// encodeSafe runs enc and converts panics and plain errors into ErrEncode.
func encodeSafe(enc Encoder, img *raster.Image, quality int) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("%w: %s encoder panic: %v", ErrEncode, enc.Format(), r)
		}
	}()

	data, err = enc.Encode(img, quality)
	if err != nil {
		if errors.Is(err, ErrEncode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, enc.Format(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s encoder produced no data", ErrEncode, enc.Format())
	}
	return data, nil
}

func clampQuality(q, lo int) int {
	switch {
	case q < lo:
		return lo
	case q > 100:
		return 100
	}
	return q
}
