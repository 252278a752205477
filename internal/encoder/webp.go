package encoder

import (
	"bytes"
	"fmt"

	"github.com/chai2010/webp"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/raster"
)

// webpMaxDimension is the largest side libwebp accepts.
const webpMaxDimension = 16383

// WebPEncoder encodes images to lossy WebP in-process with libwebp.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() format.Format { return format.WebP }
func (e *WebPEncoder) Extension() string     { return format.WebP.Extension() }
func (e *WebPEncoder) Available() bool       { return true }

// Encode converts the buffer to RGBA and encodes it at quality on libwebp's
// 0.0-100.0 scale.
func (e *WebPEncoder) Encode(img *raster.Image, quality int) ([]byte, error) {
	if img.Width > webpMaxDimension || img.Height > webpMaxDimension {
		return nil, fmt.Errorf("%w: webp: %dx%d exceeds %d", ErrEncode, img.Width, img.Height, webpMaxDimension)
	}
	rgba, err := img.NRGBA()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = webp.Encode(&buf, rgba, &webp.Options{Quality: float32(clampQuality(quality, 0))})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
