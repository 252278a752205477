package format

import "strings"

// Format identifies an image container format.
type Format int

const (
	Unknown Format = iota
	JPEG
	PNG
	WebP
	AVIF
	GIF
	BMP
	TIFF
)

// Default is the output format used when none (or an unknown one) is requested.
const Default = JPEG

// Outputs lists the formats the encoder set may produce, in priority order.
var Outputs = []Format{AVIF, WebP, JPEG, PNG}

var names = map[Format]string{
	JPEG: "jpeg",
	PNG:  "png",
	WebP: "webp",
	AVIF: "avif",
	GIF:  "gif",
	BMP:  "bmp",
	TIFF: "tiff",
}

var contentTypes = map[Format]string{
	JPEG: "image/jpeg",
	PNG:  "image/png",
	WebP: "image/webp",
	AVIF: "image/avif",
	GIF:  "image/gif",
	BMP:  "image/bmp",
	TIFF: "image/tiff",
}

func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "unknown"
}

// ContentType returns the MIME type, or application/octet-stream for Unknown.
func (f Format) ContentType() string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Extension returns the file extension without dot.
func (f Format) Extension() string {
	return f.String()
}

// IsOutput reports whether f can be produced by the encoders.
func (f Format) IsOutput() bool {
	for _, o := range Outputs {
		if o == f {
			return true
		}
	}
	return false
}

// Parse maps a format name to a Format. Names are case-insensitive and "jpg"
// is accepted as an alias. Unknown names return Unknown.
func Parse(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpeg", "jpg":
		return JPEG
	case "png":
		return PNG
	case "webp":
		return WebP
	case "avif":
		return AVIF
	case "gif":
		return GIF
	case "bmp":
		return BMP
	case "tiff", "tif":
		return TIFF
	default:
		return Unknown
	}
}

// FromContentType maps a MIME type (parameters allowed) to a Format.
func FromContentType(ct string) Format {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for f, v := range contentTypes {
		if v == ct {
			return f
		}
	}
	if ct == "image/jpg" {
		return JPEG
	}
	return Unknown
}
