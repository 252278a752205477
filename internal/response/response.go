package response

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/SMCodesP/imgtransform/internal/hasher"
)

// DefaultMaxAge is the Cache-Control max-age of transformed images, in seconds.
const DefaultMaxAge = 3600

// Envelope is a transport-neutral HTTP response.
type Envelope struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Image builds a 200 response for an encoded image.
func Image(data []byte, contentType string, maxAge int) *Envelope {
	return &Envelope{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":  contentType,
			"Cache-Control": "max-age=" + strconv.Itoa(maxAge),
			"ETag":          hasher.ETag(data),
		},
		Body: data,
	}
}

// Error builds a short plain-text failure response. The body never carries
// internal error details.
func Error(status int) *Envelope {
	return &Envelope{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       []byte(http.StatusText(status)),
	}
}

// Base64 returns the body encoded for transports that cannot carry binary.
func (e *Envelope) Base64() string {
	return base64.StdEncoding.EncodeToString(e.Body)
}

// Write copies the envelope to an http.ResponseWriter.
func (e *Envelope) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range e.Headers {
		h.Set(k, v)
	}
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	w.WriteHeader(e.StatusCode)
	_, err := w.Write(e.Body)
	return err
}
