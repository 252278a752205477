package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMCodesP/imgtransform/internal/response"
)

type fakeTransformer struct {
	paths []string
}

func (f *fakeTransformer) Handle(_ context.Context, path string) *response.Envelope {
	f.paths = append(f.paths, path)
	if path == "/missing.jpg/width=1" {
		return response.Error(http.StatusNotFound)
	}
	return response.Image([]byte("img"), "image/webp", 3600)
}

func TestRoutes_Image(t *testing.T) {
	ft := &fakeTransformer{}
	var codes []int
	s := New(Config{OnResponse: func(code int) { codes = append(codes, code) }}, ft, zerolog.Nop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photos/cat.jpg/width=500,format=webp", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "img", rec.Body.String())
	assert.Equal(t, []string{"/photos/cat.jpg/width=500,format=webp"}, ft.paths)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.jpg/width=1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []int{200, 404}, codes)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	ft := &fakeTransformer{}
	s := New(Config{}, ft, zerolog.Nop())
	for _, method := range []string{http.MethodPost, http.MethodHead} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/a.jpg/width=1", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
	assert.Empty(t, ft.paths, "no transform for non-GET requests")
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	ft := &fakeTransformer{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("metrics"))
	})
	s := New(Config{MetricsPath: "/metrics", MetricsHandler: metrics}, ft, zerolog.Nop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())
	assert.Empty(t, ft.paths, "reserved routes never reach the transformer")
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{ShutdownTimeout: time.Second}, &fakeTransformer{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/a.png/width=1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "img", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
