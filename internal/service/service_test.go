package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMCodesP/imgtransform/internal/fixture"
	"github.com/SMCodesP/imgtransform/internal/pipeline"
	"github.com/SMCodesP/imgtransform/internal/raster"
	"github.com/SMCodesP/imgtransform/internal/storage"
	"github.com/SMCodesP/imgtransform/internal/writeback"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	getErr  error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storage.Object{}}
}

func (m *memStore) Get(_ context.Context, key string) (*storage.Object, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &obj, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storage.Object{Data: data, ContentType: contentType}
	return nil
}

func newTransformer(source, optimized storage.ObjectStore) (*Transformer, *writeback.Writer) {
	w := writeback.New(writeback.Config{Store: optimized, Logger: zerolog.Nop()})
	return New(Config{
		Source:   source,
		Pipeline: pipeline.New(pipeline.Config{Logger: zerolog.Nop()}),
		Writer:   w,
		Logger:   zerolog.Nop(),
	}), w
}

func TestHandle_Success(t *testing.T) {
	source := newMemStore()
	source.objects["photos/car.jpg"] = storage.Object{
		Data:        fixture.JPEG(fixture.Gradient(1000, 500)),
		ContentType: "image/jpeg",
	}
	optimized := newMemStore()
	tr, w := newTransformer(source, optimized)

	env := tr.Handle(context.Background(), "/photos/car.jpg/width=500,format=webp,quality=80")
	w.Wait()

	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "image/webp", env.Headers["Content-Type"])
	assert.Equal(t, "max-age=3600", env.Headers["Cache-Control"])

	img, err := raster.Decode(env.Body, "")
	require.NoError(t, err)
	assert.Equal(t, 500, img.Width)
	assert.Equal(t, 250, img.Height)

	stored, err := optimized.Get(context.Background(), "photos/car.jpg/width=500,format=webp,quality=80")
	require.NoError(t, err)
	assert.Equal(t, env.Body, stored.Data)
	assert.Equal(t, "image/webp", stored.ContentType)
}

func TestHandle_WritebackFailureDoesNotChangeResponse(t *testing.T) {
	source := newMemStore()
	source.objects["a.png"] = storage.Object{Data: fixture.PNG(fixture.Noise(40, 20)), ContentType: "image/png"}

	good, gw := newTransformer(source, newMemStore())
	broken := newMemStore()
	broken.putErr = errors.New("bucket gone")
	bad, bw := newTransformer(source, broken)

	want := good.Handle(context.Background(), "/a.png/format=png,width=20")
	got := bad.Handle(context.Background(), "/a.png/format=png,width=20")
	gw.Wait()
	bw.Wait()

	assert.Equal(t, want.StatusCode, got.StatusCode)
	assert.Equal(t, want.Headers, got.Headers)
	assert.Equal(t, want.Body, got.Body)
	assert.Equal(t, int64(1), bw.Stats().Failed)
}

func TestHandle_Failures(t *testing.T) {
	source := newMemStore()
	source.objects["broken.jpg"] = storage.Object{Data: []byte("not an image"), ContentType: "image/jpeg"}
	optimized := newMemStore()
	tr, w := newTransformer(source, optimized)

	tests := map[string]struct {
		path   string
		status int
	}{
		"missing source": {"/nope.jpg/width=10", http.StatusNotFound},
		"no key":         {"/width=10", http.StatusNotFound},
		"corrupt source": {"/broken.jpg/width=10", http.StatusInternalServerError},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := tr.Handle(context.Background(), tt.path)
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, "text/plain; charset=utf-8", env.Headers["Content-Type"])
			assert.Equal(t, http.StatusText(tt.status), string(env.Body))
		})
	}
	w.Wait()
	assert.Empty(t, optimized.objects, "failed requests are never written back")
}

func TestHandle_SourceError(t *testing.T) {
	source := newMemStore()
	source.getErr = errors.New("connection reset")
	tr, _ := newTransformer(source, newMemStore())

	env := tr.Handle(context.Background(), "/a.jpg/width=10")
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
}

func TestHandle_NotFoundStatus(t *testing.T) {
	tr := New(Config{
		Source:         newMemStore(),
		Pipeline:       pipeline.New(pipeline.Config{Logger: zerolog.Nop()}),
		Logger:         zerolog.Nop(),
		NotFoundStatus: http.StatusInternalServerError,
		MaxAge:         60,
	})
	env := tr.Handle(context.Background(), "/a.jpg/width=10")
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
}

func TestHandle_NoWriter(t *testing.T) {
	source := newMemStore()
	source.objects["a.png"] = storage.Object{Data: fixture.PNG(fixture.Gradient(8, 8))}
	tr := New(Config{
		Source:   source,
		Pipeline: pipeline.New(pipeline.Config{Logger: zerolog.Nop()}),
		Logger:   zerolog.Nop(),
		MaxAge:   60,
	})

	env := tr.Handle(context.Background(), "/a.png/")
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "image/jpeg", env.Headers["Content-Type"])
	assert.Equal(t, "max-age=60", env.Headers["Cache-Control"])
}
