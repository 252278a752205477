package writeback

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMCodesP/imgtransform/internal/storage"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	err     error
	delay   time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storage.Object{}}
}

func (m *memStore) Get(_ context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &obj, nil
}

func (m *memStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		cur := m.maxInflight.Load()
		if n <= cur || m.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storage.Object{Data: data, ContentType: contentType}
	return nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, "photos/cat.jpg/width=500,format=webp", Key("photos/cat.jpg", "width=500,format=webp"))
	assert.Equal(t, "cat.jpg/", Key("cat.jpg", ""))
}

func TestSubmit_Stores(t *testing.T) {
	store := newMemStore()
	w := New(Config{Store: store, Logger: zerolog.Nop()})

	w.Submit("a/b.jpg/width=10", []byte("data"), "image/webp")
	w.Wait()

	obj, err := store.Get(context.Background(), "a/b.jpg/width=10")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), obj.Data)
	assert.Equal(t, "image/webp", obj.ContentType)
	assert.Equal(t, Stats{Submitted: 1, Succeeded: 1}, w.Stats())
}

func TestSubmit_DoesNotBlock(t *testing.T) {
	store := newMemStore()
	store.delay = 200 * time.Millisecond
	w := New(Config{Store: store, Logger: zerolog.Nop(), Concurrency: 1})

	start := time.Now()
	for i := 0; i < 5; i++ {
		w.Submit("k", []byte("x"), "")
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	w.Wait()
}

func TestSubmit_FailureIsLoggedAndCounted(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("access denied")

	var logs bytes.Buffer
	var failedKeys []string
	var mu sync.Mutex
	w := New(Config{
		Store:  store,
		Logger: zerolog.New(&logs),
		OnFailure: func(key string, err error) {
			mu.Lock()
			defer mu.Unlock()
			failedKeys = append(failedKeys, key)
		},
	})

	w.Submit("a/width=1", []byte("x"), "image/jpeg")
	w.Wait()

	assert.Equal(t, Stats{Submitted: 1, Failed: 1}, w.Stats())
	assert.Equal(t, []string{"a/width=1"}, failedKeys)
	assert.Contains(t, logs.String(), "write-back failed")
	assert.Contains(t, logs.String(), "access denied")
}

func TestSubmit_Timeout(t *testing.T) {
	store := newMemStore()
	store.delay = time.Second
	w := New(Config{Store: store, Logger: zerolog.Nop(), Timeout: 20 * time.Millisecond})

	w.Submit("slow", []byte("x"), "")
	w.Wait()
	assert.Equal(t, int64(1), w.Stats().Failed)
}

func TestSubmit_BoundedConcurrency(t *testing.T) {
	store := newMemStore()
	store.delay = 20 * time.Millisecond
	w := New(Config{Store: store, Logger: zerolog.Nop(), Concurrency: 3})

	for i := 0; i < 12; i++ {
		w.Submit("k", []byte("x"), "")
	}
	w.Wait()
	assert.LessOrEqual(t, store.maxInflight.Load(), int32(3))
	assert.Equal(t, int64(12), w.Stats().Succeeded)
}

func TestSubmit_SaturatedQueueDrops(t *testing.T) {
	store := newMemStore()
	store.delay = 200 * time.Millisecond

	var dropped []string
	var mu sync.Mutex
	w := New(Config{
		Store:       store,
		Logger:      zerolog.Nop(),
		Concurrency: 1,
		QueueSize:   1,
		OnFailure: func(key string, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.ErrorIs(t, err, ErrQueueFull)
			dropped = append(dropped, key)
		},
	})

	start := time.Now()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		w.Submit(k, []byte("x"), "")
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "a full queue must not block")
	w.Wait()

	assert.Equal(t, Stats{Submitted: 5, Succeeded: 2, Failed: 3, Dropped: 3}, w.Stats())
	assert.Equal(t, []string{"c", "d", "e"}, dropped)
	assert.Len(t, store.objects, 2)

	// Slots free up once the backlog is written.
	w.Submit("f", []byte("x"), "")
	w.Wait()
	assert.Equal(t, int64(3), w.Stats().Succeeded)
}

func TestDrain(t *testing.T) {
	store := newMemStore()
	store.delay = time.Second
	w := New(Config{Store: store, Logger: zerolog.Nop()})
	w.Submit("k", []byte("x"), "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Drain(ctx), context.DeadlineExceeded)

	w.Wait()
	assert.NoError(t, w.Drain(context.Background()))
}
