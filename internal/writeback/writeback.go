package writeback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/SMCodesP/imgtransform/internal/storage"
)

// ErrQueueFull is reported to OnFailure for writes dropped because too many
// were already pending.
var ErrQueueFull = errors.New("write-back queue full")

// Key returns the store key of a transformed object.
func Key(sourceKey, operations string) string {
	return sourceKey + "/" + operations
}

// Config holds Writer parameters.
type Config struct {
	Store       storage.ObjectStore
	Logger      zerolog.Logger
	Concurrency int           // concurrent PUTs, default 8
	Timeout     time.Duration // per PUT, default 30s
	QueueSize   int           // writes waiting for a PUT slot, default 4 per slot

	// OnFailure is called once per failed PUT, after logging.
	OnFailure func(key string, err error)
}

// Stats counts write-back outcomes since the Writer was created.
type Stats struct {
	Submitted int64
	Succeeded int64
	Failed    int64 // includes Dropped
	Dropped   int64 // rejected because the queue was full
}

// Writer stores transformed objects in the background. Writes are
// at-most-once: a failed PUT is logged and dropped.
type Writer struct {
	store     storage.ObjectStore
	log       zerolog.Logger
	timeout   time.Duration
	sem       chan struct{} // running PUTs
	pending   chan struct{} // running plus queued writes
	onFailure func(string, error)
	wg        sync.WaitGroup

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// New creates a Writer.
func New(cfg Config) *Writer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4 * cfg.Concurrency
	}
	return &Writer{
		store:     cfg.Store,
		log:       cfg.Logger,
		timeout:   cfg.Timeout,
		sem:       make(chan struct{}, cfg.Concurrency),
		pending:   make(chan struct{}, cfg.Concurrency+cfg.QueueSize),
		onFailure: cfg.OnFailure,
	}
}

// Submit schedules a PUT and returns immediately. data must not be modified
// afterwards. When Concurrency+QueueSize writes are already pending the write
// is dropped and counted as failed.
func (w *Writer) Submit(key string, data []byte, contentType string) {
	w.submitted.Add(1)
	select {
	case w.pending <- struct{}{}:
	default:
		w.drop(key, len(data))
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.pending }()
		w.sem <- struct{}{}        // acquire
		defer func() { <-w.sem }() // release

		w.put(key, data, contentType)
	}()
}

func (w *Writer) drop(key string, size int) {
	w.dropped.Add(1)
	w.failed.Add(1)
	w.log.Warn().Str("key", key).Int("bytes", size).Int("pending", cap(w.pending)).Msg("write-back dropped, queue full")
	if w.onFailure != nil {
		w.onFailure(key, ErrQueueFull)
	}
}

func (w *Writer) put(key string, data []byte, contentType string) {
	// Detached from the request: the response may already be gone.
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	err := w.store.Put(ctx, key, data, contentType)
	if err != nil {
		w.failed.Add(1)
		w.log.Error().Err(err).Str("key", key).Int("bytes", len(data)).Msg("write-back failed")
		if w.onFailure != nil {
			w.onFailure(key, err)
		}
		return
	}
	w.succeeded.Add(1)
	w.log.Debug().Str("key", key).Int("bytes", len(data)).Dur("took", time.Since(start)).Msg("write-back stored")
}

// Wait blocks until every submitted write has finished.
func (w *Writer) Wait() {
	w.wg.Wait()
}

// Drain is Wait bounded by ctx.
func (w *Writer) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (w *Writer) Stats() Stats {
	return Stats{
		Submitted: w.submitted.Load(),
		Succeeded: w.succeeded.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}
