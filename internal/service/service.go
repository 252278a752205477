package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/SMCodesP/imgtransform/internal/pipeline"
	"github.com/SMCodesP/imgtransform/internal/response"
	"github.com/SMCodesP/imgtransform/internal/route"
	"github.com/SMCodesP/imgtransform/internal/storage"
	"github.com/SMCodesP/imgtransform/internal/writeback"
)

// StageFetch is the observer stage of the source GET.
const StageFetch = "fetch"

// Config wires a Transformer.
type Config struct {
	Source   storage.ObjectStore
	Pipeline *pipeline.Pipeline
	Writer   *writeback.Writer // nil disables write-back
	MaxAge   int               // Cache-Control max-age in seconds; unset selects response.DefaultMaxAge
	Observer pipeline.Observer
	Logger   zerolog.Logger

	// NotFoundStatus is returned for missing source keys; zero means 404.
	NotFoundStatus int
}

// Transformer answers "/<key>/<operations>" requests.
type Transformer struct {
	source   storage.ObjectStore
	pipe     *pipeline.Pipeline
	writer   *writeback.Writer
	maxAge   int
	observer pipeline.Observer
	log      zerolog.Logger
	notFound int
}

// New creates a Transformer.
func New(cfg Config) *Transformer {
	if cfg.Observer == nil {
		cfg.Observer = pipeline.NopObserver{}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = response.DefaultMaxAge
	}
	if cfg.NotFoundStatus == 0 {
		cfg.NotFoundStatus = http.StatusNotFound
	}
	return &Transformer{
		source:   cfg.Source,
		pipe:     cfg.Pipeline,
		writer:   cfg.Writer,
		maxAge:   cfg.MaxAge,
		observer: cfg.Observer,
		log:      cfg.Logger,
		notFound: cfg.NotFoundStatus,
	}
}

// Handle serves one request path. It always returns an envelope; failures
// become short plain-text responses and are logged here.
func (t *Transformer) Handle(ctx context.Context, path string) *response.Envelope {
	ops, key := route.Split(path)
	return t.Transform(ctx, key, ops)
}

// Transform fetches key, applies ops and schedules the write-back.
func (t *Transformer) Transform(ctx context.Context, key, ops string) *response.Envelope {
	l := t.log.With().Str("key", key).Str("ops", ops).Logger()

	if key == "" {
		l.Debug().Msg("request without a source key")
		return response.Error(t.notFound)
	}

	start := time.Now()
	obj, err := t.source.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			l.Info().Msg("source not found")
			return response.Error(t.notFound)
		}
		l.Error().Err(err).Msg("failed to fetch source")
		return response.Error(http.StatusInternalServerError)
	}
	t.observer.Observe(StageFetch, time.Since(start))

	out, err := t.pipe.Process(obj.Data, obj.ContentType, ops)
	if err != nil {
		l.Error().Err(err).Int("bytes", len(obj.Data)).Msg("failed to transform image")
		return response.Error(http.StatusInternalServerError)
	}

	if t.writer != nil {
		t.writer.Submit(writeback.Key(key, ops), out.Data, out.ContentType)
	}

	l.Debug().Str("format", out.Format.String()).Int("width", out.Width).Int("height", out.Height).
		Int("bytes", len(out.Data)).Msg("transformed")
	return response.Image(out.Data, out.ContentType, t.maxAge)
}
