package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/SMCodesP/imgtransform/internal/config"
	"github.com/SMCodesP/imgtransform/internal/metrics"
	"github.com/SMCodesP/imgtransform/internal/pipeline"
	"github.com/SMCodesP/imgtransform/internal/profile"
	"github.com/SMCodesP/imgtransform/internal/resize"
	"github.com/SMCodesP/imgtransform/internal/service"
	"github.com/SMCodesP/imgtransform/internal/storage"
	"github.com/SMCodesP/imgtransform/internal/writeback"
)

// resolveProfile applies the pipeline overrides of c to the named profile.
func resolveProfile(c config.Pipeline) (profile.Profile, error) {
	prof := profile.Get(c.Profile)
	if _, ok := profile.Lookup(c.Profile); !ok {
		logger.Warn().Str("profile", c.Profile).Strs("known", profile.Names()).
			Msg("unknown profile, using default settings")
	}
	if c.ResizeStrategy != "" {
		s, err := resize.ParseStrategy(c.ResizeStrategy)
		if err != nil {
			return profile.Profile{}, err
		}
		prof = prof.WithStrategy(s)
	}
	if c.DefaultQuality > 0 {
		prof = prof.WithQuality(c.DefaultQuality)
	}
	return prof, nil
}

func newPipeline(obs pipeline.Observer) (*pipeline.Pipeline, error) {
	prof, err := resolveProfile(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("profile", prof.Name).Str("strategy", prof.Strategy.String()).
		Int("quality", prof.Quality).Msg("pipeline configured")
	return pipeline.New(pipeline.Config{
		Profile:  prof,
		Observer: obs,
		Logger:   logger.With().Str("component", "pipeline").Logger(),
	}), nil
}

// newObserver returns the stage observer and, when metrics are enabled, the
// Prometheus collector behind it.
func newObserver() (pipeline.Observer, *metrics.Prometheus) {
	obs := metrics.Multi{metrics.LogObserver{Logger: logger}}
	if !cfg.Metrics.Enabled {
		return obs, nil
	}
	prom := metrics.NewPrometheus()
	return append(obs, prom), prom
}

// stack is everything a request handler needs, plus the resources to release
// when it stops.
type stack struct {
	transformer *service.Transformer
	writer      *writeback.Writer
	prom        *metrics.Prometheus
	closers     []io.Closer
}

func (s *stack) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}
}

func openStore(ctx context.Context, name string, c config.Store, s *stack) (storage.ObjectStore, error) {
	store, err := storage.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", name, err)
	}
	if cl, ok := store.(io.Closer); ok {
		s.closers = append(s.closers, cl)
	}
	logger.Info().Str("store", name).Str("backend", c.Backend).Msg("store ready")
	return store, nil
}

// newStack wires stores, pipeline, write-back and metrics from the loaded
// configuration. notFound is the status for missing source keys.
func newStack(ctx context.Context, notFound int) (*stack, error) {
	s := &stack{}
	obs, prom := newObserver()
	s.prom = prom

	pipe, err := newPipeline(obs)
	if err != nil {
		return nil, err
	}

	source, err := openStore(ctx, "source", cfg.Source, s)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.Writeback.Enabled {
		optimized, err := openStore(ctx, "optimized", cfg.Optimized, s)
		if err != nil {
			s.Close()
			return nil, err
		}
		wcfg := writeback.Config{
			Store:       optimized,
			Logger:      logger.With().Str("component", "writeback").Logger(),
			Concurrency: cfg.Writeback.Concurrency,
			Timeout:     cfg.Writeback.Timeout,
			QueueSize:   cfg.Writeback.QueueSize,
		}
		if prom != nil {
			wcfg.OnFailure = prom.WritebackFailed
		}
		s.writer = writeback.New(wcfg)
	}

	s.transformer = service.New(service.Config{
		Source:         source,
		Pipeline:       pipe,
		Writer:         s.writer,
		MaxAge:         cfg.Cache.MaxAge,
		Observer:       obs,
		Logger:         logger.With().Str("component", "service").Logger(),
		NotFoundStatus: notFound,
	})
	return s, nil
}

// drain waits for pending write-backs, bounded by the shutdown timeout.
func (s *stack) drain() {
	if s.writer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.writer.Drain(ctx); err != nil {
		logger.Warn().Err(err).Msg("write-back did not drain")
	}
	st := s.writer.Stats()
	logger.Info().Int64("submitted", st.Submitted).Int64("succeeded", st.Succeeded).
		Int64("failed", st.Failed).Int64("dropped", st.Dropped).Msg("write-back finished")
}
