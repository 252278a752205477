package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SMCodesP/imgtransform/internal/hasher"
	"github.com/SMCodesP/imgtransform/internal/manifest"
	"github.com/SMCodesP/imgtransform/internal/operations"
	"github.com/SMCodesP/imgtransform/internal/pipeline"
	"github.com/SMCodesP/imgtransform/internal/raster"
	"github.com/SMCodesP/imgtransform/internal/storage"
	"github.com/SMCodesP/imgtransform/internal/writeback"
)

// ErrNoImages is returned when the input directory holds no images.
var ErrNoImages = errors.New("no images found")

// Config holds all parameters for a batch run.
type Config struct {
	InputDir   string
	Operations []string // each one is applied to every source
	Workers    int      // 0 = NumCPU
	Canonical  bool     // store under the canonical operation string

	Pipeline  *pipeline.Pipeline
	Store     storage.ObjectStore
	StoreName string // recorded in the manifest
	Logger    zerolog.Logger

	// NoRegressSize skips variants whose encoded size is not smaller than
	// the source file.
	NoRegressSize bool
}

// Runner transforms a directory of images into a store.
type Runner struct {
	cfg Config
}

// New creates a configured runner.
func New(cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if len(cfg.Operations) == 0 {
		cfg.Operations = []string{""}
	}
	return &Runner{cfg: cfg}
}

// result holds the outcome of processing a single source image.
type result struct {
	key     string
	asset   manifest.Asset
	failed  int
	skipped int
	err     error
}

// Run executes the batch and returns the manifest. Individual failures are
// logged and counted; Run fails only when nothing could be processed.
func (r *Runner) Run(ctx context.Context) (*manifest.Manifest, error) {
	log := r.cfg.Logger
	log.Debug().Str("encoders", r.cfg.Pipeline.Registry().String()).Msg("starting batch")

	// Step 1: Scan for images.
	sources, err := ScanImages(r.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, r.cfg.InputDir)
	}
	log.Info().Int("images", len(sources)).Int("operations", len(r.cfg.Operations)).Msg("scanned input")

	// Step 2: Process images in parallel.
	results := make([]result, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results[idx] = result{key: s.Key, err: err}
				return
			}
			log.Debug().Str("key", s.Key).Msg("processing")
			results[idx] = r.process(ctx, s)
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into manifest.
	prof := r.cfg.Pipeline.Profile()
	m := manifest.New(prof.Name, r.cfg.StoreName)

	var errs int
	var failed, skipped int
	for _, res := range results {
		if res.err != nil {
			errs++
			log.Error().Err(res.err).Str("key", res.key).Msg("source failed")
			continue
		}
		m.Assets[res.key] = res.asset
		failed += res.failed
		skipped += res.skipped
	}
	if errs == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", errs)
	}
	if errs > 0 {
		log.Warn().Msgf("%d of %d images had errors", errs, len(sources))
	}

	var encoders []string
	for _, f := range r.cfg.Pipeline.Registry().Available() {
		encoders = append(encoders, f.String())
	}
	m.BuildInfo = &manifest.BuildInfo{
		Workers:    r.cfg.Workers,
		Strategy:   prof.Strategy.String(),
		Encoders:   encoders,
		Operations: r.cfg.Operations,
	}
	m.ComputeStats()
	m.Stats.Failed = failed + errs*len(r.cfg.Operations)
	if skipped > 0 {
		log.Info().Int("variants", skipped).Msg("skipped variants not smaller than the source")
	}
	return m, nil
}

// process applies every operation string to one source.
func (r *Runner) process(ctx context.Context, src Source) result {
	res := result{key: src.Key}
	log := r.cfg.Logger.With().Str("key", src.Key).Logger()

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		res.err = fmt.Errorf("read %s: %w", src.Key, err)
		return res
	}
	info, err := raster.Probe(data)
	if err != nil {
		res.err = err
		return res
	}

	res.asset = manifest.Asset{
		Original: manifest.OriginalInfo{
			Width:    info.Width,
			Height:   info.Height,
			Format:   info.Format.String(),
			Size:     src.Size,
			HasAlpha: info.HasAlpha,
		},
		AspectRatio: float64(info.Width) / float64(info.Height),
	}

	for _, ops := range r.cfg.Operations {
		if r.cfg.Canonical {
			ops = operations.Parse(ops).Canonical()
		}
		out, err := r.cfg.Pipeline.Process(data, src.Format.ContentType(), ops)
		if err != nil {
			res.failed++
			log.Warn().Err(err).Str("ops", ops).Msg("transform failed")
			continue
		}

		// Skip variant if encoded size >= original (--no-regress-size).
		if r.cfg.NoRegressSize && int64(len(out.Data)) >= src.Size {
			log.Debug().Str("ops", ops).Int("encoded", len(out.Data)).Int64("original", src.Size).
				Msg("skip: not smaller than original")
			res.skipped++
			continue
		}

		key := writeback.Key(src.Key, ops)
		if r.cfg.Store != nil {
			if err := r.cfg.Store.Put(ctx, key, out.Data, out.ContentType); err != nil {
				res.failed++
				log.Error().Err(err).Str("ops", ops).Msg("store failed")
				continue
			}
		}

		res.asset.Variants = append(res.asset.Variants, manifest.Variant{
			Operations:  ops,
			Format:      out.Format.String(),
			ContentType: out.ContentType,
			Width:       out.Width,
			Height:      out.Height,
			Size:        int64(len(out.Data)),
			Hash:        hasher.ContentHash(out.Data, 16),
			Key:         key,
		})
	}
	return res
}
