package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/SMCodesP/imgtransform/internal/encoder"
	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/operations"
	"github.com/SMCodesP/imgtransform/internal/profile"
	"github.com/SMCodesP/imgtransform/internal/raster"
	"github.com/SMCodesP/imgtransform/internal/resize"
)

// Config holds the fixed parameters of a pipeline.
type Config struct {
	Profile  profile.Profile
	Observer Observer
	Logger   zerolog.Logger
}

// Pipeline turns source bytes and an operation string into encoded bytes.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	profile  profile.Profile
	registry *encoder.Registry
	resizer  *resize.Resizer
	observer Observer
	log      zerolog.Logger
}

// Output is the result of a successful Process call.
type Output struct {
	Data        []byte
	ContentType string
	Format      format.Format
	Extension   string
	Width       int
	Height      int
}

// New creates a configured pipeline. A zero Profile selects the default one.
func New(cfg Config) *Pipeline {
	if cfg.Profile.Name == "" {
		cfg.Profile = profile.Get(profile.DefaultName)
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	return &Pipeline{
		profile:  cfg.Profile,
		registry: encoder.NewRegistry(cfg.Profile.Encoders),
		resizer:  resize.New(cfg.Profile.Strategy),
		observer: cfg.Observer,
		log:      cfg.Logger,
	}
}

// Profile returns the profile the pipeline was built with.
func (p *Pipeline) Profile() profile.Profile { return p.profile }

// Registry returns the encoder registry.
func (p *Pipeline) Registry() *encoder.Registry { return p.registry }

// Process decodes src, resizes it when ops carries a width and re-encodes it.
// Parsing never fails; any other stage failing aborts the call with a
// *StageError and no partial output.
func (p *Pipeline) Process(src []byte, contentType, ops string) (*Output, error) {
	start := time.Now()

	set := operations.Parse(ops)
	if dropped := set.Dropped(); len(dropped) > 0 {
		p.log.Debug().Strs("tokens", dropped).Str("ops", ops).Msg("ignoring malformed operations")
	}

	t := time.Now()
	img, err := raster.Decode(src, contentType)
	if err != nil {
		return nil, stageErr(StageDecode, ErrDecode, err)
	}
	p.observer.Observe(StageDecode, time.Since(t))

	if width, ok := set.Width(); ok {
		t = time.Now()
		img, err = p.resizer.Resize(img, width)
		if err != nil {
			return nil, stageErr(StageResize, ErrResize, err)
		}
		p.observer.Observe(StageResize, time.Since(t))
	}

	req := encoder.Request{
		Format:  set.Format(),
		Quality: int(set.QualityOr(uint8(p.profile.Quality))),
	}
	t = time.Now()
	out, err := p.registry.Dispatch(img, req)
	if err != nil {
		return nil, stageErr(StageEncode, ErrEncode, err)
	}
	p.observer.Observe(StageEncode, time.Since(t))

	if out.Format != req.Format {
		p.log.Debug().Str("requested", req.Format.String()).Str("encoded", out.Format.String()).
			Msg("format not enabled, fell back")
	}
	p.observer.Observe(StageTotal, time.Since(start))

	return &Output{
		Data:        out.Data,
		ContentType: out.ContentType,
		Format:      out.Format,
		Extension:   out.Extension,
		Width:       img.Width,
		Height:      img.Height,
	}, nil
}
