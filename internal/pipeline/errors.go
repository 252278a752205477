package pipeline

import (
	"errors"
	"fmt"

	"github.com/SMCodesP/imgtransform/internal/encoder"
	"github.com/SMCodesP/imgtransform/internal/raster"
	"github.com/SMCodesP/imgtransform/internal/resize"
)

// Stage names, shared by errors and observers.
const (
	StageDecode = "decode"
	StageResize = "resize"
	StageEncode = "encode"
	StageTotal  = "total"
)

// Error kinds re-exported so callers only import this package.
var (
	ErrDecode = raster.ErrDecode
	ErrResize = resize.ErrResize
	ErrEncode = encoder.ErrEncode
)

// StageError is the fatal error of a Process call.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// stageErr tags err with its stage and makes sure it matches kind.
func stageErr(stage string, kind, err error) error {
	if !errors.Is(err, kind) {
		err = fmt.Errorf("%w: %v", kind, err)
	}
	return &StageError{Stage: stage, Err: err}
}
