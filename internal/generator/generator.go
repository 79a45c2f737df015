// Package generator produces training suggestions. The lifecycle treats any
// Generator as a black box; Template is the built-in rule-based one.
package generator

import (
	"context"
	"errors"
	"time"

	"alcyxob/run-tracker/internal/domain"
)

// Context keys understood by the built-in generator and written by regeneration.
const (
	KeyRegenerationReason = "regeneration_reason"
	KeyAdjustmentHint     = "adjustment_hint"
	KeyRegeneratedFrom    = "regenerated_from"
)

// ErrNoTemplate is returned when the generator has nothing for a training type.
var ErrNoTemplate = errors.New("no template for training type")

// Request is the input of a generation.
type Request struct {
	UserID           string
	TrainingTypeCode string
	PlannedDate      time.Time
	Context          map[string]any
}

// Result is an ordered list of steps plus opaque metadata.
type Result struct {
	Steps    []domain.Step
	Metadata map[string]any
}

// Generator produces a suggested session.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
