package generator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"alcyxob/run-tracker/internal/domain"
)

type stepTemplate struct {
	distance int // Meters, 0 when the step is time-based
	duration int // Seconds, 0 when the step is distance-based
	note     string
}

var templates = map[string][]stepTemplate{
	"easy_run": {
		{distance: 6000, duration: 2160, note: "Conversational pace, zone 2"},
	},
	"long_run": {
		{distance: 2000, duration: 720, note: "Easy start"},
		{distance: 14000, duration: 4900, note: "Steady aerobic pace"},
		{distance: 2000, duration: 760, note: "Relaxed finish"},
	},
	"tempo": {
		{distance: 2000, duration: 720, note: "Warm up"},
		{distance: 5000, duration: 1500, note: "Comfortably hard, threshold effort"},
		{distance: 1500, duration: 600, note: "Cool down"},
	},
	"intervals": {
		{distance: 2000, duration: 720, note: "Warm up with strides"},
		{distance: 4000, duration: 1080, note: "5 x 800m at 5k pace, 400m jog recoveries"},
		{distance: 2000, duration: 660, note: "Recovery jogs"},
		{distance: 1500, duration: 600, note: "Cool down"},
	},
	"recovery": {
		{duration: 1800, note: "Very easy, keep heart rate low"},
	},
	"fartlek": {
		{duration: 600, note: "Warm up"},
		{duration: 1200, note: "Alternate 1 min fast / 2 min easy"},
		{duration: 600, note: "Cool down"},
	},
	"hill_repeats": {
		{distance: 2000, duration: 720, note: "Warm up"},
		{duration: 900, note: "8 x 60s uphill, jog down"},
		{distance: 1500, duration: 600, note: "Cool down"},
	},
	"race": {
		{duration: 900, note: "Warm up and strides"},
		{distance: 10000, duration: 3000, note: "Race effort"},
	},
}

// Template generates sessions from fixed per-type templates, scaled by the
// adjustment hint found in the request context.
type Template struct{}

// NewTemplate returns the built-in generator.
func NewTemplate() *Template {
	return &Template{}
}

// Generate implements Generator.
func (g *Template) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, ok := templates[req.TrainingTypeCode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplate, req.TrainingTypeCode)
	}

	hint, _ := req.Context[KeyAdjustmentHint].(string)
	scale := scaleFor(hint)

	result := &Result{Metadata: map[string]any{
		"generator": "template",
		"template":  req.TrainingTypeCode,
		"scale":     scale,
	}}
	for _, st := range tpl {
		result.Steps = append(result.Steps, newStep(st, scale))
	}
	if from, ok := req.Context[KeyRegeneratedFrom]; ok {
		result.Metadata["regenerated_from"] = from
	}
	return result, nil
}

// scaleFor maps a free-form hint to a volume multiplier.
func scaleFor(hint string) float64 {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "easier"), strings.Contains(h, "shorter"), strings.Contains(h, "tired"):
		return 0.8
	case strings.Contains(h, "harder"), strings.Contains(h, "longer"):
		return 1.2
	}
	return 1.0
}

func newStep(st stepTemplate, scale float64) domain.Step {
	step := domain.Step{Note: st.note}
	if st.distance > 0 {
		d := roundTo(float64(st.distance)*scale, 100)
		step.Distance = &d
	}
	if st.duration > 0 {
		d := roundTo(float64(st.duration)*scale, 30)
		step.Duration = &d
	}
	return step
}

func roundTo(v float64, unit int) int {
	return int(math.Round(v/float64(unit))) * unit
}
