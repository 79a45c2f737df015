package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/run-tracker/internal/domain"
)

func TestTemplate_Generate(t *testing.T) {
	g := NewTemplate()
	res, err := g.Generate(context.Background(), Request{
		UserID:           "u1",
		TrainingTypeCode: "tempo",
		PlannedDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Steps, 3)

	distance, duration := domain.Totals(res.Steps)
	assert.Equal(t, 8500, distance)
	assert.Equal(t, 2820, duration)
	assert.Equal(t, "template", res.Metadata["generator"])
}

func TestTemplate_AdjustmentHintScales(t *testing.T) {
	g := NewTemplate()
	base, err := g.Generate(context.Background(), Request{TrainingTypeCode: "easy_run"})
	require.NoError(t, err)
	easier, err := g.Generate(context.Background(), Request{
		TrainingTypeCode: "easy_run",
		Context:          map[string]any{KeyAdjustmentHint: "a bit easier please", KeyRegeneratedFrom: "s-1"},
	})
	require.NoError(t, err)

	bd, _ := domain.Totals(base.Steps)
	ed, _ := domain.Totals(easier.Steps)
	assert.Less(t, ed, bd)
	assert.Equal(t, "s-1", easier.Metadata["regenerated_from"])
}

func TestTemplate_UnknownType(t *testing.T) {
	_, err := NewTemplate().Generate(context.Background(), Request{TrainingTypeCode: "swim"})
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestTemplate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTemplate().Generate(ctx, Request{TrainingTypeCode: "tempo"})
	assert.ErrorIs(t, err, context.Canceled)
}
