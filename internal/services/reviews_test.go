package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/core"
	"aguin/internal/store/memory"
)

func TestReviewService(t *testing.T) {
	ctx := context.Background()
	svc := NewReviewService(memory.New(), nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Average.IsZero())
	assert.Zero(t, stats.Count)

	for _, score := range []int{5, 4, 4} {
		_, err := svc.Create(ctx, score, "Una experiencia muy bonita")
		require.NoError(t, err)
	}

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.True(t, stats.Average.Equal(decimal.RequireFromString("4.3")), stats.Average.String())

	_, err = svc.Create(ctx, 6, "Una experiencia muy bonita")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.Create(ctx, 3, "  corta   ")
	assert.ErrorIs(t, err, core.ErrValidation)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, list[0].ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
