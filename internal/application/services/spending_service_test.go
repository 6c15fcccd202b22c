package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktally/core/internal/adapters/repository"
	"github.com/tasktally/core/internal/domain/entities"
)

func newSpendingService(t *testing.T) *SpendingService {
	t.Helper()
	db := newTestDB(t)
	return NewSpendingService(repository.NewSpendingRepository(db.Spending), testLogger())
}

func TestSpendingServiceAddEntry(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	entry, err := svc.AddEntry(ctx, owner, "  rent ", 1000, 3, 2024)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "rent", entry.Category)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), entry.EffectiveDate)
}

func TestSpendingServiceAddEntryEmptyCategoryIsNoop(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	entry, err := svc.AddEntry(ctx, owner, "   ", 10, 3, 2024)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := svc.ListEntries(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpendingServiceAddEntryRejectsNonPositiveAmount(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.AddEntry(ctx, owner, "rent", 0, 3, 2024)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = svc.AddEntry(ctx, owner, "rent", -5, 3, 2024)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestSpendingServiceAddEntryRejectsInvalidMonth(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, month := range []int{0, 13, -1} {
		_, err := svc.AddEntry(ctx, owner, "rent", 10, month, 2024)
		assert.ErrorIs(t, err, entities.ErrInvalidPeriod, "month %d", month)
	}
}

func TestSpendingServiceCategoryTotals(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, e := range []struct {
		category string
		amount   float64
		month    int
	}{
		{"rent", 1000, 3},
		{"food", 50, 3},
		{"rent", 200, 3},
		{"rent", 999, 4},
	} {
		_, err := svc.AddEntry(ctx, owner, e.category, e.amount, e.month, 2024)
		require.NoError(t, err)
	}

	totals, err := svc.CategoryTotals(ctx, owner, 3, 2024)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "rent", totals[0].Category)
	assert.InDelta(t, 1200, totals[0].Total, 0.001)
	assert.Equal(t, "food", totals[1].Category)
	assert.InDelta(t, 50, totals[1].Total, 0.001)

	_, err = svc.CategoryTotals(ctx, owner, 0, 2024)
	assert.ErrorIs(t, err, entities.ErrInvalidPeriod)
}

func TestSpendingServiceDeleteCategory(t *testing.T) {
	svc := newSpendingService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.AddEntry(ctx, owner, "food", 10, 1, 2024)
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, owner, "food", 20, 2, 2024)
	require.NoError(t, err)

	removed, err := svc.DeleteCategory(ctx, owner, " food ")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, err = svc.DeleteCategory(ctx, owner, "   ")
	assert.ErrorIs(t, err, entities.ErrEmptyCategory)
}
