package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/ports"
)

// SpendingService is the aggregation engine: it validates what goes into
// the spending store and exposes the per-period category breakdown.
type SpendingService struct {
	spendingRepo ports.SpendingRepository
	logger       *logger.Logger
}

// NewSpendingService creates a new spending service
func NewSpendingService(spendingRepo ports.SpendingRepository, logger *logger.Logger) *SpendingService {
	return &SpendingService{
		spendingRepo: spendingRepo,
		logger:       logger,
	}
}

// AddEntry records one spending entry for the owner, tagged with the first
// day of (month, year). A trimmed-empty category is a silent no-op. Amounts
// must be strictly positive: zero and negative values are rejected rather
// than stored.
func (s *SpendingService) AddEntry(ctx context.Context, ownerID uuid.UUID, category string, amount float64, month, year int) (*entities.SpendingEntry, error) {
	category = entities.NormalizeCategory(category)
	if category == "" {
		return nil, nil
	}

	if amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}

	period, err := entities.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}

	entry := &entities.SpendingEntry{
		Category:      category,
		Amount:        amount,
		EffectiveDate: period.Start(),
		OwnerID:       ownerID,
	}

	if err := s.spendingRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add spending entry: %w", err)
	}

	s.logger.Infow("Spending entry added",
		"entry_id", entry.ID,
		"owner_id", ownerID,
		"category", category,
		"amount", amount,
	)

	return entry, nil
}

// CategoryTotals computes the per-category breakdown for the owner's
// entries in (month, year). Categories appear in order of their first entry
// within the period; an empty period yields an empty slice, not an error.
func (s *SpendingService) CategoryTotals(ctx context.Context, ownerID uuid.UUID, month, year int) ([]entities.CategoryTotal, error) {
	period, err := entities.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}

	totals, err := s.spendingRepo.CategoryTotals(ctx, ownerID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category totals: %w", err)
	}

	return totals, nil
}

// DeleteCategory removes the whole category for this owner across all
// periods and reports how many entries went with it.
func (s *SpendingService) DeleteCategory(ctx context.Context, ownerID uuid.UUID, category string) (int64, error) {
	category = entities.NormalizeCategory(category)
	if category == "" {
		return 0, entities.ErrEmptyCategory
	}

	removed, err := s.spendingRepo.DeleteCategory(ctx, ownerID, category)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Infow("Spending category deleted",
		"owner_id", ownerID,
		"category", category,
		"removed", removed,
	)

	return removed, nil
}

// ListEntries returns every entry the owner has, across all periods.
func (s *SpendingService) ListEntries(ctx context.Context, ownerID uuid.UUID) ([]*entities.SpendingEntry, error) {
	entries, err := s.spendingRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spending entries: %w", err)
	}

	return entries, nil
}
