package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/ports"
)

// SpendingRepositoryImpl implements the SpendingRepository interface over
// the spending partition.
type SpendingRepositoryImpl struct {
	db *sqlx.DB
}

// NewSpendingRepository creates a new spending repository
func NewSpendingRepository(db *sqlx.DB) ports.SpendingRepository {
	return &SpendingRepositoryImpl{db: db}
}

func (r *SpendingRepositoryImpl) Create(ctx context.Context, entry *entities.SpendingEntry) error {
	query := r.db.Rebind(`
		INSERT INTO spending_entries (category, amount, effective_date, owner_id)
		VALUES (?, ?, ?, ?)`)

	id, err := insertReturningID(ctx, r.db, query,
		entry.Category, entry.Amount, entry.EffectiveDate, entry.OwnerID)
	if err != nil {
		return fmt.Errorf("create spending entry: %w", err)
	}
	entry.ID = id

	return nil
}

func (r *SpendingRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.SpendingEntry, error) {
	query := r.db.Rebind(`
		SELECT id, category, amount, effective_date, owner_id
		FROM spending_entries
		WHERE owner_id = ?
		ORDER BY id`)

	entries := []*entities.SpendingEntry{}
	err := r.db.SelectContext(ctx, &entries, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list spending entries: %w", err)
	}

	return entries, nil
}

// CategoryTotals sums amounts per exact category string for one owner
// within the period. Buckets come back ordered by the smallest entry id
// inside the filter, so a category keeps its position across renders no
// matter how its total changes.
func (r *SpendingRepositoryImpl) CategoryTotals(ctx context.Context, ownerID uuid.UUID, period entities.Period) ([]entities.CategoryTotal, error) {
	query := r.db.Rebind(`
		SELECT category, SUM(amount) AS total
		FROM spending_entries
		WHERE owner_id = ? AND effective_date >= ? AND effective_date < ?
		GROUP BY category
		ORDER BY MIN(id)`)

	totals := []entities.CategoryTotal{}
	err := r.db.SelectContext(ctx, &totals, query, ownerID, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	return totals, nil
}

// DeleteCategory removes every entry in the category for this owner across
// all periods. A single DELETE keeps the batch atomic; there is no window
// for a concurrent insert to survive half-removed.
func (r *SpendingRepositoryImpl) DeleteCategory(ctx context.Context, ownerID uuid.UUID, category string) (int64, error) {
	query := r.db.Rebind(`
		DELETE FROM spending_entries
		WHERE owner_id = ? AND category = ?`)

	result, err := r.db.ExecContext(ctx, query, ownerID, category)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return removed, nil
}
