package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasktally/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error)
}

// SpendingRepository defines the interface for spending data operations.
// CategoryTotals is the aggregation query at the heart of the application:
// per-category sums over one owner's entries within a period, ordered by the
// smallest entry id in each bucket (first-appearance order).
type SpendingRepository interface {
	Create(ctx context.Context, entry *entities.SpendingEntry) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.SpendingEntry, error)
	CategoryTotals(ctx context.Context, ownerID uuid.UUID, period entities.Period) ([]entities.CategoryTotal, error)
	DeleteCategory(ctx context.Context, ownerID uuid.UUID, category string) (int64, error)
}
