package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/tasktally/core/internal/domain/entities"
)

// AuthService handles registration, login and session tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*entities.User, error)
	Login(ctx context.Context, req LoginRequest) (*entities.User, error)
	IssueSession(user *entities.User) (string, error)
	ValidateSession(token string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// TaskService handles task operations. Every owner-scoped operation takes
// the requesting user explicitly; there is no ambient current-user state.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, content string) (*entities.Task, error)
	Get(ctx context.Context, id int64, requesterID uuid.UUID) (*entities.Task, error)
	Edit(ctx context.Context, id int64, requesterID uuid.UUID, content string) (*entities.Task, error)
	Delete(ctx context.Context, id int64, requesterID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Task, error)
}

// SpendingService is the aggregation engine over the spending store.
type SpendingService interface {
	AddEntry(ctx context.Context, ownerID uuid.UUID, category string, amount float64, month, year int) (*entities.SpendingEntry, error)
	CategoryTotals(ctx context.Context, ownerID uuid.UUID, month, year int) ([]entities.CategoryTotal, error)
	DeleteCategory(ctx context.Context, ownerID uuid.UUID, category string) (int64, error)
	ListEntries(ctx context.Context, ownerID uuid.UUID) ([]*entities.SpendingEntry, error)
}

// Request types

type RegisterRequest struct {
	Username string `form:"username" validate:"required,min=3,max=50"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
