package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrSpendingNotFound   = errors.New("spending entry not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmptyContent       = errors.New("content is empty")
	ErrEmptyCategory      = errors.New("category is empty")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidPeriod      = errors.New("month must be between 1 and 12")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents an account in the system. Passwords are stored only as
// bcrypt hashes.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Task represents a to-do item. A task belongs to exactly one user for its
// whole lifetime.
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
}

// SpendingEntry represents one spending record. The effective date is always
// the first day of a month: entries carry periods, not transaction dates.
type SpendingEntry struct {
	ID            int64     `json:"id" db:"id"`
	Category      string    `json:"category" db:"category"`
	Amount        float64   `json:"amount" db:"amount"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
}

// CategoryTotal is one row of the aggregated spending breakdown.
type CategoryTotal struct {
	Category string  `json:"category" db:"category"`
	Total    float64 `json:"total" db:"total"`
}

// Period is a (month, year) pair used to tag spending entries and to filter
// the aggregation query.
type Period struct {
	Month time.Month
	Year  int
}

// NewPeriod validates the month and returns a Period. The year is not
// constrained.
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Month: time.Month(month), Year: year}, nil
}

// CurrentPeriod returns the period of the current UTC month.
func CurrentPeriod() Period {
	now := time.Now().UTC()
	return Period{Month: now.Month(), Year: now.Year()}
}

// Start returns the first instant of the period: midnight UTC on the first
// of the month. This is the normalized effective date stored on entries.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following period, so the period
// covers [Start, End).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(p.Start()) && u.Before(p.End())
}

// Business logic methods for Task

func (t *Task) OwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// Touch refreshes the update timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// Business logic methods for SpendingEntry

func (e *SpendingEntry) OwnedBy(userID uuid.UUID) bool {
	return e.OwnerID == userID
}

// Period returns the (month, year) pair the entry is tagged with.
func (e *SpendingEntry) Period() Period {
	d := e.EffectiveDate.UTC()
	return Period{Month: d.Month(), Year: d.Year()}
}

// NormalizeCategory trims surrounding whitespace. Casing is deliberately
// preserved: categories compare by exact string match, so "Food" and "food"
// are distinct buckets.
func NormalizeCategory(category string) string {
	return strings.TrimSpace(category)
}
