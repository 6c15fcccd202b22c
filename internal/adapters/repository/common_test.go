package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))

	// lib/pq reports SQLSTATE 23505 for unique violations, typed.
	uniquePq := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, isUniqueViolation(uniquePq))
	assert.True(t, isUniqueViolation(fmt.Errorf("create user: %w", uniquePq)))

	// Other SQLSTATE codes are not unique violations, whatever the message.
	fkPq := &pq.Error{Code: "23503", Message: "insert violates foreign key constraint"}
	assert.False(t, isUniqueViolation(fkPq))

	// modernc sqlite has no typed error, only the message text.
	sqliteErr := errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")
	assert.True(t, isUniqueViolation(sqliteErr))
}
