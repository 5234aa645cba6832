package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := errors.New(`ERROR: duplicate key value violates unique constraint "payments_order_id_key" (SQLSTATE 23505)`)

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "payments_order_id_key"))
	assert.False(t, IsUniqueViolation(err, "listings_pkey"))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
}

func TestIsUniqueViolationSeesWrappedErrors(t *testing.T) {
	cause := errors.New(`duplicate key value violates unique constraint "payments_order_id_key"`)
	wrapped := fmt.Errorf("persist order: %w", cause)

	assert.True(t, IsUniqueViolation(wrapped, "payments_order_id_key"))
}
