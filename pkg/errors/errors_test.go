package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeInsufficientStock, http.StatusConflict},
		{CodeIdempotency, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "ping postgres")

	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "ping postgres", err.Message())
	assert.True(t, stdErrors.Is(err, cause))
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(CodeInsufficientStock, "short stock").WithDetails(map[string]any{"listing_id": "x"})
	wrapped := fmt.Errorf("checkout: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeInsufficientStock, typed.Code())
	assert.NotNil(t, typed.Details())
}

func TestAsReturnsNilForForeignErrors(t *testing.T) {
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestErrorStringIncludesCode(t *testing.T) {
	err := New(CodeValidation, "title required")
	assert.Equal(t, "VALIDATION_ERROR: title required", err.Error())
}
