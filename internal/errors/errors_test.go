package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := ErrWorkflowNotFound("missing", []string{"default", "legacy"})
	assert.Contains(t, err.Error(), "workflow 'missing' not found")
	assert.Contains(t, err.Error(), "default, legacy")

	msg := err.UserMessage()
	assert.Contains(t, msg, "Error: ")
	assert.Contains(t, msg, "Fix: ")
}

func TestEnumerationWithNoAlternatives(t *testing.T) {
	err := ErrWorkflowNotFound("missing", nil)
	assert.Contains(t, err.Why, "(none)")
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrContentTypeNotFound("article"))
	assert.True(t, errors.Is(err, &MigrateError{Code: CodeContentTypeNotFound}))
	assert.False(t, errors.Is(err, &MigrateError{Code: CodeLanguageNotFound}))
}

func TestAsMigrateErrorUnwraps(t *testing.T) {
	inner := ErrMissingReference("item", "abc")
	wrapped := fmt.Errorf("transform: %w", inner)

	merr := AsMigrateError(wrapped)
	require.NotNil(t, merr)
	assert.Equal(t, CodeMissingReference, merr.Code)

	assert.Nil(t, AsMigrateError(errors.New("plain")))
}

func TestWithCauseChains(t *testing.T) {
	cause := errors.New("boom")
	err := ErrItemFailed("article", "en", nil).WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestCategories(t *testing.T) {
	tests := []struct {
		err  *MigrateError
		want Category
	}{
		{ErrWorkflowNotFound("x", nil), CategoryFatal},
		{ErrMissingReference("item", "x"), CategoryFatal},
		{ErrElementTransform("title", "text", "{}", nil), CategoryFatal},
		{ErrItemFailed("x", "en", nil), CategoryPerUnit},
		{ErrAssetFailed("x", nil), CategoryPerUnit},
		{ErrConfigMissing("source.api_key"), CategoryConfig},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Category())
		})
	}
}

func TestElementTransformCarriesValueDump(t *testing.T) {
	err := ErrElementTransform("color", "multiple_choice", `[{"id":"opt-1"}]`, errors.New("unknown option"))
	assert.Contains(t, err.Why, `[{"id":"opt-1"}]`)
	assert.Contains(t, err.Error(), "unknown option")
}
