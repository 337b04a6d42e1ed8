package validator

import (
	"testing"

	"scheduling_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type confirmParams struct {
	ID string `validate:"required,uuid"`
}

func TestStructReportsFieldDetails(t *testing.T) {
	err := New().Struct(confirmParams{ID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var domainErr *apperr.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]string{"ID": "uuid"}, domainErr.Details)
}

func TestStructAcceptsValidInput(t *testing.T) {
	require.NoError(t, New().Struct(confirmParams{ID: "5b1f1c1e-9d3a-4c5e-8f00-000000000001"}))
}

func TestVarUsesValueName(t *testing.T) {
	err := New().Var("", "required")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
