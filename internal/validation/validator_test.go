package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescout/scenescout-server/internal/errors"
	"github.com/scenescout/scenescout-server/internal/validation"
)

type testRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	PageSize int    `json:"pageSize" validate:"gte=1,lte=100"`
	SortBy   string `json:"sortBy" validate:"omitempty,oneof=date title trending"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{
		Endpoint: "https://catalog.example.com/graphql",
		PageSize: 25,
		SortBy:   "date",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
	}{
		{
			name:      "missing endpoint",
			req:       testRequest{PageSize: 25},
			wantField: "endpoint",
		},
		{
			name:      "endpoint not a url",
			req:       testRequest{Endpoint: "not a url", PageSize: 25},
			wantField: "endpoint",
		},
		{
			name:      "page size too large",
			req:       testRequest{Endpoint: "https://x.test", PageSize: 500},
			wantField: "pageSize",
		},
		{
			name:      "unknown sort field",
			req:       testRequest{Endpoint: "https://x.test", PageSize: 25, SortBy: "rating"},
			wantField: "sortBy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, errors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{PageSize: 25})
	require.Error(t, err)

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "endpoint")
	assert.NotContains(t, details, "Endpoint")
}
