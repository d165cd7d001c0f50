package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrValidation,
		ErrNotFound,
		ErrEmbeddingService,
		ErrGenerationService,
		ErrIndexCorrupt,
		ErrEmptyIndex,
		ErrConfiguration,
		ErrRateLimited,
		ErrTransient,
		ErrUnsupportedType,
	}

	for i, err1 := range allErrors {
		assert.NotEmpty(t, err1.Error())
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

func TestErrors_DerivedKinds(t *testing.T) {
	assert.ErrorIs(t, ErrMetricMismatch, ErrConfiguration)
	assert.ErrorIs(t, ErrDimensionMismatch, ErrIndexCorrupt)
	assert.ErrorIs(t, ErrManifestMissing, ErrIndexCorrupt)
	assert.NotErrorIs(t, ErrDimensionMismatch, ErrConfiguration)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ErrRateLimited, true},
		{"wrapped transient", fmt.Errorf("openai: status 503: %w", ErrTransient), true},
		{"validation", ErrValidation, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("query: %w", ErrValidation), "validation"},
		{fmt.Errorf("%w: extract: %w", ErrValidation, ErrUnsupportedType), "validation"},
		{ErrUnsupportedType, "validation"},
		{fmt.Errorf("srd x: %w", ErrNotFound), "not_found"},
		{ErrMetricMismatch, "configuration"},
		{fmt.Errorf("embed: %w", ErrEmbeddingService), "embedding_service"},
		{ErrGenerationService, "generation_service"},
		{ErrManifestMissing, "index_corrupt"},
		{ErrDimensionMismatch, "index_corrupt"},
		{ErrEmptyIndex, "empty_index"},
		{errors.New("disk on fire"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
