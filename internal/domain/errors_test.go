package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{"with cause", UpstreamFetchError("fetch sheet", cause), "[upstream] fetch sheet: connection refused"},
		{"without cause", ConfigurationError("GOOGLE_SHEETS_ID is not set", nil), "[config] GOOGLE_SHEETS_ID is not set"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestDomainError_Classification(t *testing.T) {
	cfgErr := fmt.Errorf("load dataset: %w", ConfigurationError("missing spreadsheet id", nil))
	upErr := fmt.Errorf("extract intent: %w", UpstreamFetchError("groq returned 500", nil))

	assert.True(t, IsConfiguration(cfgErr))
	assert.False(t, IsUpstream(cfgErr))

	assert.True(t, IsUpstream(upErr))
	assert.False(t, IsConfiguration(upErr))

	assert.False(t, IsConfiguration(errors.New("plain")))
	assert.False(t, IsUpstream(nil))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := UpstreamFetchError("wrapped", cause)
	assert.ErrorIs(t, err, cause)
}
