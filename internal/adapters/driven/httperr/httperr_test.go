package httperr

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status    int
		rateLimit bool
		transient bool
	}{
		{429, true, false},
		{500, false, true},
		{503, false, true},
		{408, false, true},
		{400, false, false},
		{401, false, false},
		{404, false, false},
	}

	for _, tt := range tests {
		err := Status("openai", tt.status, []byte(`{"error":"x"}`))
		assert.Error(t, err)
		assert.Equal(t, tt.rateLimit, errors.Is(err, domain.ErrRateLimited), "status %d", tt.status)
		assert.Equal(t, tt.transient, errors.Is(err, domain.ErrTransient), "status %d", tt.status)
		assert.Contains(t, err.Error(), "openai")
	}
}

func TestStatus_TruncatesBody(t *testing.T) {
	err := Status("ollama", 400, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(err.Error()), 600)
}

func TestTransport(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.ErrorIs(t, Transport("ollama", opErr), domain.ErrTransient)

	err := Transport("ollama", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTransient)

	assert.NotErrorIs(t, Transport("ollama", errors.New("unsupported protocol scheme")), domain.ErrTransient)
}
