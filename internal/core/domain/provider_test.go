package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider(t *testing.T) {
	tests := []struct {
		provider  AIProvider
		valid     bool
		embedding bool
		apiKey    bool
		local     bool
	}{
		{AIProviderOllama, true, true, false, true},
		{AIProviderOpenAI, true, true, true, false},
		{AIProviderAnthropic, true, false, true, false},
		{AIProviderStub, true, true, false, true},
		{AIProvider("bedrock"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
			assert.Equal(t, tt.embedding, tt.provider.SupportsEmbedding())
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.NotEmpty(t, tt.provider.Description())
		})
	}
}
