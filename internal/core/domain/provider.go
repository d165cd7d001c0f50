package domain

// AIProvider identifies a service behind the embedding or generative capability.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderStub is the deterministic in-process implementation.
	AIProviderStub AIProvider = "stub"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderStub:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderStub
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs without network access to a cloud API.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderStub
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderStub:
		return "Deterministic stub (offline)"
	default:
		return "Unknown"
	}
}
