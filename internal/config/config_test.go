package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "absent.toml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Chunking, cfg.Chunking)
	assert.Equal(t, def.Query.TopK, cfg.Query.TopK)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Std())
	assert.Equal(t, domain.MetricCosine, cfg.Metric())
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.PromptDir)
}

func TestLoad_OverridesAndRelativePaths(t *testing.T) {
	path := writeConfig(t, `
data_dir = "data"

[chunking]
size = 500
overlap = 50

[embedding]
provider = "stub"
dimension = 64

[cache]
ttl = "90s"

[index]
metric = "l2"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 64, cfg.Embedding.Dimension)
	assert.Equal(t, 16, cfg.Embedding.BatchSize, "unset keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Std())
	assert.Equal(t, domain.MetricL2, cfg.Metric())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "indexes"), cfg.BlobDir())
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "[chunking]\nsize = 500\nsizee = 1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_MalformedDuration(t *testing.T) {
	path := writeConfig(t, "[cache]\nttl = \"soon\"\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_EnvPathOverride(t *testing.T) {
	path := writeConfig(t, "[query]\ntop_k = 7\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Query.TopK)
}

func TestLoad_SecretsFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-file\n"), 0600))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[generation]\nprovider = \"anthropic\"\n"), 0600))

	// godotenv never overrides, so make sure the variable starts empty.
	t.Setenv(EnvAnthropicKey, "")
	require.NoError(t, os.Unsetenv(EnvAnthropicKey))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Generation.APIKey)
}

func TestLoad_ExistingEnvWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-file\n"), 0600))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[embedding]\nprovider = \"openai\"\ndimension = 1536\n"), 0600))
	t.Setenv(EnvOpenAIKey, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Embedding.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"anthropic embeddings", func(c *Config) { c.Embedding.Provider = "anthropic" }},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "bert" }},
		{"openai without key", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"zero dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"zero batch", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"unknown generation provider", func(c *Config) { c.Generation.Provider = "gpt" }},
		{"anthropic without key", func(c *Config) { c.Generation.Provider = "anthropic" }},
		{"max tokens too high", func(c *Config) { c.Generation.MaxTokens = domain.MaxGenerationTokens + 1 }},
		{"bad metric", func(c *Config) { c.Index.Metric = "manhattan" }},
		{"zero index cache", func(c *Config) { c.Index.CacheSize = 0 }},
		{"top k zero", func(c *Config) { c.Query.TopK = 0 }},
		{"top k too large", func(c *Config) { c.Query.TopK = domain.MaxTopK + 1 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"inverted delays", func(c *Config) { c.Retry.MaxDelay = c.Retry.InitialDelay - 1 }},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestValidate_GenerationDisabled(t *testing.T) {
	cfg := Default()
	cfg.Generation.Provider = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Query.TopK = 9
	cfg.Cache.TTL = Duration(5 * time.Minute)
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Query.TopK)
	assert.Equal(t, 5*time.Minute, loaded.Cache.TTL.Std())
}
