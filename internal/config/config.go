// Package config loads Scribe's typed configuration from TOML, applies
// defaults, pulls provider secrets from the environment (optionally seeded
// from a .env file) and validates the result before anything is wired.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "SCRIBE_CONFIG"

// Provider API key variables.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Duration is a time.Duration written as a Go duration string ("1h", "500ms").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration.
type Config struct {
	// DataDir holds the metadata database and the index blob store.
	DataDir string `toml:"data_dir"`

	// PromptDir holds user-editable generative prompts.
	PromptDir string `toml:"prompt_dir"`

	// EnvFile is loaded before secrets are read. Missing is fine.
	EnvFile string `toml:"env_file"`

	Chunking   ChunkingConfig   `toml:"chunking"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Generation GenerationConfig `toml:"generation"`
	Index      IndexConfig      `toml:"index"`
	Query      QueryConfig      `toml:"query"`
	Cache      CacheConfig      `toml:"cache"`
	Retry      RetryConfig      `toml:"retry"`
	RateLimit  RateLimitConfig  `toml:"rate_limit"`
	MCP        MCPConfig        `toml:"mcp"`
}

type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

type EmbeddingConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	Dimension int    `toml:"dimension"`
	BatchSize int    `toml:"batch_size"`

	// APIKey is read from the environment only.
	APIKey string `toml:"-"`
}

type GenerationConfig struct {
	// Provider may be empty, which disables generative answers.
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int    `toml:"max_tokens"`

	APIKey string `toml:"-"`
}

type IndexConfig struct {
	Metric    string `toml:"metric"`
	CacheSize int    `toml:"cache_size"`
}

type QueryConfig struct {
	TopK int `toml:"top_k"`
}

type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     Duration `toml:"ttl"`

	// PurgeInterval is how often long-running commands delete expired
	// entries. Zero disables purging.
	PurgeInterval Duration `toml:"purge_interval"`
}

type RetryConfig struct {
	MaxAttempts    int      `toml:"max_attempts"`
	InitialDelay   Duration `toml:"initial_delay"`
	MaxDelay       Duration `toml:"max_delay"`
	AttemptTimeout Duration `toml:"attempt_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type MCPConfig struct {
	// Addr is the streamable HTTP listen address used by `scribe mcp --http`.
	Addr string `toml:"addr"`
}

// Home returns ~/.scribe.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %v", domain.ErrConfiguration, err)
	}
	return filepath.Join(home, ".scribe"), nil
}

// DefaultPath returns $SCRIBE_CONFIG, else ~/.scribe/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.toml"), nil
}

// Default returns the built-in configuration. Paths are left empty and
// resolved by Load.
func Default() *Config {
	return &Config{
		EnvFile: ".env",
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:  string(domain.AIProviderStub),
			Dimension: 256,
			BatchSize: 16,
		},
		Generation: GenerationConfig{
			Provider: string(domain.AIProviderStub),
		},
		Index: IndexConfig{
			Metric:    string(domain.MetricCosine),
			CacheSize: 3,
		},
		Query: QueryConfig{TopK: 4},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           Duration(time.Hour),
			PurgeInterval: Duration(10 * time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts:    4,
			InitialDelay:   Duration(500 * time.Millisecond),
			MaxDelay:       Duration(8 * time.Second),
			AttemptTimeout: Duration(60 * time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 8,
			Burst:             16,
		},
		MCP: MCPConfig{Addr: "127.0.0.1:8765"},
	}
}

// Load reads the config at path (DefaultPath when empty). A missing file
// yields the defaults. Unknown keys are rejected so typos surface early.
// The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, path, err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
		}
	}

	if err := cfg.resolvePaths(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePaths fills empty directories from ~/.scribe and makes relative
// paths relative to the config file's directory.
func (c *Config) resolvePaths(base string) error {
	if c.DataDir == "" || c.PromptDir == "" {
		home, err := Home()
		if err != nil {
			return err
		}
		if c.DataDir == "" {
			c.DataDir = filepath.Join(home, "data")
		}
		if c.PromptDir == "" {
			c.PromptDir = filepath.Join(home, "prompts")
		}
	}
	for _, p := range []*string{&c.DataDir, &c.PromptDir, &c.EnvFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return nil
}

// loadSecrets seeds the environment from EnvFile without overriding
// variables that are already set, then copies provider keys in.
func (c *Config) loadSecrets() error {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: load %s: %v", domain.ErrConfiguration, c.EnvFile, err)
		}
	}
	c.Embedding.APIKey = keyFor(c.Embedding.Provider)
	c.Generation.APIKey = keyFor(c.Generation.Provider)
	return nil
}

func keyFor(provider string) string {
	switch domain.AIProvider(provider) {
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// Validate returns an error wrapping domain.ErrConfiguration describing the
// first invalid setting.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{domain.ErrConfiguration}, args...)...)
	}

	if c.Chunking.Size <= 0 {
		return fail("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fail("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap)
	}

	ep := domain.AIProvider(c.Embedding.Provider)
	if !ep.IsValid() || !ep.SupportsEmbedding() {
		return fail("embedding.provider %q cannot produce embeddings", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fail("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize <= 0 {
		return fail("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if ep.RequiresAPIKey() && c.Embedding.APIKey == "" {
		return fail("embedding.provider %s requires %s", ep, EnvOpenAIKey)
	}

	if c.Generation.Provider != "" {
		gp := domain.AIProvider(c.Generation.Provider)
		if !gp.IsValid() {
			return fail("generation.provider %q is not recognised", c.Generation.Provider)
		}
		if gp.RequiresAPIKey() && c.Generation.APIKey == "" {
			env := EnvOpenAIKey
			if gp == domain.AIProviderAnthropic {
				env = EnvAnthropicKey
			}
			return fail("generation.provider %s requires %s", gp, env)
		}
	}
	if c.Generation.MaxTokens < 0 || c.Generation.MaxTokens > domain.MaxGenerationTokens {
		return fail("generation.max_tokens must be in [0, %d]", domain.MaxGenerationTokens)
	}

	if _, err := domain.ParseMetric(c.Index.Metric); err != nil {
		return err
	}
	if c.Index.CacheSize < 1 {
		return fail("index.cache_size must be at least 1, got %d", c.Index.CacheSize)
	}
	if c.Query.TopK < 1 || c.Query.TopK > domain.MaxTopK {
		return fail("query.top_k must be in [1, %d], got %d", domain.MaxTopK, c.Query.TopK)
	}
	if c.Cache.TTL <= 0 {
		return fail("cache.ttl must be positive")
	}
	if c.Cache.PurgeInterval < 0 {
		return fail("cache.purge_interval must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fail("retry.max_attempts must be at least 1")
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fail("retry delays must satisfy 0 <= initial_delay <= max_delay")
	}
	if c.Retry.AttemptTimeout <= 0 {
		return fail("retry.attempt_timeout must be positive")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fail("rate_limit values must not be negative")
	}
	return nil
}

// Metric returns the parsed index metric. Call after Validate.
func (c *Config) Metric() domain.Metric {
	m, _ := domain.ParseMetric(c.Index.Metric)
	return m
}

// BlobDir is where index blobs and manifests live.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "indexes")
}

// Save writes cfg to path as TOML, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
