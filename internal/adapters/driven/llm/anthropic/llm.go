// Package anthropic generates answers with the Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/scribe/internal/adapters/driven/httperr"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.GenerationService = (*LLMService)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
	provider         = "anthropic"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is required.
	APIKey string

	BaseURL string
	Model   string
	Timeout time.Duration

	// MaxTokens applies when a request does not set one; the API requires it.
	MaxTokens int
}

// LLMService answers questions using Anthropic's messages API.
type LLMService struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &LLMService{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends one user message with the system prompt in the top-level
// system field and concatenates the returned text blocks.
func (s *LLMService) Generate(ctx context.Context, gr driven.GenerationRequest) (string, error) {
	reqBody := messagesRequest{
		Model:       s.model,
		Messages:    []messagesMessage{{Role: "user", Content: gr.Prompt}},
		MaxTokens:   s.maxTokens,
		System:      gr.System,
		Temperature: gr.Config.Temperature,
		TopP:        gr.Config.TopP,
		StopSeqs:    gr.Config.StopSequences,
	}
	if gr.Config.MaxTokens != nil {
		reqBody.MaxTokens = *gr.Config.MaxTokens
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", httperr.Transport(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %v: %w", err, domain.ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return "", httperr.Status(provider, resp.StatusCode, body)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	if msgResp.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", msgResp.Error.Type, msgResp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content returned (stop reason %q)", msgResp.StopReason)
	}
	return sb.String(), nil
}

func (s *LLMService) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which validates the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: create ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return httperr.Transport(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return httperr.Status(provider, resp.StatusCode, body)
	}
	return nil
}

func (s *LLMService) Close() error {
	return nil
}
