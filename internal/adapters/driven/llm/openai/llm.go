// Package openai generates answers with the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/scribe/internal/adapters/driven/httperr"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.GenerationService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

const provider = "openai"

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is required.
	APIKey string

	// BaseURL can point at Azure OpenAI or any compatible API.
	BaseURL string

	Model   string
	Timeout time.Duration
}

// LLMService answers questions using OpenAI chat completions.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   *int                `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	TopP        *float64            `json:"top_p,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate sends the system prompt and the user turn as one chat
// completion. OpenAI accepts at most four stop sequences; extras are dropped.
func (s *LLMService) Generate(ctx context.Context, gr driven.GenerationRequest) (string, error) {
	var messages []chatCompletionMsg
	if gr.System != "" {
		messages = append(messages, chatCompletionMsg{Role: "system", Content: gr.System})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: gr.Prompt})

	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   gr.Config.MaxTokens,
		Temperature: gr.Config.Temperature,
		TopP:        gr.Config.TopP,
		Stop:        gr.Config.StopSequences,
	}
	if len(reqBody.Stop) > 4 {
		reqBody.Stop = reqBody.Stop[:4]
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", httperr.Transport(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %v: %w", err, domain.ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return "", httperr.Status(provider, resp.StatusCode, body)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the API key against /models without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

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
