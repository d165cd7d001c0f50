// Package ollama generates answers with a local Ollama model.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 300 * time.Second
)

const provider = "ollama"

// Config holds configuration for the Ollama LLM service.
type Config struct {
	BaseURL string
	Model   string

	// Timeout is generous because the first call may load the model.
	Timeout time.Duration
}

// LLMService answers questions through Ollama's /api/chat endpoint.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

// options maps onto Ollama's model parameters.
type options struct {
	NumPredict  *int     `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (s *LLMService) Generate(ctx context.Context, gr driven.GenerationRequest) (string, error) {
	var messages []chatMessage
	if gr.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: gr.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: gr.Prompt})

	reqBody := chatRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   false,
	}
	if !gr.Config.IsZero() {
		reqBody.Options = &options{
			NumPredict:  gr.Config.MaxTokens,
			Temperature: gr.Config.Temperature,
			TopP:        gr.Config.TopP,
			Stop:        gr.Config.StopSequences,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", httperr.Transport(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", httperr.Status(provider, resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("ollama: decode response: %v: %w", err, domain.ErrTransient)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama: %s", chatResp.Error)
	}

	return chatResp.Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks connectivity via /api/tags.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create ping request: %w", err)
	}

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
