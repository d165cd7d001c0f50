package domain

import (
	"fmt"
	"strings"
	"time"
)

// Generation parameter bounds.
const (
	MaxGenerationTokens = 8192
	MaxTopK             = 50
)

// AnswerMode says how an answer was produced.
type AnswerMode string

const (
	// ModeExtractive answers with the retrieved context itself.
	ModeExtractive AnswerMode = "extractive"

	// ModeGenerative answers with model output grounded in the retrieved context.
	ModeGenerative AnswerMode = "generative"
)

// GenerationConfig carries optional sampling parameters for the generative capability.
// Nil fields mean provider defaults.
type GenerationConfig struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// Sanitize returns a copy with out-of-range values removed.
// Each dropped field is reported in the returned warnings; invalid values are never fatal.
func (g GenerationConfig) Sanitize() (GenerationConfig, []string) {
	var out GenerationConfig
	var warnings []string

	if g.Temperature != nil {
		if v := *g.Temperature; v >= 0 && v <= 1 {
			out.Temperature = &v
		} else {
			warnings = append(warnings, fmt.Sprintf("temperature %v outside [0,1], ignored", v))
		}
	}
	if g.TopP != nil {
		if v := *g.TopP; v >= 0 && v <= 1 {
			out.TopP = &v
		} else {
			warnings = append(warnings, fmt.Sprintf("top_p %v outside [0,1], ignored", v))
		}
	}
	if g.MaxTokens != nil {
		if v := *g.MaxTokens; v > 0 && v <= MaxGenerationTokens {
			out.MaxTokens = &v
		} else {
			warnings = append(warnings, fmt.Sprintf("max_tokens %d outside (0,%d], ignored", v, MaxGenerationTokens))
		}
	}
	for _, s := range g.StopSequences {
		if s != "" {
			out.StopSequences = append(out.StopSequences, s)
		}
	}

	return out, warnings
}

// IsZero reports whether no parameter is set.
func (g GenerationConfig) IsZero() bool {
	return g.Temperature == nil && g.TopP == nil && g.MaxTokens == nil && len(g.StopSequences) == 0
}

// Query is a validated question against one SRD.
type Query struct {
	SRDID          string
	Text           string
	UseGenerative  bool
	Conversational bool
	Generation     GenerationConfig

	// TopK overrides the configured k when positive. The query service
	// clamps it to MaxTopK.
	TopK int
}

// Answer is the query pipeline's result. It always carries provenance.
type Answer struct {
	Text           string
	SourceChunkIDs []int
	FromCache      bool
	Version        int
	Mode           AnswerMode
}

// CacheEntry is a previously computed Answer.
type CacheEntry struct {
	Key            string
	SRDID          string
	Version        int
	Answer         string
	SourceChunkIDs []int
	Mode           AnswerMode
	CreatedAt      time.Time
	TTL            time.Duration
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// QueryRequest is the boundary payload for a query.
type QueryRequest struct {
	Query            string            `json:"query"`
	SRDID            string            `json:"srd_id"`
	UseGenerative    bool              `json:"use_generative"`
	Conversational   bool              `json:"conversational,omitempty"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
	TopK             int               `json:"top_k,omitempty"`
}

// Validate checks the request shape before it enters the core pipeline.
func (r QueryRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrValidation)
	}
	if !ValidSRDID(r.SRDID) {
		return fmt.Errorf("%w: invalid srd_id %q", ErrValidation, r.SRDID)
	}
	if r.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", ErrValidation)
	}
	return nil
}

// ToQuery converts a validated request into a Query. A top_k above MaxTopK
// is clamped; zero keeps the configured default.
func (r QueryRequest) ToQuery() Query {
	q := Query{
		SRDID:          r.SRDID,
		Text:           r.Query,
		UseGenerative:  r.UseGenerative,
		Conversational: r.Conversational,
		TopK:           min(r.TopK, MaxTopK),
	}
	if r.GenerationConfig != nil {
		q.Generation = *r.GenerationConfig
	}
	return q
}

// QueryResponse is the boundary payload for an answer.
type QueryResponse struct {
	Answer         string     `json:"answer"`
	SourceChunkIDs []int      `json:"source_chunk_ids"`
	FromCache      bool       `json:"from_cache"`
	Version        int        `json:"version"`
	Mode           AnswerMode `json:"mode"`
}

// NewQueryResponse converts an Answer to its boundary form.
func NewQueryResponse(a *Answer) QueryResponse {
	ids := a.SourceChunkIDs
	if ids == nil {
		ids = []int{}
	}
	return QueryResponse{
		Answer:         a.Text,
		SourceChunkIDs: ids,
		FromCache:      a.FromCache,
		Version:        a.Version,
		Mode:           a.Mode,
	}
}
