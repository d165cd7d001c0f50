package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// contextSeparator joins retrieved chunks in the prompt and extractive answer.
const contextSeparator = "\n\n---\n\n"

// VersionScanner finds the newest persisted version when the metadata store
// has no record of an SRD.
type VersionScanner interface {
	LatestVersion(ctx context.Context, srdID string) (int, error)
}

// QueryOptions tunes retrieval.
type QueryOptions struct {
	Metric domain.Metric
	TopK   int
}

// QueryService answers questions: cache lookup, query embedding, retrieval,
// optional generation, cache write.
type QueryService struct {
	srds      driven.SRDStore
	scanner   VersionScanner
	indexes   *IndexCache
	cache     *RetrievalCache
	embedder  driven.EmbeddingService
	generator driven.GenerationService
	prompts   driven.PromptStore
	opts      QueryOptions
}

// NewQueryService creates a new query service.
// The cache, generator and prompts parameters are optional (can be nil);
// without a generator only extractive answers are available.
func NewQueryService(
	srds driven.SRDStore,
	scanner VersionScanner,
	indexes *IndexCache,
	cache *RetrievalCache,
	embedder driven.EmbeddingService,
	generator driven.GenerationService,
	prompts driven.PromptStore,
	opts QueryOptions,
) *QueryService {
	if opts.Metric == "" {
		opts.Metric = domain.MetricCosine
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &QueryService{
		srds:      srds,
		scanner:   scanner,
		indexes:   indexes,
		cache:     cache,
		embedder:  embedder,
		generator: generator,
		prompts:   prompts,
		opts:      opts,
	}
}

// Ask validates a boundary request and answers it.
func (s *QueryService) Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	answer, err := s.Query(ctx, req.ToQuery())
	if err != nil {
		return nil, err
	}
	resp := domain.NewQueryResponse(answer)
	return &resp, nil
}

// Query runs the query pipeline.
func (s *QueryService) Query(ctx context.Context, q domain.Query) (*domain.Answer, error) {
	logger.Section("Query")
	logger.Debug("SRD: %s, question: %q, generative=%t conversational=%t",
		q.SRDID, q.Text, q.UseGenerative, q.Conversational)

	if NormalizeQuery(q.Text) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if !domain.ValidSRDID(q.SRDID) {
		return nil, fmt.Errorf("%w: invalid srd_id %q", domain.ErrValidation, q.SRDID)
	}
	if q.UseGenerative && s.generator == nil {
		return nil, fmt.Errorf("%w: generative answers are disabled, set [generation] provider", domain.ErrConfiguration)
	}

	gen, warnings := q.Generation.Sanitize()
	for _, w := range warnings {
		logger.Warn("generation config: %s", w)
	}
	q.Generation = gen
	k := s.topK(q.TopK)

	version, err := s.currentVersion(ctx, q.SRDID)
	if err != nil {
		return nil, err
	}
	logger.Debug("current version v%d, k=%d", version, k)

	key := CacheKey(q, version, k)
	if s.cache != nil {
		if entry, ok := s.cache.Get(ctx, key, version); ok {
			logger.Debug("cache hit %.12s", key)
			return &domain.Answer{
				Text:           entry.Answer,
				SourceChunkIDs: entry.SourceChunkIDs,
				FromCache:      true,
				Version:        version,
				Mode:           entry.Mode,
			}, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, strings.TrimSpace(q.Text))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	x, err := s.indexes.Get(ctx, q.SRDID, version)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	hits, err := x.Search(vec, k, s.opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("search %s v%d: %w", q.SRDID, version, err)
	}

	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkIndex
	}
	retrieved := BuildContext(hits)
	logger.Debug("retrieved chunks %v", ids)

	answer := &domain.Answer{
		SourceChunkIDs: ids,
		Version:        version,
		Mode:           domain.ModeExtractive,
	}
	if q.UseGenerative {
		answer.Text, err = s.generate(ctx, q, retrieved)
		if err != nil {
			return nil, err
		}
		answer.Mode = domain.ModeGenerative
	} else {
		answer.Text = ExtractiveAnswer(q.Text, retrieved)
	}

	if s.cache != nil {
		s.cache.Put(ctx, domain.CacheEntry{
			Key:            key,
			SRDID:          q.SRDID,
			Version:        version,
			Answer:         answer.Text,
			SourceChunkIDs: ids,
			Mode:           answer.Mode,
		})
	}
	return answer, nil
}

func (s *QueryService) topK(requested int) int {
	k := s.opts.TopK
	if requested > 0 {
		k = requested
	}
	return max(1, min(k, domain.MaxTopK))
}

// currentVersion returns the published version of srdID, falling back to
// scanning persisted manifests when the metadata store has no record.
func (s *QueryService) currentVersion(ctx context.Context, srdID string) (int, error) {
	srd, err := s.srds.Get(ctx, srdID)
	switch {
	case err == nil && srd.CurrentVersion > 0:
		return srd.CurrentVersion, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return 0, fmt.Errorf("resolve version of %s: %w", srdID, err)
	}

	if s.scanner != nil {
		v, err := s.scanner.LatestVersion(ctx, srdID)
		if err == nil {
			logger.Debug("%s has no published version, using persisted v%d", srdID, v)
			return v, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("scan versions of %s: %w", srdID, err)
		}
	}
	return 0, fmt.Errorf("%w: no index for srd_id %q", domain.ErrNotFound, srdID)
}

func (s *QueryService) generate(ctx context.Context, q domain.Query, retrieved string) (string, error) {
	system, err := s.loadPrompt(driven.PromptAnswerSystem)
	if err != nil {
		return "", err
	}
	tmpl, err := s.loadPrompt(driven.PromptAnswer)
	if err != nil {
		return "", err
	}
	if n := strings.Count(tmpl, "%s"); n != 2 {
		return "", fmt.Errorf("%w: prompt %q needs 2 %%s placeholders, has %d",
			domain.ErrConfiguration, driven.PromptAnswer, n)
	}

	question := strings.TrimSpace(q.Text)
	if q.Conversational {
		question = ConversationalQuestion(question)
	}

	text, err := s.generator.Generate(ctx, driven.GenerationRequest{
		System: system,
		Prompt: fmt.Sprintf(tmpl, retrieved, question),
		Config: q.Generation,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationService) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
		}
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrGenerationService)
	}
	return text, nil
}

func (s *QueryService) loadPrompt(name string) (string, error) {
	if s.prompts == nil {
		return "", fmt.Errorf("%w: no prompt store configured", domain.ErrConfiguration)
	}
	p, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("%w: load prompt %q: %w", domain.ErrConfiguration, name, err)
	}
	return p, nil
}

// BuildContext renders hits in rank order, each tagged with its chunk id.
func BuildContext(hits []domain.Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[chunk %d]\n%s", h.ChunkIndex, strings.TrimSpace(h.Chunk.Text))
	}
	return strings.Join(parts, contextSeparator)
}

// ExtractiveAnswer presents the retrieved context as the answer.
func ExtractiveAnswer(question, retrieved string) string {
	return fmt.Sprintf("Based on the retrieved SRD content for your query '%s':\n\n%s",
		strings.TrimSpace(question), retrieved)
}

// ConversationalQuestion wraps a question as one chat turn.
func ConversationalQuestion(q string) string {
	return "User: " + q + "\nBot:"
}
