package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/normalisers"
	"github.com/custodia-labs/scribe/internal/normalisers/plaintext"
	"github.com/custodia-labs/scribe/internal/postprocessors"
	"github.com/custodia-labs/scribe/internal/postprocessors/chunker"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

const testDim = 256

// --- Mock implementations ---

// countingEmbedder wraps the hashing embedder and counts calls.
type countingEmbedder struct {
	inner driven.EmbeddingService
	calls atomic.Int32
	err   error
	// dimOverride returns vectors of this width when positive.
	dimOverride int
}

func newCountingEmbedder(t *testing.T) *countingEmbedder {
	t.Helper()
	inner, err := hashing.NewEmbeddingService(testDim)
	require.NoError(t, err)
	return &countingEmbedder{inner: inner}
}

func (m *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if m.dimOverride > 0 {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = make([]float32, m.dimOverride)
			out[i][0] = 1
		}
		return out, nil
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *countingEmbedder) Dimensions() int {
	return testDim
}

func (m *countingEmbedder) ModelName() string {
	return "counting"
}

func (m *countingEmbedder) Ping(context.Context) error {
	return nil
}

func (m *countingEmbedder) Close() error {
	return nil
}

// mockGenerator records requests and returns a canned answer.
type mockGenerator struct {
	mu       sync.Mutex
	requests []driven.GenerationRequest
	answer   string
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, req driven.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockGenerator) last() driven.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func (m *mockGenerator) ModelName() string {
	return "mock"
}

func (m *mockGenerator) Ping(context.Context) error {
	return nil
}

func (m *mockGenerator) Close() error {
	return nil
}

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "You answer rules questions.",
		driven.PromptAnswer:       "Context:\n%s\n\nQuestion: %s\n\nHelpful Answer:",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// failingCacheStore fails every operation.
type failingCacheStore struct{}

func (failingCacheStore) GetEntry(context.Context, string) (*domain.CacheEntry, error) {
	return nil, errors.New("cache backend down")
}

func (failingCacheStore) PutEntry(context.Context, *domain.CacheEntry) error {
	return errors.New("cache backend down")
}

func (failingCacheStore) Purge(context.Context, time.Time) (int, error) {
	return 0, errors.New("cache backend down")
}

// failingJobStore fails every write.
type failingJobStore struct {
	memory.JobStore
}

func (*failingJobStore) SaveJob(context.Context, *domain.IngestionJob) error {
	return errors.New("job store down")
}

// --- Fixture ---

type testEnv struct {
	blobs    *blob.Store
	repo     *vectorindex.Repository
	srds     *memory.SRDStore
	jobs     *memory.JobStore
	cacheDB  *memory.CacheStore
	cache    *RetrievalCache
	embedder *countingEmbedder
	gen      *mockGenerator
	prompts  *mockPromptStore
	ingest   *IngestService
	query    *QueryService
	srd      *SRDService
}

// newTestEnv wires the services over in-memory adapters. Chunks are at
// most chunkSize runes with no overlap.
func newTestEnv(t *testing.T, chunkSize int) *testEnv {
	t.Helper()

	env := &testEnv{
		blobs:    blob.NewMemory(),
		srds:     memory.NewSRDStore(),
		jobs:     memory.NewJobStore(),
		cacheDB:  memory.NewCacheStore(),
		embedder: newCountingEmbedder(t),
		gen:      &mockGenerator{answer: "Rule B says hello."},
		prompts:  newMockPromptStore(),
	}
	env.repo = vectorindex.NewRepository(env.blobs, testDim)
	env.cache = NewRetrievalCache(env.cacheDB, time.Hour)

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())

	chunk, err := chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(0))
	require.NoError(t, err)

	env.ingest = NewIngestService(registry, postprocessors.NewPipeline(chunk), env.embedder,
		env.repo, env.srds, env.jobs, IngestOptions{BatchSize: 2})
	env.query = NewQueryService(env.srds, env.repo, NewIndexCache(env.repo, 3), env.cache,
		env.embedder, env.gen, env.prompts, QueryOptions{})
	env.srd = NewSRDService(env.srds, env.jobs, env.repo, env.cache)
	return env
}

func (e *testEnv) ingestText(t *testing.T, srdID, text string) *domain.IngestResult {
	t.Helper()
	res, err := e.ingest.Ingest(context.Background(), domain.IngestRequest{
		SRDID:       srdID,
		Filename:    srdID + ".txt",
		ContentType: "text/plain",
		Content:     []byte(text),
	})
	require.NoError(t, err)
	return res
}
