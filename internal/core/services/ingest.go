package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbeddingBatchSize is the number of chunks sent per embedding call.
const DefaultEmbeddingBatchSize = 16

// IndexPersister writes built indexes to durable storage.
type IndexPersister interface {
	Persist(ctx context.Context, x *vectorindex.Index) (string, *domain.Manifest, error)
	VersionScanner
}

// IngestOptions tunes the ingestion pipeline.
type IngestOptions struct {
	Metric    domain.Metric
	BatchSize int
}

// IngestService runs uploads through
// Received -> Extracted -> Chunked -> Embedded -> Indexed -> Persisted.
// Any failure stops the run in Failed and leaves earlier versions untouched.
type IngestService struct {
	normalisers driven.NormaliserRegistry
	chunker     driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	repo        IndexPersister
	srds        driven.SRDStore
	jobs        driven.JobStore
	opts        IngestOptions
	now         func() time.Time
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	chunker driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	repo IndexPersister,
	srds driven.SRDStore,
	jobs driven.JobStore,
	opts IngestOptions,
) *IngestService {
	if opts.Metric == "" {
		opts.Metric = domain.MetricCosine
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultEmbeddingBatchSize
	}
	return &IngestService{
		normalisers: normalisers,
		chunker:     chunker,
		embedder:    embedder,
		repo:        repo,
		srds:        srds,
		jobs:        jobs,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest handles one upload event.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	srdID := req.SRDID
	if srdID == "" {
		srdID = domain.DeriveSRDID(req.Filename)
	}
	if !domain.ValidSRDID(srdID) {
		return nil, fmt.Errorf("%w: cannot derive srd_id from %q", domain.ErrValidation, req.Filename)
	}

	now := s.now()
	job := &domain.IngestionJob{
		ID:        uuid.New().String(),
		SRDID:     srdID,
		State:     domain.StateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.record(ctx, job)

	logger.Section("Ingest " + srdID)
	logger.Debug("job %s received %q (%d bytes, %q)", job.ID, req.Filename, len(req.Content), req.ContentType)

	result, err := s.run(ctx, job, req)
	if err != nil {
		job.Fail(err, s.now())
		s.record(ctx, job)
		logger.Warn("ingestion of %s failed in job %s: %v", srdID, job.ID, err)
		return nil, err
	}
	return result, nil
}

func (s *IngestService) run(ctx context.Context, job *domain.IngestionJob, req domain.IngestRequest) (*domain.IngestResult, error) {
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrValidation)
	}

	// Extract
	res, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		SRDID:    job.SRDID,
		URI:      req.Filename,
		MIMEType: req.ContentType,
		Content:  req.Content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, fmt.Errorf("extract: %w", err)
		}
		return nil, fmt.Errorf("%w: extract: %w", domain.ErrValidation, err)
	}
	doc := res.Document
	doc.SRDID = job.SRDID
	if err := s.advance(ctx, job, domain.StateExtracted); err != nil {
		return nil, err
	}
	logger.Debug("extracted %d bytes of text, title %q", len(doc.Content), doc.Title)

	// Chunk
	chunks, err := s.chunker.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if err := s.advance(ctx, job, domain.StateChunked); err != nil {
		return nil, err
	}
	logger.Debug("split into %d chunks", len(chunks))

	// Embed
	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.advance(ctx, job, domain.StateEmbedded); err != nil {
		return nil, err
	}

	// Index
	version, err := s.allocateVersion(ctx, job.SRDID)
	if err != nil {
		return nil, err
	}
	job.Version = version
	x, err := vectorindex.Build(job.SRDID, version, chunks, vectors, s.opts.Metric)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := s.advance(ctx, job, domain.StateIndexed); err != nil {
		return nil, err
	}

	// Persist
	location, manifest, err := s.repo.Persist(ctx, x)
	if err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	if err := s.srds.PublishVersion(ctx, job.SRDID, version); err != nil {
		return nil, fmt.Errorf("publish version: %w", err)
	}
	if err := s.advance(ctx, job, domain.StatePersisted); err != nil {
		return nil, err
	}

	logger.Info("ingested %s v%d: %d chunks at %s", job.SRDID, version, manifest.ChunkCount, location)
	return &domain.IngestResult{
		JobID:    job.ID,
		SRDID:    job.SRDID,
		Version:  version,
		Location: location,
		Manifest: *manifest,
	}, nil
}

// allocateVersion reserves a version above both the metadata store's counter
// and the newest persisted manifest, so a fresh metadata store over existing
// blobs never reuses a version. Publishing later raises the store's counter.
func (s *IngestService) allocateVersion(ctx context.Context, srdID string) (int, error) {
	version, err := s.srds.AllocateVersion(ctx, srdID)
	if err != nil {
		return 0, fmt.Errorf("allocate version: %w", err)
	}

	latest, err := s.repo.LatestVersion(ctx, srdID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return version, nil
	case err != nil:
		return 0, fmt.Errorf("scan persisted versions: %w", err)
	case latest >= version:
		logger.Warn("metadata for %s is behind persisted v%d, allocating v%d", srdID, latest, latest+1)
		return latest + 1, nil
	}
	return version, nil
}

// embed sends chunks in batches and checks every returned vector.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	dim := s.embedder.Dimensions()
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embed chunks %d-%d: got %d vectors",
				domain.ErrEmbeddingService, start, end-1, len(batch))
		}
		for i, v := range batch {
			if len(v) != dim {
				return nil, fmt.Errorf("%w: chunk %d embedded with dimension %d, expected %d",
					domain.ErrEmbeddingService, start+i, len(v), dim)
			}
		}
		vectors = append(vectors, batch...)
		logger.Debug("embedded chunks %d-%d of %d", start, end-1, len(chunks))
	}
	return vectors, nil
}

func (s *IngestService) advance(ctx context.Context, job *domain.IngestionJob, to domain.IngestionState) error {
	if err := job.Advance(to, s.now()); err != nil {
		return err
	}
	s.record(ctx, job)
	logger.Debug("job %s -> %s", job.ID, to)
	return nil
}

// record saves the job. Bookkeeping failures never fail ingestion.
func (s *IngestService) record(ctx context.Context, job *domain.IngestionJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		logger.Warn("failed to record job %s state %s: %v", job.ID, job.State, err)
	}
}
