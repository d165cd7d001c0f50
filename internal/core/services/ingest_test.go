package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/normalisers"
	"github.com/custodia-labs/scribe/internal/normalisers/plaintext"
	"github.com/custodia-labs/scribe/internal/postprocessors"
	"github.com/custodia-labs/scribe/internal/postprocessors/chunker"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

func TestIngest_PersistsVersionAndManifest(t *testing.T) {
	env := newTestEnv(t, 8)
	ctx := context.Background()

	res := env.ingestText(t, "basic-rules", "Rule A. Rule B. Rule C.")

	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, "basic-rules", res.SRDID)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 3, res.Manifest.ChunkCount)
	assert.Equal(t, testDim, res.Manifest.Dimension)
	assert.Equal(t, domain.MetricCosine, res.Manifest.Metric)
	assert.NotEmpty(t, res.Location)

	srd, err := env.srds.Get(ctx, "basic-rules")
	require.NoError(t, err)
	assert.Equal(t, 1, srd.CurrentVersion)

	job, err := env.jobs.GetJob(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, job.State)
	assert.Equal(t, 1, job.Version)
	assert.Empty(t, job.Error)

	// 3 chunks in batches of 2.
	assert.Equal(t, int32(2), env.embedder.calls.Load())

	x, err := env.repo.Load(ctx, "basic-rules", 1)
	require.NoError(t, err)
	assert.Equal(t, "Rule B. ", x.Chunk(1).Text)
}

func TestIngest_VersionsAreMonotonic(t *testing.T) {
	env := newTestEnv(t, 100)

	first := env.ingestText(t, "srd", "Grapple rules.")
	second := env.ingestText(t, "srd", "Grapple rules, revised.")

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	versions, err := env.repo.Versions(context.Background(), "srd")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestIngest_DerivesSRDIDFromFilename(t *testing.T) {
	env := newTestEnv(t, 100)

	res, err := env.ingest.Ingest(context.Background(), domain.IngestRequest{
		Filename: "uploads/Basic Rules (5e).txt",
		Content:  []byte("Some rules."),
	})
	require.NoError(t, err)
	assert.Equal(t, "basic-rules-5e", res.SRDID)
}

func TestIngest_EmptyDocumentFails(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no bytes", ""},
		{"whitespace only", " \n\t \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 100)
			ctx := context.Background()

			_, err := env.ingest.Ingest(ctx, domain.IngestRequest{
				SRDID:       "empty",
				Filename:    "empty.txt",
				ContentType: "text/plain",
				Content:     []byte(tt.content),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			_, err = env.repo.LatestVersion(ctx, "empty")
			assert.ErrorIs(t, err, domain.ErrNotFound, "no manifest written")

			jobs, err := env.jobs.ListJobs(ctx, "empty")
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, domain.StateFailed, jobs[0].State)
			assert.NotEmpty(t, jobs[0].Error)
		})
	}
}

func TestIngest_UnsupportedTypeIsValidationError(t *testing.T) {
	env := newTestEnv(t, 100)

	_, err := env.ingest.Ingest(context.Background(), domain.IngestRequest{
		SRDID:       "srd",
		Filename:    "rules.bin",
		ContentType: "application/x-msdownload",
		Content:     []byte{0x4d, 0x5a},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Equal(t, int32(0), env.embedder.calls.Load())
}

func TestIngest_InvalidSRDID(t *testing.T) {
	env := newTestEnv(t, 100)

	_, err := env.ingest.Ingest(context.Background(), domain.IngestRequest{
		SRDID:    "Bad ID",
		Filename: "x.txt",
		Content:  []byte("text"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.ingest.Ingest(context.Background(), domain.IngestRequest{
		Filename: "!!!.txt",
		Content:  []byte("text"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngest_EmbeddingFailureKeepsPreviousVersion(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()
	env.ingestText(t, "srd", "Original rules.")

	env.embedder.err = domain.ErrEmbeddingService
	_, err := env.ingest.Ingest(ctx, domain.IngestRequest{
		SRDID:    "srd",
		Filename: "srd.txt",
		Content:  []byte("Broken upload."),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	srd, err := env.srds.Get(ctx, "srd")
	require.NoError(t, err)
	assert.Equal(t, 1, srd.CurrentVersion)

	versions, err := env.repo.Versions(ctx, "srd")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
}

func TestIngest_WrongVectorDimensionFails(t *testing.T) {
	env := newTestEnv(t, 100)
	env.embedder.dimOverride = testDim + 1

	_, err := env.ingest.Ingest(context.Background(), domain.IngestRequest{
		SRDID:    "srd",
		Filename: "srd.txt",
		Content:  []byte("Some rules."),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestIngest_JobStoreFailureDoesNotFailIngestion(t *testing.T) {
	env := newTestEnv(t, 100)

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	chunk, err := chunker.New()
	require.NoError(t, err)

	svc := NewIngestService(registry, postprocessors.NewPipeline(chunk), env.embedder,
		vectorindex.NewRepository(env.blobs, testDim), env.srds, &failingJobStore{}, IngestOptions{})

	res, err := svc.Ingest(context.Background(), domain.IngestRequest{
		SRDID:    "srd",
		Filename: "srd.txt",
		Content:  []byte("Some rules."),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
}
