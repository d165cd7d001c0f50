package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

func TestSRDService_ListAndManifest(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()
	env.ingestText(t, "beta", "Beta rules.")
	env.ingestText(t, "alpha", "Alpha rules.")
	env.ingestText(t, "alpha", "Alpha rules, second printing.")

	srds, err := env.srd.List(ctx)
	require.NoError(t, err)
	require.Len(t, srds, 2)
	assert.Equal(t, "alpha", srds[0].ID)
	assert.Equal(t, 2, srds[0].CurrentVersion)

	m, err := env.srd.Manifest(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
	assert.Equal(t, 1, m.ChunkCount)

	_, err = env.srd.Manifest(ctx, "gamma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.srd.Manifest(ctx, "Not Valid")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSRDService_Jobs(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()
	env.ingestText(t, "srd", "Rules.")
	_, _ = env.ingest.Ingest(ctx, domain.IngestRequest{SRDID: "srd", Filename: "srd.txt", Content: []byte(" ")})

	jobs, err := env.srd.Jobs(ctx, "srd")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	states := []domain.IngestionState{jobs[0].State, jobs[1].State}
	assert.ElementsMatch(t, []domain.IngestionState{domain.StatePersisted, domain.StateFailed}, states)
}

func TestSRDService_PurgeCache(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()
	env.cache.Put(ctx, domain.CacheEntry{Key: "k", Version: 1, Answer: "a", TTL: time.Second})

	n, err := env.srd.PurgeCache(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	svc := NewSRDService(env.srds, env.jobs, env.repo, nil)
	n, err = svc.PurgeCache(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
