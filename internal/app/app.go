// Package app is Scribe's composition root. It turns a validated
// configuration into wired core services over the SQLite metadata store,
// the on-disk blob store and the configured capabilities.
package app

import (
	"context"
	"fmt"

	"github.com/custodia-labs/scribe/internal/adapters/driven/ai"
	"github.com/custodia-labs/scribe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scribe/internal/config"
	"github.com/custodia-labs/scribe/internal/core/services"
	"github.com/custodia-labs/scribe/internal/logger"
	"github.com/custodia-labs/scribe/internal/normalisers"
	"github.com/custodia-labs/scribe/internal/postprocessors"
	"github.com/custodia-labs/scribe/internal/postprocessors/chunker"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

// App holds the wired services for one process.
type App struct {
	Config  *config.Config
	Query   *services.QueryService
	Ingest  *services.IngestService
	SRD     *services.SRDService
	Janitor *services.CacheJanitor

	store *sqlite.Store
	ai    *ai.Services
}

// New wires every service from cfg. The caller must Close the result.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	blobs, err := blob.NewOS(cfg.BlobDir())
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening blob store: %w", err)
	}

	capabilities, err := ai.New(cfg)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	prompts, err := file.NewPromptStore(cfg.PromptDir)
	if err != nil {
		capabilities.Close()
		store.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening prompt store: %w", err)
	}

	chunk, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		capabilities.Close()
		store.Close() //nolint:errcheck
		return nil, err
	}

	repo := vectorindex.NewRepository(blobs, cfg.Embedding.Dimension)
	cache := services.NewRetrievalCache(store.CacheStore(), cfg.Cache.TTL.Std())
	if !cfg.Cache.Enabled {
		cache = nil
	}

	a := &App{
		Config: cfg,
		store:  store,
		ai:     capabilities,
	}
	a.Ingest = services.NewIngestService(
		normalisers.Default(),
		postprocessors.NewPipeline(chunk),
		capabilities.Embedding,
		repo,
		store.SRDStore(),
		store.JobStore(),
		services.IngestOptions{Metric: cfg.Metric(), BatchSize: cfg.Embedding.BatchSize},
	)
	a.Query = services.NewQueryService(
		store.SRDStore(),
		repo,
		services.NewIndexCache(repo, cfg.Index.CacheSize),
		cache,
		capabilities.Embedding,
		capabilities.GenerationService(),
		prompts,
		services.QueryOptions{Metric: cfg.Metric(), TopK: cfg.Query.TopK},
	)
	a.SRD = services.NewSRDService(store.SRDStore(), store.JobStore(), repo, cache)
	a.Janitor = services.NewCacheJanitor(a.SRD, cfg.Cache.PurgeInterval.Std())

	logger.Debug("data dir %s, embedding %s/%d, generation %q",
		cfg.DataDir, cfg.Embedding.Provider, cfg.Embedding.Dimension, cfg.Generation.Provider)
	return a, nil
}

// Ping checks that the configured capabilities are reachable.
func (a *App) Ping(ctx context.Context) error {
	return ai.Validate(ctx, a.ai)
}

// Close stops the janitor and releases the store and capabilities.
func (a *App) Close() error {
	a.Janitor.Stop()
	a.ai.Close()
	return a.store.Close()
}
