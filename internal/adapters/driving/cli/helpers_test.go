package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/scribe/internal/adapters/driven/llm/echo"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/scribe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scribe/internal/core/services"
	"github.com/custodia-labs/scribe/internal/normalisers"
	"github.com/custodia-labs/scribe/internal/postprocessors"
	"github.com/custodia-labs/scribe/internal/postprocessors/chunker"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

const testDim = 256

// setupTestServices wires real services over in-memory adapters and an
// in-memory upload filesystem. It returns the filesystem so tests can
// place uploads.
func setupTestServices(t *testing.T) afero.Fs {
	t.Helper()

	embedder, err := hashing.NewEmbeddingService(testDim)
	require.NoError(t, err)
	prompts, err := file.NewPromptStoreFs(afero.NewMemMapFs(), "/prompts")
	require.NoError(t, err)
	chunk, err := chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(0))
	require.NoError(t, err)

	srds := memory.NewSRDStore()
	jobs := memory.NewJobStore()
	repo := vectorindex.NewRepository(blob.NewMemory(), testDim)
	cache := services.NewRetrievalCache(memory.NewCacheStore(), services.DefaultCacheTTL)
	srd := services.NewSRDService(srds, jobs, repo, cache)

	prevFs, prevServices := fsys, appServices
	fsys = afero.NewMemMapFs()
	appServices = &Services{
		Ingest: services.NewIngestService(normalisers.Default(), postprocessors.NewPipeline(chunk),
			embedder, repo, srds, jobs, services.IngestOptions{}),
		Query: services.NewQueryService(srds, repo, services.NewIndexCache(repo, 3), cache,
			embedder, echo.NewLLMService(), prompts, services.QueryOptions{}),
		SRD:     srd,
		Janitor: services.NewCacheJanitor(srd, 0),
	}
	t.Cleanup(func() {
		fsys, appServices = prevFs, prevServices
	})
	return fsys
}

// resetFlags restores every flag to its default and drops the context cobra
// cached on each command, so state does not leak between Execute calls.
// Cobra only hands a subcommand the ExecuteContext context while its own
// context is nil.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil) //nolint:errcheck
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(nil) //nolint:staticcheck
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
