package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Validate pings each configured capability so misconfiguration surfaces
// before any ingestion or query work starts.
func Validate(ctx context.Context, svcs *Services) error {
	if svcs.Embedding != nil {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := svcs.Embedding.Ping(pctx)
		cancel()
		if err != nil {
			return fmt.Errorf("%w: %s unreachable (%w). Check the [embedding] section of your config",
				domain.ErrEmbeddingService, svcs.Embedding.ModelName(), err)
		}
	}

	if svcs.Generation != nil {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := svcs.Generation.Ping(pctx)
		cancel()
		if err != nil {
			return fmt.Errorf("%w: %s unreachable (%w). Check the [generation] section of your config",
				domain.ErrGenerationService, svcs.Generation.ModelName(), err)
		}
	}
	return nil
}
