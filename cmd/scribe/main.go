// Command scribe answers rules questions about tabletop SRD documents.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/scribe/internal/adapters/driving/cli"
	"github.com/custodia-labs/scribe/internal/app"
	"github.com/custodia-labs/scribe/internal/config"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	os.Exit(cli.Execute())
}

func bootstrap(_ context.Context, path string) (*cli.Services, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Query:   a.Query,
		Ingest:  a.Ingest,
		SRD:     a.SRD,
		Janitor: a.Janitor,
		Ping:    a.Ping,
		Close:   a.Close,
	}, nil
}
