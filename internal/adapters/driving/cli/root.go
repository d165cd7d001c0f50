// Package cli implements Scribe's command line interface with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/scribe/internal/config"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// Janitor runs background cache maintenance for long-running commands.
type Janitor interface {
	Start(ctx context.Context)
	Stop()
}

// Services holds the driving ports the commands call.
type Services struct {
	Query   driving.QueryService
	Ingest  driving.IngestService
	SRD     driving.SRDService
	Janitor Janitor

	// Ping checks capability reachability. Optional.
	Ping func(ctx context.Context) error

	// Close releases resources. Optional.
	Close func() error
}

// Bootstrap builds services from the configuration file at path.
type Bootstrap func(ctx context.Context, path string) (*Services, error)

var (
	// version is set at build time.
	version = "dev"

	configPath string
	verbose    bool

	bootstrap   Bootstrap
	appServices *Services
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Ask questions about tabletop rules documents",
	Long: `Scribe ingests tabletop-game System Reference Documents (SRDs) into
versioned vector indexes and answers rules questions against them, either by
quoting the most relevant passages or by generating a grounded answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetColour(term.IsTerminal(int(os.Stderr.Fd())))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $SCRIBE_CONFIG or ~/.scribe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by "scribe version".
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	if appServices != nil && appServices.Close != nil {
		if cerr := appServices.Close(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
	}
	if err != nil {
		printError(os.Stderr, err)
	}
	return ExitCode(err)
}

// resolveConfigPath returns the --config flag or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// loadServices builds services on first use. Commands that only touch the
// config file never open the stores.
func loadServices(cmd *cobra.Command) (*Services, error) {
	if appServices != nil {
		return appServices, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}

	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	s, err := bootstrap(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	appServices = s
	return s, nil
}

// startJanitor starts cache maintenance and returns its stop function.
func startJanitor(ctx context.Context, s *Services) func() {
	if s.Janitor == nil {
		return func() {}
	}
	s.Janitor.Start(ctx)
	return s.Janitor.Stop
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ") //nolint:errcheck
	fmt.Fprintln(w, err)
}
