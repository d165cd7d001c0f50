package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driving/watch"
	"github.com/custodia-labs/scribe/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents dropped into a directory",
	Long: `Watches an upload directory and ingests every file created or rewritten
in it. The SRD id is derived from the file name, so re-uploading
basic-rules.md publishes a new version of basic-rules.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	stop := startJanitor(cmd.Context(), s)
	defer stop()

	w := watch.New(args[0], s.Ingest)
	cmd.Printf("Watching %s for uploads (Ctrl+C to stop)\n", args[0])

	return w.Run(cmd.Context(), func(r watch.Result) {
		if r.Err != nil {
			logger.Error("%s: %v", r.Path, r.Err)
			return
		}
		cmd.Printf("Ingested %s as %s version %d\n", r.Path, r.Result.SRDID, r.Result.Version)
	})
}
