package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// fsys is the filesystem uploads are read from.
var fsys afero.Fs = afero.NewOsFs()

var (
	ingestSRDID       string
	ingestContentType string
	ingestJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest an SRD document",
	Long: `Extracts, chunks and embeds a document, then publishes it as a new index
version of its SRD. Supported formats are plain text, Markdown, HTML and PDF.

The SRD id defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSRDID, "srd-id", "", "SRD identifier (default: derived from the file name)")
	ingestCmd.Flags().StringVar(&ingestContentType, "content-type", "", "MIME type (default: guessed from the extension)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", domain.ErrValidation, path, err)
	}

	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	res, err := s.Ingest.Ingest(cmd.Context(), domain.IngestRequest{
		SRDID:       ingestSRDID,
		Filename:    filepath.Base(path),
		ContentType: ingestContentType,
		Content:     content,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Ingested %s as version %d (%d chunks, dimension %d)\n",
		res.SRDID, res.Version, res.Manifest.ChunkCount, res.Manifest.Dimension)
	cmd.Printf("  Job:      %s\n", res.JobID)
	cmd.Printf("  Location: %s\n", res.Location)
	return nil
}
