package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested SRDs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [srd_id]",
	Short: "Show the ingestion history of an SRD",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobs,
}

var showCmd = &cobra.Command{
	Use:   "show [srd_id]",
	Short: "Show the manifest of an SRD's current index version",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Retrieval cache commands",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired retrieval cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(listCmd, jobsCmd, showCmd, cacheCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	srds, err := s.SRD.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing SRDs: %w", err)
	}
	if len(srds) == 0 {
		cmd.Println("No SRDs ingested.")
		return nil
	}

	for _, srd := range srds {
		cmd.Printf("%-24s v%-4d updated %s\n", srd.ID, srd.CurrentVersion, srd.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	jobs, err := s.SRD.Jobs(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Printf("No ingestion jobs for %s.\n", args[0])
		return nil
	}

	for _, j := range jobs {
		cmd.Printf("%s  v%-4d %-10s %s\n", j.ID, j.Version, j.State, j.UpdatedAt.Format(time.RFC3339))
		if j.State == domain.StateFailed && j.Error != "" {
			cmd.Printf("    %s\n", j.Error)
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	m, err := s.SRD.Manifest(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	n, err := s.SRD.PurgeCache(cmd.Context(), time.Now())
	if err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}
	cmd.Printf("Purged %d expired cache entries.\n", n)
	return nil
}
