package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driving/mcp"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long: `Prints the scribe version together with the index blob format it
writes and the version the MCP server reports to clients.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionShort {
			cmd.Println(version)
			return
		}
		cmd.Printf("scribe version %s\n", version)
		cmd.Printf("  index format: %s\n", vectorindex.FormatVersion)
		cmd.Printf("  mcp server:   %s\n", mcp.Version)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
