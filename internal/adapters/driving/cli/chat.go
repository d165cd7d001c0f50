package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driving/tui"
)

var (
	chatGenerative bool
	chatTopK       int
)

var chatCmd = &cobra.Command{
	Use:   "chat [srd_id]",
	Short: "Chat about an SRD in the terminal",
	Long: `Opens an interactive chat about one SRD. Each question is framed as a
conversational turn and answered with the chunk ids it came from.

Controls:
  Enter   - Ask
  Ctrl+G  - Toggle generative answers
  PgUp/Dn - Scroll the transcript
  Ctrl+L  - Clear the transcript
  Esc     - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVarP(&chatGenerative, "generative", "g", false, "start in generative mode")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	stop := startJanitor(cmd.Context(), s)
	defer stop()

	app, err := tui.NewApp(&tui.Ports{Query: s.Query}, tui.Options{
		SRDID:      args[0],
		Generative: chatGenerative,
		TopK:       chatTopK,
	})
	if err != nil {
		return err
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
