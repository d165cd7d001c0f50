package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/scribe/internal/core/domain"
)

var (
	queryGenerative     bool
	queryConversational bool
	queryTopK           int
	queryTemperature    float64
	queryTopP           float64
	queryMaxTokens      int
	queryStop           []string
	queryJSON           bool
)

var queryCmd = &cobra.Command{
	Use:   "query [srd_id] [question]",
	Short: "Ask a question about an SRD",
	Long: `Retrieves the chunks of the SRD's current index version most similar to
the question and answers from them. By default the answer quotes the retrieved
passages; --generative asks the configured language model for an answer
grounded in them.

Repeated questions are served from the retrieval cache until the SRD is
re-ingested or the entry expires.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.BoolVarP(&queryGenerative, "generative", "g", false, "generate an answer with the language model")
	f.BoolVar(&queryConversational, "conversational", false, "frame the question as a chat turn")
	f.IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	f.Float64Var(&queryTemperature, "temperature", 0, "sampling temperature in [0,1]")
	f.Float64Var(&queryTopP, "top-p", 0, "nucleus sampling in [0,1]")
	f.IntVar(&queryMaxTokens, "max-tokens", 0, "maximum answer tokens")
	f.StringArrayVar(&queryStop, "stop", nil, "stop sequence (repeatable)")
	f.BoolVar(&queryJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	req := domain.QueryRequest{
		SRDID:          args[0],
		Query:          strings.Join(args[1:], " "),
		UseGenerative:  queryGenerative,
		Conversational: queryConversational,
		TopK:           queryTopK,
	}
	if gen := generationFlags(cmd); !gen.IsZero() {
		req.GenerationConfig = &gen
	}
	if err := req.Validate(); err != nil {
		return err
	}

	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	resp, err := s.Query.Ask(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("(%s)\n", transcript.Provenance(resp))
	return nil
}

// generationFlags collects only the sampling flags the user set.
func generationFlags(cmd *cobra.Command) domain.GenerationConfig {
	var gen domain.GenerationConfig
	f := cmd.Flags()
	if f.Changed("temperature") {
		v := queryTemperature
		gen.Temperature = &v
	}
	if f.Changed("top-p") {
		v := queryTopP
		gen.TopP = &v
	}
	if f.Changed("max-tokens") {
		v := queryMaxTokens
		gen.MaxTokens = &v
	}
	if f.Changed("stop") {
		gen.StopSequences = append([]string(nil), queryStop...)
	}
	return gen
}
