package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/typeahead/internal/log"
	"github.com/runger/typeahead/internal/provider"
	"github.com/runger/typeahead/internal/snapshot"
)

var (
	queryJSON  bool
	queryLimit int
)

// queryTimeout bounds a one-shot search.
const queryTimeout = 10 * time.Second

var queryCmd = &cobra.Command{
	Use:   "query <term>",
	Short: "Run a single search and print the hits",
	Long: `Run one search against the configured backend and print the hits,
without the interactive view.

Examples:
  typeahead query "docker run"       # Search for docker
  typeahead query --json git         # Output as JSON
  typeahead query --limit 50 make    # Return up to 50 hits`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output hits as JSON")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 20, "maximum number of hits")

	rootCmd.AddCommand(queryCmd)
}

type queryOutput struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type queryResponse struct {
	Hits      []queryOutput `json:"hits"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.NewFromEnv()
	prov, closer, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	resp, err := prov.Search(ctx, provider.Request{
		RequestID: 1,
		Query:     args[0],
		Limit:     queryLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		return writeQueryJSON(resp.Hits)
	}

	if len(resp.Hits) == 0 {
		fmt.Println("No hits found.")
		return nil
	}

	for _, h := range resp.Hits {
		if h.Snippet != "" {
			fmt.Printf("%s\t%s\n", h.Title, h.Snippet)
		} else {
			fmt.Println(h.Title)
		}
	}
	return nil
}

func writeQueryJSON(hits []snapshot.Hit) error {
	output := make([]queryOutput, len(hits))
	for i, h := range hits {
		output[i] = queryOutput{
			Title:   h.Title,
			Snippet: h.Snippet,
			Source:  h.Source,
			Score:   h.Score,
		}
	}

	resp := queryResponse{
		Hits:      output,
		Total:     len(output),
		Truncated: len(output) >= queryLimit,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
