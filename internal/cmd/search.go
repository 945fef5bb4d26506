package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/typeahead/internal/log"
	"github.com/runger/typeahead/internal/pipeline"
	"github.com/runger/typeahead/internal/ui"
)

var searchQuery string

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search interactively as you type",
	Long: `Open the interactive search view. Results update as you pause
typing; Enter prints the selected hit to stdout, Esc cancels.

Examples:
  typeahead search                   # Start with an empty query
  typeahead search --query docker    # Start with an initial query
  out=$(typeahead search)            # Capture the selection in a script`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "initial search query")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := checkTTY(); err != nil {
		return err
	}
	if err := checkTERM(); err != nil {
		return err
	}

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

	pipe := pipeline.New(prov,
		pipeline.WithDebounce(time.Duration(cfg.Pipeline.DebounceMs)*time.Millisecond),
		pipeline.WithLimit(cfg.Pipeline.Limit),
		pipeline.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	pipeDone := make(chan struct{})
	go func() {
		pipe.Run(ctx)
		close(pipeDone)
	}()

	model := ui.NewModel(pipe)
	if searchQuery != "" {
		model = model.WithQuery(searchQuery)
	}

	// Open /dev/tty for TUI input/output since stdout carries the result.
	tty, err := openTTY()
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	// When invoked via $(typeahead search), stdout is a pipe so lipgloss
	// defaults to Ascii (no color). Detect the profile from the real tty
	// instead.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	finalModel, err := p.Run()

	pipe.Close()
	cancel()
	<-pipeDone

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	m, ok := finalModel.(ui.Model)
	if !ok {
		return fmt.Errorf("unexpected model type %T", finalModel)
	}

	if result := m.Result(); result != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result)
	}
	return nil
}
