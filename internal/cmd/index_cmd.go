package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/typeahead/internal/index"
	"github.com/runger/typeahead/internal/log"
)

var (
	indexTitle  string
	indexSource string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local search index",
	Long: `Manage the local SQLite search index.

Subcommands:
  add    - Index files, or stdin when no files are given
  stats  - Show the number of indexed documents`,
}

var indexAddCmd = &cobra.Command{
	Use:   "add [files...]",
	Short: "Add documents to the index",
	Long: `Add documents to the index. Each file becomes one document with the
file name as its title. With no arguments, a single document is read
from stdin (use --title to name it).

Examples:
  typeahead index add README.md docs/*.md
  some-command | typeahead index add --title "build log"`,
	RunE: runIndexAdd,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

func init() {
	indexAddCmd.Flags().StringVar(&indexTitle, "title", "", "document title when reading from stdin")
	indexAddCmd.Flags().StringVar(&indexSource, "source", "", "source label recorded with each document")

	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func openStore() (*index.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return index.Open(cfg.Index.DBPath, index.Config{Logger: log.NewFromEnv()})
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		return addFromStdin(cmd, store)
	}

	added := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		source := indexSource
		if source == "" {
			source = path
		}
		doc := &index.Document{
			Title:     filepath.Base(path),
			Body:      string(data),
			Source:    source,
			CreatedAt: time.Now(),
		}
		if err := store.Add(cmd.Context(), doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		added++
	}

	fmt.Printf("Indexed %d document(s).\n", added)
	return nil
}

func addFromStdin(cmd *cobra.Command, store *index.Store) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	title := indexTitle
	if title == "" {
		title = "stdin"
	}
	doc := &index.Document{
		Title:     title,
		Body:      string(data),
		Source:    indexSource,
		CreatedAt: time.Now(),
	}
	if err := store.Add(cmd.Context(), doc); err != nil {
		return fmt.Errorf("failed to index stdin: %w", err)
	}

	fmt.Println("Indexed 1 document.")
	return nil
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Documents indexed: %d\n", n)
	return nil
}
