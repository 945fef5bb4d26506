// Package main is the entry point for the typeahead CLI.
package main

import (
	"os"

	"github.com/runger/typeahead/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
