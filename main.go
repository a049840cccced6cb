package main

import (
	"fmt"
	"os"

	"github.com/conneroisu/pages/cmd"
	"github.com/conneroisu/pages/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatSuggestions("Error: "+err.Error(), errors.Suggest(err)))
		os.Exit(1)
	}
}
