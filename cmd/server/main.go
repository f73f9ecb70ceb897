// Package main is the entry point for the temnet-parser archive search service.
package main

import (
	"fmt"
	"os"

	"github.com/grigden22/temnet-parser/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
