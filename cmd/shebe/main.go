// Package main provides the entry point for the shebe CLI.
package main

import (
	"os"

	"github.com/shebe-dev/shebe/cmd/shebe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
