// Package main provides the entry point for the kontent-migrate CLI.
package main

import (
	"os"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
