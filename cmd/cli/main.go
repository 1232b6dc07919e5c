// Package main is the entry point for the opticost CLI.
package main

import (
	"os"

	"opticost/cmd/cli/cmd"
	"opticost/internal/logging"
)

func main() {
	defer logging.Sync()
	if err := cmd.Execute(); err != nil {
		cmd.ExitError(err)
		logging.Sync()
		os.Exit(1)
	}
}
