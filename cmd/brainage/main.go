// Package main provides the entry point for the brainage CLI.
package main

import (
	"os"

	"github.com/YuminosukeSato/brainage/cmd/brainage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
