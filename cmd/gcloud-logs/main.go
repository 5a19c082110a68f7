// Package main provides the entry point for gcloud-logs, a command-line
// tool that downloads and tails Cloud Logging entries for named Compute
// Engine instances.
package main

import (
	"os"

	"gcloud-logs/cmd/gcloud-logs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
