// Command teamzones is the operator CLI for the TeamZones ingest service:
// inspect and retry video records, process a single upload, and manage
// configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "teamzones: %v\n", err)
		os.Exit(1)
	}
}
