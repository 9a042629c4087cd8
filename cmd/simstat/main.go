package main

import (
	"os"
)

// ============================================================================
// SIMSTAT CLI: SIM mortality records, analyzed
// ============================================================================

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
