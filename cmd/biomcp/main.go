package main

import (
	"os"

	"github.com/bioopenmcp/biomcp/internal/cmd"
)

// Populated at link time via -ldflags.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	os.Exit(cmd.Execute())
}
