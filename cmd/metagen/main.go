package main

import (
	"os"

	"github.com/conduit-lang/metagen/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate
	commands.GoVersion = GoVersion

	// Execute prints the error itself
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
