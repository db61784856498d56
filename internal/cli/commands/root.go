package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagen/internal/compiler/binary"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "metagen",
		Short: "Objective-C API metadata generator",
		Long: color.CyanString(`metagen - Objective-C API metadata generator

metagen turns the declarations of a parsed SDK into the binary metadata
blob read by the JavaScript bridge runtime, plus TypeScript definitions
for every top-level module.

Pipeline:
  • Ingest declarations into canonical, collision-free metas
  • Drop declarations the runtime cannot model, with diagnostics
  • Apply exceptional corrections and remove inherited duplicates
  • Encode the offset-addressed binary blob`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewIndexCommand())
	rootCmd.AddCommand(NewCompletionCommand())
	registerCompletions(rootCmd)

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the metagen version, Git commit, build date, Go version and blob format version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "metagen version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)

			titleColor.Fprint(out, "Blob format: ")
			valueColor.Fprintln(out, binary.FormatVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
