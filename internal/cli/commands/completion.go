package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagen/internal/compiler/binary"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Print the shell completion script for metagen.

Besides command and flag names, the scripts complete:
  • declaration units (.json, .gz) for "generate"
  • blobs (.bin) and the declarations inside them for "inspect"
  • collision tables (.toml) and index databases (.db)
  • pointer and array count widths and inspect output formats

Load for the current shell:

  $ source <(metagen completion bash)
  $ metagen completion fish | source

Install permanently:

  $ metagen completion bash > /etc/bash_completion.d/metagen
  $ metagen completion zsh > "${fpath[1]}/_metagen"
  $ metagen completion fish > ~/.config/fish/completions/metagen.fish
  PS> metagen completion powershell > metagen.ps1`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}

	return cmd
}

var widthCompletions = []string{"1", "2", "4", "8"}

// registerCompletions attaches argument and flag completion to the
// subcommands of root.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "generate":
			cmd.ValidArgsFunction = fileExtensions(0, "json", "gz")
			_ = cmd.RegisterFlagCompletionFunc("collisions", fileExtensionsFlag("toml"))
			_ = cmd.RegisterFlagCompletionFunc("index", fileExtensionsFlag("db"))
			_ = cmd.RegisterFlagCompletionFunc("output", dirsOnly)
			_ = cmd.RegisterFlagCompletionFunc("pointer-size", cobra.FixedCompletions(widthCompletions, cobra.ShellCompDirectiveNoFileComp))
			_ = cmd.RegisterFlagCompletionFunc("array-count-size", cobra.FixedCompletions(widthCompletions, cobra.ShellCompDirectiveNoFileComp))
		case "inspect":
			cmd.ValidArgsFunction = completeInspectArgs
			_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp))
			_ = cmd.RegisterFlagCompletionFunc("module", completeBlobModules)
		case "index":
			cmd.ValidArgsFunction = cobra.NoFileCompletions
			_ = cmd.RegisterFlagCompletionFunc("db", fileExtensionsFlag("db"))
		}
	}
}

// fileExtensions completes the first maxArgs+1 arguments with files of the
// given extensions
func fileExtensions(maxArgs int, exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

func fileExtensionsFlag(exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

func dirsOnly(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completeInspectArgs completes the blob path, then the declarations it holds
func completeInspectArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return []string{"bin"}, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		module, _ := cmd.Flags().GetString("module")
		return blobNames(args[0], toComplete, func(mod string) bool { return module == "" || mod == module }),
			cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func completeBlobModules(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, ok := decodeForCompletion(args[0])
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, mod := range c.Modules() {
		if strings.HasPrefix(mod.Name, toComplete) {
			names = append(names, mod.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// blobNames lists the distinct declaration names in blob starting with
// prefix, in module order
func blobNames(path, prefix string, keepModule func(string) bool) []string {
	c, ok := decodeForCompletion(path)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, mod := range c.Modules() {
		if !keepModule(mod.Name) {
			continue
		}
		for _, m := range mod.Metas() {
			name := m.FQName().Name
			if _, dup := seen[name]; dup || !strings.HasPrefix(name, prefix) {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// decodeForCompletion decodes a blob, treating any failure as nothing to
// offer; completion never reports errors to the shell
func decodeForCompletion(path string) (*meta.Container, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	c, err := binary.Decode(data)
	if err != nil {
		return nil, false
	}
	return c, true
}
