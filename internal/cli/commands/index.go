package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagen/internal/cli/config"
	"github.com/conduit-lang/metagen/internal/cli/ui"
	"github.com/conduit-lang/metagen/internal/index"
)

type indexOptions struct {
	db      string
	members bool
	noColor bool
}

// NewIndexCommand creates the index command
func NewIndexCommand() *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index [symbol]",
		Short: "Query the symbol index",
		Long: `Query the SQLite symbol index filled by "metagen generate --index".

Without arguments, show the latest indexed run. With a symbol name, list the
modules declaring it in the latest run.`,
		Example: `  # Show the latest run
  metagen index

  # Find a declaration and its members
  metagen index NSString --members

  # Use another database
  metagen index UIView --db build/index.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 1 {
				symbol = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runIndex(ctx, cmd.OutOrStdout(), symbol, opts)
		},
	}

	cmd.Flags().StringVar(&opts.db, "db", "", "Symbol index database (default: index.path)")
	cmd.Flags().BoolVar(&opts.members, "members", false, "List the methods and properties of class-like symbols")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runIndex(ctx context.Context, out io.Writer, symbol string, opts *indexOptions) error {
	path := opts.db
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Index.Path
	}
	if path == "" {
		return fmt.Errorf("no symbol index configured - pass --db or set index.path in metagen.yml")
	}

	store, err := index.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LatestRun(ctx)
	if err != nil {
		return err
	}

	if symbol == "" {
		kv := ui.NewKeyValueTable(out, opts.noColor)
		kv.AddRow("Run", run.ID.String())
		kv.AddRow("Recorded", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		kv.AddRow("Modules", fmt.Sprint(run.Modules))
		kv.AddRow("Declarations", fmt.Sprint(run.Symbols))
		kv.Render()
		return nil
	}

	symbols, err := store.FindSymbols(ctx, run.ID, symbol)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		names, err := store.Names(ctx, run.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(out, ui.SymbolNotFoundError(symbol, ui.SuggestSymbols(symbol, names), opts.noColor))
		return fmt.Errorf("symbol %s not found", symbol)
	}

	table := ui.NewTable(out, opts.noColor, "Module", "Name", "Kind", "Flags")
	for _, s := range symbols {
		table.AddRow(s.Module, s.Name, s.Kind, formatFlags(s.Flags))
	}
	table.Render()

	if !opts.members {
		return nil
	}
	for _, s := range symbols {
		members, err := store.Members(ctx, run.ID, s.Module, s.Name)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintln(out)
		ui.Header(out, s.Module+"."+s.Name, opts.noColor)
		mt := ui.NewTable(out, opts.noColor, "Member", "Selector", "JS name")
		for _, m := range members {
			mt.AddRow(m.Kind, m.Selector, m.JsName)
		}
		mt.Render()
	}
	return nil
}
