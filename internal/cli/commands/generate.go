package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/cli/config"
	"github.com/conduit-lang/metagen/internal/cli/ui"
	"github.com/conduit-lang/metagen/internal/compiler/cache"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/generator"
	"github.com/conduit-lang/metagen/internal/compiler/identifier"
	"github.com/conduit-lang/metagen/internal/compiler/typescript"
	"github.com/conduit-lang/metagen/internal/index"
	"github.com/conduit-lang/metagen/internal/logger"
	"github.com/conduit-lang/metagen/internal/watch"
)

type generateOptions struct {
	input          string
	output         string
	pointerSize    int
	arrayCountSize int
	collisions     string
	noCache        bool
	indexPath      string
	noTypeScript   bool
	json           bool
	verbose        bool
	watch          bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [unit]",
		Short: "Generate binary metadata and TypeScript definitions",
		Long: `Generate the metadata blob and TypeScript definitions from a declaration unit.

The declaration unit is the JSON (optionally gzip-compressed) dump of a parsed
SDK. Declarations that cannot be modeled are skipped and reported; they never
abort the run.

Settings are read from metagen.yml and METAGEN_* environment variables; flags
override both.`,
		Example: `  # Generate using metagen.yml
  metagen generate

  # Generate from an explicit unit with 8-byte pointers
  metagen generate sdk/ios.json.gz --pointer-size 8

  # Report skipped declarations as JSON
  metagen generate --json > report.json

  # Record the run in the symbol index
  metagen generate --index build/index.db

  # Regenerate whenever the unit or collision table changes
  metagen generate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default: output.dir)")
	cmd.Flags().IntVar(&opts.pointerSize, "pointer-size", 0, "Pointer width in bytes, 1-8 (default: binary.pointer_size)")
	cmd.Flags().IntVar(&opts.arrayCountSize, "array-count-size", 0, "Array count width in bytes, 1-8 (default: binary.array_count_size)")
	cmd.Flags().StringVar(&opts.collisions, "collisions", "", "TOML collision table (default: identifiers.collisions)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Regenerate even when the inputs are unchanged")
	cmd.Flags().StringVar(&opts.indexPath, "index", "", "Record the run in this SQLite symbol index (default: index.path)")
	cmd.Flags().BoolVar(&opts.noTypeScript, "no-typescript", false, "Skip writing TypeScript definitions")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output diagnostics in JSON format")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show every skipped declaration")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Regenerate when the inputs change")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), false))
		return err
	}
	applyGenerateFlags(cfg, opts)

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbose); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("no declaration unit given - pass it as an argument or set input in metagen.yml")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := generateOnce(ctx, cmd, cfg, opts); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return watchInputs(ctx, cmd, cfg, opts)
}

// generateOnce loads the unit, runs the generator and writes its output
func generateOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *generateOptions) error {
	out := cmd.OutOrStdout()

	unit, err := decl.Load(cfg.Input)
	if err != nil {
		return err
	}

	genOpts, closeIndex, err := generatorOptions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex()

	g, err := generator.New(genOpts...)
	if err != nil {
		return err
	}
	res, err := g.Run(ctx, unit)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.GenerationError(err.Error(), false))
		return fmt.Errorf("generation failed")
	}

	if err := writeResult(cfg, res, !opts.noTypeScript); err != nil {
		return err
	}

	if opts.json {
		report, err := errors.FormatErrorsAsJSON(res.RunID.String(), res.Diagnostics)
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		fmt.Fprintln(out, report)
		return nil
	}
	printGenerateSummary(out, cfg, res, opts.verbose)
	return nil
}

// watchInputs regenerates on every change to the unit or the collision
// table until interrupted.
func watchInputs(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *generateOptions) error {
	out := cmd.OutOrStdout()

	files := []string{cfg.Input}
	if cfg.Identifiers.Collisions != "" {
		files = append(files, cfg.Identifiers.Collisions)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	iw, err := watch.NewInputWatcher(files, watch.DefaultDelay, func(changed []string) error {
		fmt.Fprint(out, ui.Info("Change detected in "+strings.Join(changed, ", ")+", regenerating", false))
		return generateOnce(ctx, cmd, cfg, opts)
	})
	if err != nil {
		return err
	}
	if err := iw.Start(); err != nil {
		return err
	}
	defer iw.Stop()

	fmt.Fprint(out, ui.Info("Watching "+strings.Join(files, ", ")+" (Ctrl+C to stop)", false))
	<-ctx.Done()
	return nil
}

func applyGenerateFlags(cfg *config.Config, opts *generateOptions) {
	if opts.input != "" {
		cfg.Input = opts.input
	}
	if opts.output != "" {
		cfg.Output.Dir = opts.output
	}
	if opts.pointerSize != 0 {
		cfg.Binary.PointerSize = opts.pointerSize
	}
	if opts.arrayCountSize != 0 {
		cfg.Binary.ArrayCountSize = opts.arrayCountSize
	}
	if opts.collisions != "" {
		cfg.Identifiers.Collisions = opts.collisions
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if opts.indexPath != "" {
		cfg.Index.Path = opts.indexPath
	}
	if opts.verbose {
		cfg.Log.Verbose = true
	}
	if opts.json {
		cfg.Log.JSON = true
	}
}

// generatorOptions wires the configured collision table, cache and symbol
// index. The returned func closes the index, if one was opened.
func generatorOptions(ctx context.Context, cfg *config.Config) ([]generator.Option, func(), error) {
	opts := []generator.Option{generator.WithLayout(cfg.Layout())}
	closer := func() {}

	if cfg.Identifiers.Collisions != "" {
		table, err := identifier.LoadCollisionTable(cfg.Identifiers.Collisions)
		if err != nil {
			return nil, closer, err
		}
		opts = append(opts, generator.WithCollisions(table))
	}

	if cfg.Cache.Enabled {
		bc, err := cache.NewBlobCache(cfg.Cache.Dir)
		if err != nil {
			return nil, closer, err
		}
		opts = append(opts, generator.WithCache(bc))
	}

	if cfg.Index.Path != "" {
		store, err := index.Open(ctx, cfg.Index.Path)
		if err != nil {
			return nil, closer, err
		}
		closer = func() {
			if err := store.Close(); err != nil {
				logger.Warnw("failed to close symbol index", "error", err)
			}
		}
		opts = append(opts, generator.WithRecorder(store))
	}
	return opts, closer, nil
}

// writeResult writes the blob and, unless disabled, one definition file per
// top-level module.
func writeResult(cfg *config.Config, res *generator.Result, definitions bool) error {
	blobPath := cfg.BlobPath()
	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(blobPath, res.Blob, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", blobPath, err)
	}

	if !definitions {
		return nil
	}
	dir := cfg.TypeScriptDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create typings directory: %w", err)
	}
	for topLevel, content := range res.Definitions {
		path := filepath.Join(dir, typescript.FileName(topLevel))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func printGenerateSummary(out io.Writer, cfg *config.Config, res *generator.Result, verbose bool) {
	infoColor := color.New(color.FgCyan)

	if verbose {
		for _, d := range res.Diagnostics {
			fmt.Fprint(out, d.FormatForTerminal())
		}
	}

	if res.Cached {
		fmt.Fprint(out, ui.Info("Inputs unchanged, metadata served from cache", false))
	}
	if res.Skipped > 0 {
		fmt.Fprint(out, errors.FormatSummary(0, res.Skipped))
	}

	layout := cfg.Layout()
	infoColor.Fprintf(out, "Run %s: %d bytes (%d/%d byte pointers/counts), %d definition file(s)\n",
		res.RunID, len(res.Blob), layout.PointerSize, layout.ArrayCountSize, len(res.Definitions))
	if res.MembersRemoved > 0 {
		infoColor.Fprintf(out, "Removed %d inherited duplicate member(s)\n", res.MembersRemoved)
	}
	ui.WriteSuccess(out, "Wrote "+cfg.BlobPath(), false)
}

