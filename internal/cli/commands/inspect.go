package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metagen/internal/cli/ui"
	"github.com/conduit-lang/metagen/internal/compiler/binary"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

type inspectOptions struct {
	module  string
	format  string
	noColor bool
}

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <blob> [symbol]",
		Short: "Decode a metadata blob",
		Long: `Decode a metadata blob and list its modules and declarations.

With a symbol name, show that declaration in every module that declares it:
its flags, signature, fields or members.`,
		Example: `  # Summarize a blob
  metagen inspect build/metadata/metadata.bin

  # Only the declarations of one module
  metagen inspect build/metadata/metadata.bin --module Foundation

  # Show one declaration
  metagen inspect build/metadata/metadata.bin NSString

  # Machine-readable summary
  metagen inspect build/metadata/metadata.bin --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 2 {
				symbol = args[1]
			}
			return runInspect(cmd.OutOrStdout(), args[0], symbol, opts)
		},
	}

	cmd.Flags().StringVar(&opts.module, "module", "", "Only list declarations of this module")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// blobSummary is the JSON form of an inspected blob
type blobSummary struct {
	Version        byte            `json:"version"`
	PointerSize    int             `json:"pointer_size"`
	ArrayCountSize int             `json:"array_count_size"`
	Modules        []moduleSummary `json:"modules"`
}

type moduleSummary struct {
	Name  string        `json:"name"`
	Metas []metaSummary `json:"metas"`
}

type metaSummary struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Flags uint8  `json:"flags"`
}

func runInspect(out io.Writer, path, symbol string, opts *inspectOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q - use json or table", opts.format)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}
	header, err := binary.ReadHeader(data)
	if err != nil {
		return fmt.Errorf("invalid blob %s: %w", path, err)
	}
	c, err := binary.Decode(data)
	if err != nil {
		return fmt.Errorf("invalid blob %s: %w", path, err)
	}

	if symbol != "" {
		return inspectSymbol(out, c, symbol, opts.noColor)
	}

	summary := summarize(header, c, opts.module)
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	kv := ui.NewKeyValueTable(out, opts.noColor)
	kv.AddRow("Format version", strconv.Itoa(int(summary.Version)))
	kv.AddRow("Pointer size", strconv.Itoa(summary.PointerSize))
	kv.AddRow("Array count size", strconv.Itoa(summary.ArrayCountSize))
	kv.AddRow("Modules", strconv.Itoa(len(summary.Modules)))
	kv.AddRow("Declarations", strconv.Itoa(c.Len()))
	kv.Render()

	for _, mod := range summary.Modules {
		fmt.Fprintln(out)
		ui.Header(out, mod.Name, opts.noColor)
		table := ui.NewTable(out, opts.noColor, "Name", "Kind", "Flags")
		for _, m := range mod.Metas {
			table.AddRow(m.Name, m.Kind, formatFlags(meta.Flags(m.Flags)))
		}
		table.Render()
	}
	return nil
}

func summarize(h binary.Header, c *meta.Container, module string) blobSummary {
	s := blobSummary{
		Version:        h.Version,
		PointerSize:    h.Layout.PointerSize,
		ArrayCountSize: h.Layout.ArrayCountSize,
		Modules:        []moduleSummary{},
	}
	for _, mod := range c.Modules() {
		if module != "" && mod.Name != module {
			continue
		}
		ms := moduleSummary{Name: mod.Name, Metas: []metaSummary{}}
		for _, m := range mod.Metas() {
			ms.Metas = append(ms.Metas, metaSummary{Name: m.FQName().Name, Kind: m.Kind().String(), Flags: uint8(m.Flags())})
		}
		s.Modules = append(s.Modules, ms)
	}
	return s
}

func inspectSymbol(out io.Writer, c *meta.Container, symbol string, noColor bool) error {
	var found []meta.Meta
	var names []string
	for _, mod := range c.Modules() {
		if m, ok := mod.Get(symbol); ok {
			found = append(found, m)
		}
		for _, m := range mod.Metas() {
			names = append(names, m.FQName().Name)
		}
	}
	if len(found) == 0 {
		sort.Strings(names)
		fmt.Fprint(out, ui.SymbolNotFoundError(symbol, ui.SuggestSymbols(symbol, names), noColor))
		return fmt.Errorf("symbol %s not found", symbol)
	}

	for i, m := range found {
		if i > 0 {
			fmt.Fprintln(out)
		}
		describeMeta(out, m, noColor)
	}
	return nil
}

func describeMeta(out io.Writer, m meta.Meta, noColor bool) {
	ui.Header(out, m.FQName().String(), noColor)
	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Kind", m.Kind().String())
	kv.AddRow("Flags", formatFlags(m.Flags()))

	switch m := m.(type) {
	case *meta.FunctionMeta:
		kv.AddRow("Signature", signature(m.Signature))
	case *meta.VarMeta:
		kv.AddRow("Type", m.Signature.String())
	case *meta.EnumConstantMeta:
		kv.AddRow("Value", m.Value)
	case *meta.JsCodeMeta:
		kv.AddRow("Code", m.Code)
	case *meta.InterfaceMeta:
		if !m.BaseName.IsEmpty() {
			kv.AddRow("Base", m.BaseName.String())
		}
	case *meta.CategoryMeta:
		kv.AddRow("Extends", m.ExtendedInterface.String())
	}
	kv.Render()

	switch m := m.(type) {
	case *meta.StructMeta:
		describeFields(out, m.Fields, noColor)
	case *meta.UnionMeta:
		describeFields(out, m.Fields, noColor)
	case *meta.EnumMeta:
		table := ui.NewTable(out, noColor, "Member", "Value")
		for _, member := range m.Members {
			table.AddRow(member.Name, member.Value)
		}
		renderNonEmpty(out, table)
	case meta.ClassMeta:
		describeMembers(out, m.Class(), noColor)
	}
}

func describeFields(out io.Writer, fields []meta.RecordField, noColor bool) {
	table := ui.NewTable(out, noColor, "Field", "Type")
	for _, f := range fields {
		table.AddRow(f.Name, f.Encoding.String())
	}
	renderNonEmpty(out, table)
}

func describeMembers(out io.Writer, c *meta.BaseClassMeta, noColor bool) {
	if len(c.Protocols) > 0 {
		dim := color.New(color.FgHiBlack)
		if noColor {
			dim.DisableColor()
		}
		for _, p := range c.Protocols {
			dim.Fprintf(out, "conforms to %s\n", p)
		}
	}

	table := ui.NewTable(out, noColor, "Member", "Selector", "JS name", "Signature")
	for _, m := range c.StaticMethods {
		table.AddRow("static", m.Selector, m.JsName, signature(m.Signature))
	}
	for _, m := range c.InstanceMethods {
		table.AddRow("instance", m.Selector, m.JsName, signature(m.Signature))
	}
	for _, p := range c.Properties {
		typ := ""
		if p.Getter != nil && len(p.Getter.Signature) > 0 {
			typ = p.Getter.Signature[0].String()
		}
		table.AddRow("property", p.Name, p.JsName, typ)
	}
	renderNonEmpty(out, table)
}

func renderNonEmpty(out io.Writer, table *ui.Table) {
	if table.Len() == 0 {
		return
	}
	fmt.Fprintln(out)
	table.Render()
}

func signature(sig []meta.Type) string {
	return meta.FunctionPointer(sig).String()
}

var flagNames = []struct {
	flag meta.Flags
	name string
}{
	{meta.FlagFunctionIsVariadic, "variadic"},
	{meta.FlagFunctionOwnsReturnedCocoaObject, "owns-returned"},
	{meta.FlagMethodIsInitializer, "initializer"},
	{meta.FlagMethodIsVariadic, "method-variadic"},
	{meta.FlagMethodIsOptional, "optional"},
	{meta.FlagPropertyHasGetter, "getter"},
	{meta.FlagPropertyHasSetter, "setter"},
}

// formatFlags renders the set bits of f by name, or "-" when none are set
func formatFlags(f meta.Flags) string {
	if f == 0 {
		return "-"
	}
	out := ""
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			if out != "" {
				out += ","
			}
			out += fn.name
		}
	}
	return out
}
