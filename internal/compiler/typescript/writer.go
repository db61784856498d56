// Package typescript renders a finalized meta container as TypeScript
// declaration files, one per top-level module.
package typescript

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// Definitions writes a declaration file for every top-level module of c,
// keyed by top-level module name.
func Definitions(c *meta.Container) map[string]string {
	out := make(map[string]string)
	for _, mod := range c.Modules() {
		top := mod.TopLevel()
		if _, done := out[top]; done {
			continue
		}
		out[top] = NewWriter(c, top).Write()
	}
	return out
}

// FileName returns the declaration file name of a top-level module
func FileName(topLevel string) string {
	return topLevel + ".d.ts"
}

// Writer renders the metas of one top-level module
type Writer struct {
	container *meta.Container
	module    string
	buf       *bytes.Buffer
	indent    int
	imports   map[string]bool
}

// NewWriter creates a writer for the top-level module topLevel
func NewWriter(c *meta.Container, topLevel string) *Writer {
	return &Writer{
		container: c,
		module:    topLevel,
		buf:       &bytes.Buffer{},
		imports:   make(map[string]bool),
	}
}

// Write renders every meta of the module in container order, preceded by a
// reference line for each module the declarations refer to.
func (w *Writer) Write() string {
	w.reset()
	for _, mod := range w.container.Modules() {
		if mod.TopLevel() != w.module {
			continue
		}
		for _, m := range mod.Metas() {
			w.writeMeta(m)
		}
	}

	var header bytes.Buffer
	refs := make([]string, 0, len(w.imports))
	for name := range w.imports {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	for _, name := range refs {
		fmt.Fprintf(&header, "/// <reference path=\"%s\" />\n", FileName(name))
	}
	if len(refs) > 0 {
		header.WriteString("\n")
	}
	return header.String() + w.buf.String()
}

func (w *Writer) reset() {
	w.buf.Reset()
	w.indent = 0
	w.imports = make(map[string]bool)
}

func (w *Writer) writeMeta(m meta.Meta) {
	switch m := m.(type) {
	case *meta.InterfaceMeta:
		w.writeInterface(m)
	case *meta.ProtocolMeta:
		w.writeProtocol(m)
	case *meta.CategoryMeta:
		w.writeCategory(m)
	case *meta.FunctionMeta:
		w.writeFunction(m)
	case *meta.StructMeta:
		w.writeRecord(m.Name.Name, m.Fields)
	case *meta.UnionMeta:
		w.writeRecord(m.Name.Name, m.Fields)
	case *meta.VarMeta:
		w.writeLine("declare var %s: %s;", m.Name.Name, w.tsify(m.Signature, ""))
		w.writeLine("")
	case *meta.EnumMeta:
		w.writeEnum(m)
	case *meta.EnumConstantMeta:
		w.writeLine("declare const %s: number;", m.Name.Name)
		w.writeLine("")
	case *meta.JsCodeMeta:
		w.writeLine("declare var %s: any;", m.Name.Name)
		w.writeLine("")
	}
}

func (w *Writer) writeInterface(m *meta.InterfaceMeta) {
	decl := "declare class " + m.Name.Name
	if !m.BaseName.IsEmpty() {
		decl += " extends " + w.localize(m.BaseName)
	}
	if len(m.Protocols) > 0 {
		decl += " implements " + w.localizeAll(m.Protocols)
	}
	w.openBlock(decl)
	w.writeMembers(&m.BaseClassMeta, m.Name.Name, true)
	w.closeBlock()
}

func (w *Writer) writeProtocol(m *meta.ProtocolMeta) {
	decl := "interface " + m.Name.Name
	if len(m.Protocols) > 0 {
		decl += " extends " + w.localizeAll(m.Protocols)
	}
	w.openBlock(decl)
	w.writeMembers(&m.BaseClassMeta, m.Name.Name, false)
	w.closeBlock()
}

// writeCategory writes the category as an augmentation of the interface it
// extends.
func (w *Writer) writeCategory(m *meta.CategoryMeta) {
	w.localize(m.ExtendedInterface)
	decl := "interface " + m.ExtendedInterface.Name
	if len(m.Protocols) > 0 {
		decl += " extends " + w.localizeAll(m.Protocols)
	}
	w.writeLine("// %s", m.Name.Name)
	w.openBlock(decl)
	w.writeMembers(&m.BaseClassMeta, m.ExtendedInterface.Name, false)
	w.closeBlock()
}

// writeMembers writes properties, then static and instance methods. Static
// members are only expressible on classes.
func (w *Writer) writeMembers(c *meta.BaseClassMeta, self string, class bool) {
	for _, p := range c.Properties {
		w.writeProperty(p, self)
	}
	if class {
		for _, m := range c.StaticMethods {
			w.writeLine("static %s", w.methodDecl(m, self))
		}
	}
	for _, m := range c.InstanceMethods {
		w.writeLine("%s", w.methodDecl(m, self))
	}
}

func (w *Writer) writeProperty(p *meta.PropertyMeta, self string) {
	var typ string
	switch {
	case p.HasGetter() && len(p.Getter.Signature) > 0:
		typ = w.tsify(p.Getter.Signature[0], self)
	case p.HasSetter() && len(p.Setter.Signature) > 1:
		typ = w.tsify(p.Setter.Signature[1], self)
	default:
		return
	}
	prefix := ""
	if !p.HasSetter() {
		prefix = "readonly "
	}
	w.writeLine("%s%s: %s;", prefix, propertyName(p), typ)
}

func (w *Writer) methodDecl(m *meta.MethodMeta, self string) string {
	name := m.JsName
	if name == "" {
		name = m.Selector
	}
	if m.Flags.Has(meta.FlagMethodIsOptional) {
		name += "?"
	}
	ret := "void"
	var params []meta.Type
	if len(m.Signature) > 0 {
		ret = w.tsify(m.Signature[0], self)
		params = m.Signature[1:]
	}
	return fmt.Sprintf("%s(%s): %s;", name, w.params(params, m.Flags.Has(meta.FlagMethodIsVariadic), self), ret)
}

func (w *Writer) writeFunction(m *meta.FunctionMeta) {
	ret := "void"
	var params []meta.Type
	if len(m.Signature) > 0 {
		ret = w.tsify(m.Signature[0], "")
		params = m.Signature[1:]
	}
	variadic := m.Flags().Has(meta.FlagFunctionIsVariadic)
	w.writeLine("declare function %s(%s): %s;", m.Name.Name, w.params(params, variadic, ""), ret)
	w.writeLine("")
}

func (w *Writer) writeRecord(name string, fields []meta.RecordField) {
	w.openBlock("interface " + name)
	for _, f := range fields {
		w.writeLine("%s: %s;", f.Name, w.tsify(f.Encoding, ""))
	}
	w.closeBlock()
	w.writeLine("declare var %s: interop.StructType<%s>;", name, name)
	w.writeLine("")
}

func (w *Writer) writeEnum(m *meta.EnumMeta) {
	w.openBlock("declare const enum " + m.Name.Name)
	for i, member := range m.Members {
		sep := ","
		if i == len(m.Members)-1 {
			sep = ""
		}
		w.writeLine("%s = %s%s", member.Name, member.Value, sep)
	}
	w.closeBlock()
}

func (w *Writer) params(types []meta.Type, variadic bool, self string) string {
	parts := make([]string, 0, len(types)+1)
	for i, t := range types {
		parts = append(parts, fmt.Sprintf("p%d: %s", i+1, w.tsify(t, self)))
	}
	if variadic {
		parts = append(parts, "...args: any[]")
	}
	return strings.Join(parts, ", ")
}

// tsify spells t as a TypeScript type. self names the class that
// instancetype stands for; empty outside of classes.
func (w *Writer) tsify(t meta.Type, self string) string {
	switch t.Kind {
	case meta.TypeVoid:
		return "void"
	case meta.TypeBool:
		return "boolean"
	case meta.TypeShort, meta.TypeUShort, meta.TypeInt, meta.TypeUInt,
		meta.TypeLong, meta.TypeULong, meta.TypeLongLong, meta.TypeULongLong,
		meta.TypeChar, meta.TypeUChar, meta.TypeFloat, meta.TypeDouble:
		return "number"
	case meta.TypeUnichar, meta.TypeCString, meta.TypeSelector:
		return "string"
	case meta.TypeInstanceType:
		if self == "" {
			return "any"
		}
		return self
	case meta.TypeClass:
		return "typeof NSObject"
	case meta.TypeID:
		if len(t.Protocols) == 0 {
			return "any"
		}
		return w.intersection(t.Protocols)
	case meta.TypeProtocol:
		return "any /* Protocol */"
	case meta.TypeInterface:
		name := w.localize(t.Name)
		if len(t.Protocols) == 0 {
			return name
		}
		return name + " & " + w.intersection(t.Protocols)
	case meta.TypeStruct, meta.TypeUnion:
		return w.localize(t.Name)
	case meta.TypePointer:
		if t.Inner == nil || t.Inner.Kind == meta.TypeVoid {
			return "interop.Pointer"
		}
		return "interop.Pointer | interop.Reference<" + w.tsify(*t.Inner, self) + ">"
	case meta.TypeConstantArray, meta.TypeIncompleteArray:
		if t.Inner == nil {
			return "interop.Pointer"
		}
		return "interop.Reference<" + w.tsify(*t.Inner, self) + ">"
	case meta.TypeBlock:
		return "(" + w.functionType(t.Signature, self) + ")"
	case meta.TypeFunctionPointer:
		return "interop.FunctionReference<" + w.functionType(t.Signature, self) + ">"
	case meta.TypeAnonymousStruct, meta.TypeAnonymousUnion:
		fields := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, fmt.Sprintf("%s: %s;", f.Name, w.tsify(f.Encoding, self)))
		}
		return "{ " + strings.Join(fields, " ") + " }"
	default:
		return "any"
	}
}

func (w *Writer) functionType(sig []meta.Type, self string) string {
	ret := "void"
	var params []meta.Type
	if len(sig) > 0 {
		ret = w.tsify(sig[0], self)
		params = sig[1:]
	}
	return fmt.Sprintf("(%s) => %s", w.params(params, false, self), ret)
}

func (w *Writer) intersection(protocols []meta.FQName) string {
	names := make([]string, 0, len(protocols))
	for _, p := range protocols {
		names = append(names, w.localize(p))
	}
	return strings.Join(names, " & ")
}

func (w *Writer) localizeAll(names []meta.FQName) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, w.localize(n))
	}
	return strings.Join(out, ", ")
}

// localize spells name from this module and records the import it needs
func (w *Writer) localize(name meta.FQName) string {
	ref, needsImport := w.container.LocalizeReference(name, w.module)
	if needsImport {
		w.imports[meta.TopLevelModule(name.Module)] = true
	}
	return ref
}

func propertyName(p *meta.PropertyMeta) string {
	if p.JsName != "" {
		return p.JsName
	}
	return p.Name
}

func (w *Writer) openBlock(decl string) {
	w.writeLine("%s {", decl)
	w.indent++
}

func (w *Writer) closeBlock() {
	w.indent--
	w.writeLine("}")
	w.writeLine("")
}

// writeLine writes a formatted line with the current indentation
func (w *Writer) writeLine(format string, args ...interface{}) {
	if format == "" {
		w.buf.WriteString("\n")
		return
	}
	for i := 0; i < w.indent; i++ {
		w.buf.WriteString("\t")
	}
	if len(args) > 0 {
		fmt.Fprintf(w.buf, format, args...)
	} else {
		w.buf.WriteString(format)
	}
	w.buf.WriteString("\n")
}
