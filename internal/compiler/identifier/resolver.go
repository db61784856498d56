// Package identifier computes the canonical, collision-free names and owning
// modules of declarations.
package identifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// Resolver names declarations of one declaration unit
type Resolver struct {
	unit       *decl.Unit
	collisions *CollisionTable
}

// NewResolver creates a resolver. A nil table disables collision suffixes.
func NewResolver(unit *decl.Unit, collisions *CollisionTable) *Resolver {
	return &Resolver{unit: unit, collisions: collisions}
}

// Resolve computes the identifier of d
func (r *Resolver) Resolve(d *decl.Decl) (meta.Identifier, error) {
	name, err := r.Name(d)
	if err != nil {
		return meta.Identifier{}, err
	}
	module, err := r.ModuleName(d)
	if err != nil {
		return meta.Identifier{}, err
	}
	return meta.Identifier{Name: name, Module: module, File: d.File}, nil
}

// ResolveOrEmpty is Resolve with empty parts in place of failures
func (r *Resolver) ResolveOrEmpty(d *decl.Decl) meta.Identifier {
	return meta.Identifier{
		Name:   r.NameOrEmpty(d),
		Module: r.ModuleNameOrEmpty(d),
		File:   d.File,
	}
}

// FQName resolves the fully qualified name of d
func (r *Resolver) FQName(d *decl.Decl) (meta.FQName, error) {
	id, err := r.Resolve(d)
	if err != nil {
		return meta.FQName{}, err
	}
	return id.FQName(), nil
}

// FQNameOrEmpty is FQName with empty parts in place of failures
func (r *Resolver) FQNameOrEmpty(d *decl.Decl) meta.FQName {
	return r.ResolveOrEmpty(d).FQName()
}

// Name computes the canonical name of d, collision suffix included
func (r *Resolver) Name(d *decl.Decl) (string, error) {
	original, err := OriginalName(d)
	if err != nil {
		return "", err
	}
	name := CanonicalName(d.Kind, original)
	if r.collisions.Contains(d.Kind, original) {
		name += collisionSuffix(d)
	}
	return name, nil
}

// NameOrEmpty is Name with "" in place of a failure
func (r *Resolver) NameOrEmpty(d *decl.Decl) string {
	name, err := r.Name(d)
	if err != nil {
		return ""
	}
	return name
}

// ModuleName returns the full name of the module owning d's header
func (r *Resolver) ModuleName(d *decl.Decl) (string, error) {
	if d.File == "" {
		return "", errors.NewIdentifierError(errors.ErrMissingFile, r.NameOrEmpty(d), "",
			"The containing file of declaration was not found.")
	}
	module, ok := r.unit.ModuleForFile(d.File)
	if !ok {
		return "", errors.NewIdentifierError(errors.ErrMissingModule, r.NameOrEmpty(d), d.File,
			"Can't find module for this file name.")
	}
	return module, nil
}

// ModuleNameOrEmpty is ModuleName with "" in place of a failure
func (r *Resolver) ModuleNameOrEmpty(d *decl.Decl) string {
	if d.File == "" {
		return ""
	}
	module, _ := r.unit.ModuleForFile(d.File)
	return module
}

// OriginalName returns the source-level name of d: the selector of a method,
// the typedef-supplied name of an anonymous record or enum, the declared name
// otherwise.
func OriginalName(d *decl.Decl) (string, error) {
	switch d.Kind {
	case decl.KindFunction, decl.KindInterface, decl.KindProtocol, decl.KindCategory,
		decl.KindProperty, decl.KindField, decl.KindEnumConstant, decl.KindVar,
		decl.KindJsCode, decl.KindMethod:
		if d.Name == "" {
			return "", errors.NewIdentifierError(errors.ErrAnonymousDecl, "", d.File,
				"Declaration has no name.")
		}
		return d.Name, nil
	case decl.KindRecord:
		if d.IsAnonymous() {
			return "", errors.NewIdentifierError(errors.ErrAnonymousDecl, "[anonymous_record]", d.File,
				"Anonymous record declared outside typedef. There is no suitable name for this declarations.")
		}
		return d.LinkageName(), nil
	case decl.KindEnum:
		if d.IsAnonymous() {
			return "", errors.NewIdentifierError(errors.ErrAnonymousDecl, "[anonymous_enum]", d.File,
				"Anonymous enum declared outside typedef. There is no suitable name for this declarations.")
		}
		return d.LinkageName(), nil
	default:
		return "", errors.NewIdentifierError(errors.ErrUnsupportedDeclKind, d.Name, d.File,
			"Can't generate name for "+string(d.Kind)+" declarations.")
	}
}

// CanonicalName maps an original name to its script-facing form. Selectors
// are camel-cased across their keyword segments: "doWithX:andY:" becomes
// "doWithXAndY". Other kinds keep their original name.
func CanonicalName(kind decl.Kind, original string) string {
	if kind != decl.KindMethod {
		return original
	}
	segments := strings.Split(original, ":")
	var b strings.Builder
	b.Grow(len(original))
	b.WriteString(segments[0])
	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(seg)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteString(seg[size:])
	}
	return b.String()
}

func collisionSuffix(d *decl.Decl) string {
	switch d.Kind {
	case decl.KindRecord:
		if d.Union {
			return "Union"
		}
		return "Struct"
	case decl.KindFunction:
		return "Function"
	case decl.KindEnum:
		return "Enum"
	case decl.KindInterface:
		return "Interface"
	case decl.KindProtocol:
		return "Protocol"
	case decl.KindCategory:
		return "Category"
	case decl.KindMethod:
		return "Method"
	case decl.KindProperty:
		return "Property"
	case decl.KindVar:
		return "Var"
	case decl.KindField, decl.KindEnumConstant:
		return "Field"
	default:
		return ""
	}
}
