// Package factory ingests a declaration unit into a meta container. Every
// declaration is built in isolation: one that cannot be modeled is dropped
// with a diagnostic and never aborts the others.
package factory

import (
	"strings"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/identifier"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/compiler/typefactory"
	"github.com/conduit-lang/metagen/internal/logger"
)

type buildState int

const (
	stateBuilding buildState = iota + 1
	stateDone
)

// result is the memoized outcome of building one declaration
type result struct {
	state buildState
	metas []meta.Meta
	err   error
}

// Factory builds metas from declarations
type Factory struct {
	collisions *identifier.CollisionTable
}

// New creates a factory using the given collision table. A nil table
// disables collision suffixes.
func New(collisions *identifier.CollisionTable) *Factory {
	return &Factory{collisions: collisions}
}

// Build ingests every top-level declaration of unit. It returns the
// container and the diagnostics of the declarations and members that were
// dropped.
func (f *Factory) Build(unit *decl.Unit) (*meta.Container, []errors.CompilerError) {
	b := &builder{
		unit:     unit,
		resolver: identifier.NewResolver(unit, f.collisions),
		recovery: errors.NewErrorRecovery(),
		results:  make(map[*decl.Decl]*result),
	}
	b.types = typefactory.New(unit, b.resolver, typefactory.WithValidator(b.validate))

	c := meta.NewContainer()
	for _, d := range unit.Decls {
		metas, err := b.build(d)
		if err != nil {
			b.skip(d, err)
			continue
		}
		for _, m := range metas {
			if err := c.Add(m); err != nil {
				b.skip(d, errors.NewMetaError(errors.ErrDuplicateName, m.FQName().String(),
					"A declaration with the same name already exists.", err))
			}
		}
	}
	b.dropDanglingReferences(c)

	logger.Debugw("declarations ingested",
		"declarations", len(unit.Decls),
		"metas", c.Len(),
		"skipped", b.recovery.TotalCount(),
	)
	return c, b.recovery.GetAll()
}

type builder struct {
	unit     *decl.Unit
	resolver *identifier.Resolver
	types    *typefactory.Factory
	recovery *errors.ErrorRecovery
	results  map[*decl.Decl]*result
}

// validate reports whether d can be modeled. A declaration whose build is
// still in progress is accepted, which lets self-referential records
// terminate.
func (b *builder) validate(d *decl.Decl) error {
	if r, ok := b.results[d]; ok && r.state == stateBuilding {
		return nil
	}
	_, err := b.build(d)
	return err
}

// build creates the metas of d once and memoizes the outcome
func (b *builder) build(d *decl.Decl) ([]meta.Meta, error) {
	if r, ok := b.results[d]; ok {
		return r.metas, r.err
	}
	r := &result{state: stateBuilding}
	b.results[d] = r
	r.metas, r.err = b.create(d)
	r.state = stateDone
	return r.metas, r.err
}

func (b *builder) create(d *decl.Decl) ([]meta.Meta, error) {
	switch d.Kind {
	case decl.KindFunction:
		return b.one(b.createFunction(d))
	case decl.KindRecord:
		return b.one(b.createRecord(d))
	case decl.KindEnum:
		return b.createEnum(d)
	case decl.KindEnumConstant:
		return b.one(b.createEnumConstant(d, d))
	case decl.KindVar:
		return b.one(b.createVar(d))
	case decl.KindInterface:
		return b.one(b.createInterface(d))
	case decl.KindProtocol:
		return b.one(b.createProtocol(d))
	case decl.KindCategory:
		return b.one(b.createCategory(d))
	case decl.KindJsCode:
		return b.one(b.createJsCode(d))
	default:
		// typedefs and members are not top-level metas
		return nil, nil
	}
}

func (b *builder) one(m meta.Meta, err error) ([]meta.Meta, error) {
	if err != nil {
		return nil, err
	}
	return []meta.Meta{m}, nil
}

// base resolves the identity shared by every meta
func (b *builder) base(d *decl.Decl) (meta.Base, error) {
	id, err := b.resolver.Resolve(d)
	if err != nil {
		return meta.Base{}, err
	}
	return meta.Base{Name: id.FQName(), SourceFile: id.File}, nil
}

func (b *builder) createFunction(d *decl.Decl) (meta.Meta, error) {
	base, err := b.base(d)
	if err != nil {
		return nil, err
	}
	sig, err := b.types.Signature(d.ReturnType, paramTypes(d.Params))
	if err != nil {
		return nil, metaError(base.Name.String(), "Unable to build the function signature.", err)
	}
	base.SetFlag(meta.FlagFunctionIsVariadic, d.Variadic)
	base.SetFlag(meta.FlagFunctionOwnsReturnedCocoaObject, ownsReturnedObject(d.Name))
	return &meta.FunctionMeta{Base: base, Signature: sig}, nil
}

func (b *builder) createRecord(d *decl.Decl) (meta.Meta, error) {
	base, err := b.base(d)
	if err != nil {
		return nil, err
	}
	if d.Opaque {
		return nil, errors.NewMetaError(errors.ErrMetaCreation, base.Name.String(), "A forward declaration of record.", nil)
	}
	fields, err := b.types.Fields(d)
	if err != nil {
		return nil, metaError(base.Name.String(), "Unable to build the record fields.", err)
	}
	if d.Union {
		return &meta.UnionMeta{Base: base, Fields: fields}, nil
	}
	return &meta.StructMeta{Base: base, Fields: fields}, nil
}

// createEnum builds a named enum, or promotes the constants of an anonymous
// one to top-level constants.
func (b *builder) createEnum(d *decl.Decl) ([]meta.Meta, error) {
	if d.Type != nil {
		if _, err := b.types.Create(d.Type); err != nil {
			return nil, metaError(d.LinkageName(), "Unsupported enum underlying type.", err)
		}
	}

	if d.IsAnonymous() {
		var out []meta.Meta
		for _, c := range d.Constants {
			m, err := b.createEnumConstant(c, d)
			if err != nil {
				b.skip(c, err)
				continue
			}
			out = append(out, m)
		}
		return out, nil
	}

	base, err := b.base(d)
	if err != nil {
		return nil, err
	}
	members := make([]meta.EnumMember, 0, len(d.Constants))
	for _, c := range d.Constants {
		name, err := b.resolver.Name(c)
		if err != nil {
			return nil, metaError(base.Name.String(), "Unable to name an enum member.", err)
		}
		members = append(members, meta.EnumMember{Name: name, Value: c.Value})
	}
	return []meta.Meta{&meta.EnumMeta{Base: base, Members: members}}, nil
}

// createEnumConstant builds a top-level constant. Constants nested in an
// enum take their file from it.
func (b *builder) createEnumConstant(c, owner *decl.Decl) (meta.Meta, error) {
	located := *c
	if located.File == "" {
		located.File = owner.File
	}
	base, err := b.base(&located)
	if err != nil {
		return nil, err
	}
	return &meta.EnumConstantMeta{Base: base, Value: c.Value}, nil
}

func (b *builder) createVar(d *decl.Decl) (meta.Meta, error) {
	base, err := b.base(d)
	if err != nil {
		return nil, err
	}
	t, err := b.types.Create(d.Type)
	if err != nil {
		return nil, metaError(base.Name.String(), "Unable to build the variable type.", err)
	}
	return &meta.VarMeta{Base: base, Signature: t}, nil
}

func (b *builder) createJsCode(d *decl.Decl) (meta.Meta, error) {
	base, err := b.base(d)
	if err != nil {
		return nil, err
	}
	return &meta.JsCodeMeta{Base: base, Code: d.Value}, nil
}

// reference validates the declaration with the given id and returns its name
func (b *builder) reference(id string) (meta.FQName, error) {
	d, ok := b.unit.Lookup(id)
	if !ok {
		return meta.FQName{}, errors.NewMetaError(errors.ErrDanglingReference, id,
			"Referenced declaration is not part of the unit.", nil)
	}
	if err := b.validate(d); err != nil {
		return meta.FQName{}, err
	}
	return b.resolver.FQName(d)
}

func (b *builder) skip(d *decl.Decl, err error) {
	loc := errors.SourceLocation{
		File:        d.File,
		Module:      b.resolver.ModuleNameOrEmpty(d),
		Declaration: b.resolver.NameOrEmpty(d),
	}
	if loc.Declaration == "" {
		loc.Declaration = d.Name
	}
	logger.Debugw("declaration skipped", "declaration", loc.Declaration, "module", loc.Module, "error", err)
	b.recovery.Skip(err, loc)
}

// metaError chains cause under a MetaError carrying the cause's code
func metaError(name, reason string, cause error) error {
	return errors.NewMetaError(errors.CodeOf(cause), name, reason, cause)
}

func paramTypes(params []decl.Param) []*decl.RawType {
	out := make([]*decl.RawType, 0, len(params))
	for _, p := range params {
		out = append(out, p.Type)
	}
	return out
}

// ownsReturnedObject applies the Core Foundation create rule: functions
// with Create or Copy in their name return an owned reference.
func ownsReturnedObject(name string) bool {
	return strings.Contains(name, "Create") || strings.Contains(name, "Copy")
}
