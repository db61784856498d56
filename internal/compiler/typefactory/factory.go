// Package typefactory maps raw parser types into the type algebra
package typefactory

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/identifier"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// BridgeModule is the module given to toll-free bridged interface types
const BridgeModule = "Foundation"

var (
	boolTypedefs    = []string{"BOOL", "Boolean"}
	unicharTypedefs = []string{"unichar"}
	vaListTypedefs  = []string{"__builtin_va_list"}
)

// Validator reports whether a referenced declaration can be modeled. It lets
// the caller reject types that point at declarations it will drop.
type Validator func(d *decl.Decl) error

// Factory builds meta.Type values from decl.RawType trees
type Factory struct {
	unit     *decl.Unit
	resolver *identifier.Resolver
	validate Validator

	// anonymous records and enums currently being expanded, by decl id
	building map[string]struct{}
}

// Option configures a Factory
type Option func(*Factory)

// WithValidator installs a referenced-declaration validator
func WithValidator(v Validator) Option {
	return func(f *Factory) { f.validate = v }
}

// New creates a factory over the declarations of unit
func New(unit *decl.Unit, resolver *identifier.Resolver, opts ...Option) *Factory {
	f := &Factory{unit: unit, resolver: resolver, building: make(map[string]struct{})}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create maps raw into the type algebra. Unsupported constructs fail with a
// *errors.TypeError.
func (f *Factory) Create(raw *decl.RawType) (meta.Type, error) {
	if raw == nil {
		return meta.Type{}, errors.NewTypeError(errors.ErrMissingType, "<nil>", "Unable to get the inner type of qualified type.", true)
	}

	switch raw.Class {
	case decl.ClassConstantArray:
		elem, err := f.Create(raw.Element)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.ConstantArray(elem, raw.Size), nil
	case decl.ClassIncompleteArray:
		elem, err := f.Create(raw.Element)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.IncompleteArray(elem), nil
	case decl.ClassPointer:
		return f.createPointer(raw)
	case decl.ClassBlockPointer:
		return f.createBlockPointer(raw)
	case decl.ClassBuiltin:
		return createBuiltin(raw.Builtin)
	case decl.ClassObjCObject:
		return f.createObjectPointer(raw)
	case decl.ClassRecord:
		return f.createRecord(raw)
	case decl.ClassEnum:
		return f.createEnum(raw)
	case decl.ClassVector:
		return meta.Type{}, errors.NewTypeError(errors.ErrUnsupportedType, string(raw.Class), "Vector type is not supported.", true)
	case decl.ClassTypedef:
		return f.createTypedef(raw)
	case decl.ClassElaborated, decl.ClassAdjusted, decl.ClassParen:
		return f.Create(raw.Inner)
	case decl.ClassFunctionProto:
		return f.createFunction(raw, raw.Params)
	case decl.ClassFunctionNoProto:
		return f.createFunction(raw, nil)
	default:
		return meta.Type{}, errors.NewTypeError(errors.ErrUnsupportedType, string(raw.Class), "Unable to create encoding for this type.", true)
	}
}

// Signature builds [ret, params...]
func (f *Factory) Signature(ret *decl.RawType, params []*decl.RawType) ([]meta.Type, error) {
	signature := make([]meta.Type, 0, len(params)+1)
	r, err := f.Create(ret)
	if err != nil {
		return nil, err
	}
	signature = append(signature, r)
	for _, p := range params {
		t, err := f.Create(p)
		if err != nil {
			return nil, err
		}
		signature = append(signature, t)
	}
	return signature, nil
}

func (f *Factory) createFunction(raw *decl.RawType, params []*decl.RawType) (meta.Type, error) {
	signature, err := f.Signature(raw.Return, params)
	if err != nil {
		return meta.Type{}, err
	}
	return meta.FunctionPointer(signature), nil
}

func (f *Factory) createBlockPointer(raw *decl.RawType) (meta.Type, error) {
	pointee, err := f.Create(raw.Pointee)
	if err != nil {
		return meta.Type{}, err
	}
	if pointee.Kind == meta.TypeFunctionPointer {
		return meta.Block(pointee.Signature), nil
	}
	return meta.Type{}, errors.NewTypeError(errors.ErrInvalidBlock, string(raw.Class), "Unable to parse a block type.", true)
}

func (f *Factory) createPointer(raw *decl.RawType) (meta.Type, error) {
	pointee := raw.Pointee
	if pointee == nil {
		return meta.Type{}, errors.NewTypeError(errors.ErrMissingType, string(raw.Class), "Pointer has no pointee type.", true)
	}

	if canonical := desugar(pointee); canonical != nil && canonical.Class == decl.ClassBuiltin {
		switch canonical.Builtin {
		case decl.BuiltinObjCSel:
			return meta.Selector(), nil
		case decl.BuiltinCharS, decl.BuiltinCharU, decl.BuiltinSChar, decl.BuiltinUChar:
			return meta.CString(), nil
		}
	}

	if bridged, ok := f.bridgedInterface(pointee); ok {
		return bridged, nil
	}

	// a pointer to a parenthesized function type is the function pointer itself
	if pointee.Class == decl.ClassParen {
		return f.Create(pointee)
	}

	inner, err := f.Create(pointee)
	if err != nil {
		return meta.Type{}, err
	}
	return meta.Pointer(inner), nil
}

// bridgedInterface resolves a pointer to a toll-free bridged record into the
// bridged interface type.
func (f *Factory) bridgedInterface(pointee *decl.RawType) (meta.Type, bool) {
	tag := pointee
	if tag.Class == decl.ClassElaborated && tag.Inner != nil {
		tag = tag.Inner
	}
	if tag.Class != decl.ClassRecord {
		return meta.Type{}, false
	}
	d, ok := f.unit.Lookup(tag.Decl)
	if !ok || d.BridgedTo == "" {
		return meta.Type{}, false
	}
	return meta.Interface(meta.FQName{Name: d.BridgedTo, Module: BridgeModule}, nil), true
}

func (f *Factory) createObjectPointer(raw *decl.RawType) (meta.Type, error) {
	protocols := make([]meta.FQName, 0, len(raw.Protocols))
	for _, id := range raw.Protocols {
		d, ok := f.unit.Lookup(id)
		if !ok {
			continue
		}
		fq, err := f.reference(d)
		if err != nil {
			// unusable protocol qualifiers are dropped, not fatal
			continue
		}
		protocols = append(protocols, fq)
	}

	switch raw.Object {
	case decl.ObjectID:
		return meta.ID(protocols), nil
	case decl.ObjectClass:
		return meta.ClassType(protocols), nil
	case decl.ObjectInterface:
		d, ok := f.unit.Lookup(raw.Decl)
		if !ok {
			break
		}
		if d.Name == "Protocol" {
			return meta.ProtocolType(), nil
		}
		fq, err := f.reference(d)
		if err != nil {
			return meta.Type{}, errors.WrapTypeError(string(raw.Class), err)
		}
		return meta.Interface(fq, protocols), nil
	}
	return meta.Type{}, errors.NewTypeError(errors.ErrInvalidObjectPointer, string(raw.Class), "Invalid interface pointer type.", true)
}

func (f *Factory) createRecord(raw *decl.RawType) (meta.Type, error) {
	d, err := f.lookup(raw)
	if err != nil {
		return meta.Type{}, err
	}
	if d.Opaque {
		return meta.Void(), nil
	}

	if d.IsAnonymous() {
		done, err := f.enter(raw, d)
		if err != nil {
			return meta.Type{}, err
		}
		defer done()
		fields, err := f.Fields(d)
		if err != nil {
			return meta.Type{}, err
		}
		if d.Union {
			return meta.AnonymousUnion(fields), nil
		}
		return meta.AnonymousStruct(fields), nil
	}
	if d.Union {
		return meta.Type{}, errors.NewTypeError(errors.ErrUnionReference, string(raw.Class), "The record is an union.", true)
	}

	fq, err := f.reference(d)
	if err != nil {
		return meta.Type{}, errors.WrapTypeError(string(raw.Class), err)
	}
	return meta.Struct(fq), nil
}

// Fields builds the record fields of a record declaration
func (f *Factory) Fields(d *decl.Decl) ([]meta.RecordField, error) {
	fields := make([]meta.RecordField, 0, len(d.Fields))
	for _, field := range d.Fields {
		name, err := f.resolver.Name(field)
		if err != nil {
			return nil, errors.WrapTypeError(string(decl.ClassRecord), err)
		}
		encoding, err := f.Create(field.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, meta.RecordField{Name: name, Encoding: encoding})
	}
	return fields, nil
}

func (f *Factory) createEnum(raw *decl.RawType) (meta.Type, error) {
	d, err := f.lookup(raw)
	if err != nil {
		return meta.Type{}, err
	}
	if d.Type == nil {
		return meta.Int(), nil
	}
	done, err := f.enter(raw, d)
	if err != nil {
		return meta.Type{}, err
	}
	defer done()
	return f.Create(d.Type)
}

// enter marks d as being expanded inline. Anonymous records and enum
// underlying types have no name to stop at, so reaching d again while it is
// still open means the type contains itself.
func (f *Factory) enter(raw *decl.RawType, d *decl.Decl) (func(), error) {
	if _, open := f.building[d.ID]; open {
		return nil, errors.NewTypeError(errors.ErrRecursiveType, string(raw.Class),
			"Declaration "+d.ID+" contains itself.", true)
	}
	f.building[d.ID] = struct{}{}
	return func() { delete(f.building, d.ID) }, nil
}

func (f *Factory) createTypedef(raw *decl.RawType) (meta.Type, error) {
	switch {
	case typedefChainNamed(raw, boolTypedefs):
		return meta.Bool(), nil
	case typedefChainNamed(raw, unicharTypedefs):
		return meta.Unichar(), nil
	case typedefChainNamed(raw, vaListTypedefs):
		return meta.Type{}, errors.NewTypeError(errors.ErrUnsupportedType, string(raw.Class), "VaList type is not supported.", true)
	}
	// one level at a time so intermediate aliases are inspected too
	return f.Create(raw.Inner)
}

// typedefChainNamed reports whether any typedef in the chain starting at raw
// carries one of names.
func typedefChainNamed(raw *decl.RawType, names []string) bool {
	for t := raw; t != nil && t.Class == decl.ClassTypedef; t = t.Inner {
		for _, n := range names {
			if t.Name == n {
				return true
			}
		}
	}
	return false
}

// desugar strips typedef and sugar wrappers down to the canonical type
func desugar(raw *decl.RawType) *decl.RawType {
	t := raw
	for t != nil {
		switch t.Class {
		case decl.ClassTypedef, decl.ClassElaborated, decl.ClassAdjusted, decl.ClassParen:
			t = t.Inner
		default:
			return t
		}
	}
	return nil
}

func (f *Factory) lookup(raw *decl.RawType) (*decl.Decl, error) {
	d, ok := f.unit.Lookup(raw.Decl)
	if !ok {
		return nil, errors.NewTypeError(errors.ErrUnresolvedDeclaration, string(raw.Class),
			"Referenced declaration "+raw.Decl+" is not part of the unit.", true)
	}
	return d, nil
}

// reference validates d and returns its fully qualified name
func (f *Factory) reference(d *decl.Decl) (meta.FQName, error) {
	if f.validate != nil {
		if err := f.validate(d); err != nil {
			return meta.FQName{}, err
		}
	}
	return f.resolver.FQName(d)
}
