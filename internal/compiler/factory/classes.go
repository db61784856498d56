package factory

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/logger"
)

func (b *builder) createInterface(d *decl.Decl) (meta.Meta, error) {
	class, err := b.createClass(d)
	if err != nil {
		return nil, err
	}
	iface := &meta.InterfaceMeta{BaseClassMeta: class}
	if d.Base != "" {
		if iface.BaseName, err = b.reference(d.Base); err != nil {
			return nil, metaError(class.Name.String(), "The base class cannot be modeled.", err)
		}
	}
	return iface, nil
}

func (b *builder) createProtocol(d *decl.Decl) (meta.Meta, error) {
	class, err := b.createClass(d)
	if err != nil {
		return nil, err
	}
	return &meta.ProtocolMeta{BaseClassMeta: class}, nil
}

func (b *builder) createCategory(d *decl.Decl) (meta.Meta, error) {
	class, err := b.createClass(d)
	if err != nil {
		return nil, err
	}
	ext, err := b.reference(d.Interface)
	if err != nil {
		return nil, metaError(class.Name.String(), "The extended interface cannot be modeled.", err)
	}
	return &meta.CategoryMeta{BaseClassMeta: class, ExtendedInterface: ext}, nil
}

// createClass builds the members shared by interfaces, protocols and
// categories. Adopted protocols and members that cannot be modeled are
// dropped from the owner only.
func (b *builder) createClass(d *decl.Decl) (meta.BaseClassMeta, error) {
	base, err := b.base(d)
	if err != nil {
		return meta.BaseClassMeta{}, err
	}
	class := meta.BaseClassMeta{Base: base}
	owner := base.Name.String()

	for _, id := range d.Protocols {
		fq, err := b.reference(id)
		if err != nil {
			logger.Debugw("adopted protocol dropped", "owner", owner, "protocol", id, "error", err)
			continue
		}
		class.Protocols = append(class.Protocols, fq)
	}

	for _, md := range d.Methods {
		m, err := b.createMethod(md)
		if err != nil {
			b.dropMember(d, md, err)
			continue
		}
		if md.Static {
			class.StaticMethods = append(class.StaticMethods, m)
		} else {
			class.InstanceMethods = append(class.InstanceMethods, m)
		}
	}

	for _, pd := range d.Properties {
		p, err := b.createProperty(pd)
		if err != nil {
			b.dropMember(d, pd, err)
			continue
		}
		class.Properties = append(class.Properties, p)
	}
	return class, nil
}

func (b *builder) createMethod(d *decl.Decl) (*meta.MethodMeta, error) {
	jsName, err := b.resolver.Name(d)
	if err != nil {
		return nil, err
	}
	sig, err := b.types.Signature(d.ReturnType, paramTypes(d.Params))
	if err != nil {
		return nil, err
	}
	m := &meta.MethodMeta{Selector: d.Name, JsName: jsName, Signature: sig}
	if d.Variadic {
		m.Flags |= meta.FlagMethodIsVariadic
	}
	if d.Optional {
		m.Flags |= meta.FlagMethodIsOptional
	}
	if !d.Static && isInitializer(d.Name) {
		m.Flags |= meta.FlagMethodIsInitializer
	}
	return m, nil
}

func (b *builder) createProperty(d *decl.Decl) (*meta.PropertyMeta, error) {
	jsName, err := b.resolver.Name(d)
	if err != nil {
		return nil, err
	}
	p := &meta.PropertyMeta{Name: d.Name, JsName: jsName}
	if d.Getter != nil {
		if p.Getter, err = b.createMethod(d.Getter); err != nil {
			return nil, err
		}
		p.Flags |= meta.FlagPropertyHasGetter
	}
	if d.Setter != nil {
		if p.Setter, err = b.createMethod(d.Setter); err != nil {
			return nil, err
		}
		p.Flags |= meta.FlagPropertyHasSetter
	}
	if p.Flags == 0 {
		return nil, errors.NewMetaError(errors.ErrMemberDropped, d.Name, "Property has no accessors.", nil)
	}
	return p, nil
}

func (b *builder) dropMember(owner, member *decl.Decl, err error) {
	located := *member
	if located.File == "" {
		located.File = owner.File
	}
	b.skip(&located, errors.NewMetaError(errors.ErrMemberDropped,
		b.resolver.NameOrEmpty(owner)+"."+member.Name, "Member cannot be modeled.", err))
}

// isInitializer reports whether selector belongs to the init method family:
// "init" optionally followed by a keyword starting with an uppercase letter
// or a colon, after any leading underscores.
func isInitializer(selector string) bool {
	s := strings.TrimLeft(selector, "_")
	if !strings.HasPrefix(s, "init") {
		return false
	}
	rest := s[len("init"):]
	if rest == "" || rest[0] == ':' {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLower(r)
}
