package factory

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// dropDanglingReferences removes class-like metas whose base class, adopted
// protocols or extended interface are missing from c. Removing one meta can
// leave others dangling, so passes repeat until nothing changes.
func (b *builder) dropDanglingReferences(c *meta.Container) {
	for {
		removed := 0
		for _, mod := range c.Modules() {
			for _, m := range mod.Metas() {
				missing, ok := b.danglingReference(c, m)
				if !ok {
					continue
				}
				c.Remove(m.FQName())
				removed++
				b.recovery.Skip(
					errors.NewMetaError(errors.ErrDanglingReference, m.FQName().String(),
						"Referenced declaration "+missing.String()+" is not part of the metadata.", nil),
					errors.SourceLocation{File: m.File(), Module: mod.Name, Declaration: m.FQName().Name},
				)
			}
		}
		if removed == 0 {
			return
		}
	}
}

func (b *builder) danglingReference(c *meta.Container, m meta.Meta) (meta.FQName, bool) {
	cm, ok := m.(meta.ClassMeta)
	if !ok {
		return meta.FQName{}, false
	}
	for _, p := range cm.Class().Protocols {
		if _, ok := c.LookupProtocol(p); !ok {
			return p, true
		}
	}
	switch m := m.(type) {
	case *meta.InterfaceMeta:
		if !m.BaseName.IsEmpty() {
			if _, ok := c.LookupInterface(m.BaseName); !ok {
				return m.BaseName, true
			}
		}
	case *meta.CategoryMeta:
		if _, ok := c.LookupInterface(m.ExtendedInterface); !ok {
			return m.ExtendedInterface, true
		}
	}
	return meta.FQName{}, false
}
