package meta

import (
	"strings"

	"github.com/conduit-lang/metagen/compiler/errors"
)

// Module holds the metas of one module keyed by name, in insertion order
type Module struct {
	Name  string
	order []string
	metas map[string]Meta
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{Name: name, metas: make(map[string]Meta)}
}

// TopLevel returns the first component of the module name ("UIKit" for
// "UIKit.UIView").
func (m *Module) TopLevel() string { return TopLevelModule(m.Name) }

// Add inserts meta; names are unique per module
func (m *Module) Add(meta Meta) error {
	name := meta.FQName().Name
	if _, exists := m.metas[name]; exists {
		return errors.Newf("%s is already declared in module %s", name, m.Name)
	}
	m.metas[name] = meta
	m.order = append(m.order, name)
	return nil
}

// Get returns the meta with the given name
func (m *Module) Get(name string) (Meta, bool) {
	meta, ok := m.metas[name]
	return meta, ok
}

// Remove deletes the meta with the given name; removing an absent name is a
// no-op.
func (m *Module) Remove(name string) bool {
	if _, ok := m.metas[name]; !ok {
		return false
	}
	delete(m.metas, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Metas returns the metas in insertion order
func (m *Module) Metas() []Meta {
	out := make([]Meta, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.metas[name])
	}
	return out
}

// Len returns the number of metas
func (m *Module) Len() int { return len(m.order) }

// Container indexes every module of a generation run. Entities reference
// each other only by FQName; lookups return borrowed pointers.
type Container struct {
	order   []string
	modules map[string]*Module
}

// NewContainer creates an empty container
func NewContainer() *Container {
	return &Container{modules: make(map[string]*Module)}
}

// Module returns the module with the given full name, creating it if needed
func (c *Container) Module(name string) *Module {
	if m, ok := c.modules[name]; ok {
		return m
	}
	m := NewModule(name)
	c.modules[name] = m
	c.order = append(c.order, name)
	return m
}

// FindModule returns an existing module
func (c *Container) FindModule(name string) (*Module, bool) {
	m, ok := c.modules[name]
	return m, ok
}

// Modules returns the modules in insertion order
func (c *Container) Modules() []*Module {
	out := make([]*Module, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.modules[name])
	}
	return out
}

// Add inserts meta into the module named by its FQName
func (c *Container) Add(meta Meta) error {
	return c.Module(meta.FQName().Module).Add(meta)
}

// Lookup finds a meta by FQName
func (c *Container) Lookup(name FQName) (Meta, bool) {
	m, ok := c.modules[name.Module]
	if !ok {
		return nil, false
	}
	return m.Get(name.Name)
}

// Remove deletes the meta named by name
func (c *Container) Remove(name FQName) bool {
	m, ok := c.modules[name.Module]
	if !ok {
		return false
	}
	return m.Remove(name.Name)
}

// LookupInterface finds an interface by FQName
func (c *Container) LookupInterface(name FQName) (*InterfaceMeta, bool) {
	m, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	iface, ok := m.(*InterfaceMeta)
	return iface, ok
}

// LookupProtocol finds a protocol by FQName
func (c *Container) LookupProtocol(name FQName) (*ProtocolMeta, bool) {
	m, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	proto, ok := m.(*ProtocolMeta)
	return proto, ok
}

// FindByName returns the first meta of the given kind and name whose module
// lies under topLevel ("Foundation" matches "Foundation" and
// "Foundation.NSNull").
func (c *Container) FindByName(kind Kind, topLevel, name string) (Meta, bool) {
	for _, modName := range c.order {
		if TopLevelModule(modName) != topLevel {
			continue
		}
		if m, ok := c.modules[modName].Get(name); ok && m.Kind() == kind {
			return m, true
		}
	}
	return nil, false
}

// ByKind returns every meta of the given kind, in container order
func (c *Container) ByKind(kind Kind) []Meta {
	var out []Meta
	for _, mod := range c.Modules() {
		for _, m := range mod.Metas() {
			if m.Kind() == kind {
				out = append(out, m)
			}
		}
	}
	return out
}

// Len returns the number of metas across all modules
func (c *Container) Len() int {
	n := 0
	for _, m := range c.modules {
		n += m.Len()
	}
	return n
}

// RemoveCategory removes the category named category when it extends the
// interface named iface. It reports whether anything was removed.
func (c *Container) RemoveCategory(category, iface FQName) bool {
	m, ok := c.Lookup(category)
	if !ok {
		return false
	}
	cat, ok := m.(*CategoryMeta)
	if !ok || cat.ExtendedInterface != iface {
		return false
	}
	return c.Remove(category)
}

// LocalizeReference spells name as seen from code in module from: the bare
// name inside the same top-level module, otherwise qualified by the
// referenced top-level module. The second result reports whether an import
// of that module is needed.
func (c *Container) LocalizeReference(name FQName, from string) (string, bool) {
	target := TopLevelModule(name.Module)
	if target == "" || target == TopLevelModule(from) {
		return name.Name, false
	}
	return target + "." + name.Name, true
}

// TopLevelModule returns the first dot-separated component of a module name
func TopLevelModule(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
