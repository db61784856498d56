package filters

import (
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// RemoveDuplicateMembers removes from every interface and protocol the
// methods and properties already declared by one of its ancestors: the
// protocols it conforms to, transitively, and for interfaces the superclass
// chain with its own protocols. It returns the number of members removed.
func RemoveDuplicateMembers(c *meta.Container) int {
	removed := 0
	for _, mod := range c.Modules() {
		for _, m := range mod.Metas() {
			if m.Kind() != meta.KindInterface && m.Kind() != meta.KindProtocol {
				continue
			}
			root := m.(meta.ClassMeta)
			visited := map[meta.FQName]bool{root.FQName(): true}
			removed += dedupeAgainstAncestors(c, root.Class(), root, visited)
		}
	}
	return removed
}

// dedupeAgainstAncestors walks the ancestors of parent. Each ancestor is
// visited once per root so conformance cycles terminate.
func dedupeAgainstAncestors(c *meta.Container, child *meta.BaseClassMeta, parent meta.ClassMeta, visited map[meta.FQName]bool) int {
	removed := 0
	for _, name := range parent.Class().Protocols {
		if visited[name] {
			continue
		}
		proto, ok := c.LookupProtocol(name)
		if !ok {
			continue
		}
		visited[name] = true
		removed += removeMembers(child, &proto.BaseClassMeta)
		removed += dedupeAgainstAncestors(c, child, proto, visited)
	}

	iface, ok := parent.(*meta.InterfaceMeta)
	if !ok || iface.BaseName.IsEmpty() || visited[iface.BaseName] {
		return removed
	}
	base, ok := c.LookupInterface(iface.BaseName)
	if !ok {
		return removed
	}
	visited[iface.BaseName] = true
	removed += removeMembers(child, &base.BaseClassMeta)
	removed += dedupeAgainstAncestors(c, child, base, visited)
	return removed
}

func removeMembers(child, ancestor *meta.BaseClassMeta) int {
	var n, removed int
	child.StaticMethods, n = removeMethods(child.StaticMethods, ancestor.StaticMethods)
	removed += n
	child.InstanceMethods, n = removeMethods(child.InstanceMethods, ancestor.InstanceMethods)
	removed += n
	child.Properties, n = removeProperties(child.Properties, ancestor.Properties)
	return removed + n
}

func removeMethods(from, duplicates []*meta.MethodMeta) ([]*meta.MethodMeta, int) {
	if len(from) == 0 || len(duplicates) == 0 {
		return from, 0
	}
	kept := from[:0]
	for _, m := range from {
		if !containsMethod(duplicates, m) {
			kept = append(kept, m)
		}
	}
	return kept, len(from) - len(kept)
}

func containsMethod(list []*meta.MethodMeta, m *meta.MethodMeta) bool {
	for _, d := range list {
		if meta.MethodsEqual(d, m) {
			return true
		}
	}
	return false
}

func removeProperties(from, duplicates []*meta.PropertyMeta) ([]*meta.PropertyMeta, int) {
	if len(from) == 0 || len(duplicates) == 0 {
		return from, 0
	}
	kept := from[:0]
	for _, p := range from {
		duplicated := false
		for _, d := range duplicates {
			if meta.PropertiesEqual(d, p) {
				duplicated = true
				break
			}
		}
		if !duplicated {
			kept = append(kept, p)
		}
	}
	return kept, len(from) - len(kept)
}
