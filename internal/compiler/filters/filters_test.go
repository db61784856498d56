package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

func fq(name, module string) meta.FQName { return meta.FQName{Name: name, Module: module} }

func method(selector string, signature ...meta.Type) *meta.MethodMeta {
	return &meta.MethodMeta{Selector: selector, JsName: selector, Signature: signature}
}

func protocol(name meta.FQName, protocols []meta.FQName, methods ...*meta.MethodMeta) *meta.ProtocolMeta {
	return &meta.ProtocolMeta{BaseClassMeta: meta.BaseClassMeta{
		Base:            meta.Base{Name: name},
		InstanceMethods: methods,
		Protocols:       protocols,
	}}
}

func iface(name, base meta.FQName, protocols []meta.FQName, methods ...*meta.MethodMeta) *meta.InterfaceMeta {
	return &meta.InterfaceMeta{
		BaseClassMeta: meta.BaseClassMeta{
			Base:            meta.Base{Name: name},
			InstanceMethods: methods,
			Protocols:       protocols,
		},
		BaseName: base,
	}
}

func selectors(methods []*meta.MethodMeta) []string {
	out := []string{}
	for _, m := range methods {
		out = append(out, m.Selector)
	}
	return out
}

func TestRemoveDuplicateMembers_Diamond(t *testing.T) {
	p1 := fq("P1", "Test")
	p2 := fq("P2", "Test")
	c := meta.NewContainer()
	require.NoError(t, c.Add(protocol(p1, nil, method("foo", meta.Void()))))
	require.NoError(t, c.Add(protocol(p2, nil, method("foo", meta.Void()))))
	cls := iface(fq("C", "Test"), meta.FQName{}, []meta.FQName{p1, p2},
		method("foo", meta.Void()),
		method("bar", meta.Void()),
	)
	require.NoError(t, c.Add(cls))

	removed := RemoveDuplicateMembers(c)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"bar"}, selectors(cls.InstanceMethods))

	p, _ := c.LookupProtocol(p1)
	assert.Equal(t, []string{"foo"}, selectors(p.InstanceMethods), "ancestors keep their members")
}

func TestRemoveDuplicateMembers_SignatureMustMatch(t *testing.T) {
	p := fq("P", "Test")
	c := meta.NewContainer()
	require.NoError(t, c.Add(protocol(p, nil, method("valueAt:", meta.Int(), meta.Int()))))
	cls := iface(fq("C", "Test"), meta.FQName{}, []meta.FQName{p},
		method("valueAt:", meta.Int(), meta.Long()),
	)
	require.NoError(t, c.Add(cls))

	assert.Equal(t, 0, RemoveDuplicateMembers(c))
	assert.Len(t, cls.InstanceMethods, 1)
}

func TestRemoveDuplicateMembers_BaseClassChain(t *testing.T) {
	copying := fq("NSCopying", "Foundation")
	root := fq("NSObject", "ObjectiveC")
	mid := fq("UIResponder", "UIKit")
	leaf := fq("UIView", "UIKit")

	c := meta.NewContainer()
	require.NoError(t, c.Add(protocol(copying, nil, method("copy", meta.ID(nil)))))
	require.NoError(t, c.Add(iface(root, meta.FQName{}, []meta.FQName{copying}, method("init", meta.InstanceType()))))
	require.NoError(t, c.Add(iface(mid, root, nil, method("becomeFirstResponder", meta.Bool()))))
	view := iface(leaf, mid, nil,
		method("init", meta.InstanceType()),
		method("copy", meta.ID(nil)),
		method("becomeFirstResponder", meta.Bool()),
		method("layoutSubviews", meta.Void()),
	)
	require.NoError(t, c.Add(view))

	RemoveDuplicateMembers(c)
	assert.Equal(t, []string{"layoutSubviews"}, selectors(view.InstanceMethods))
}

func TestRemoveDuplicateMembers_StaticAndProperties(t *testing.T) {
	p := fq("P", "Test")
	getter := method("count", meta.ULong())
	proto := protocol(p, nil)
	proto.StaticMethods = []*meta.MethodMeta{method("shared", meta.InstanceType())}
	proto.Properties = []*meta.PropertyMeta{{Name: "count", Getter: getter, Flags: meta.FlagPropertyHasGetter}}

	cls := iface(fq("C", "Test"), meta.FQName{}, []meta.FQName{p})
	cls.StaticMethods = []*meta.MethodMeta{method("shared", meta.InstanceType())}
	cls.Properties = []*meta.PropertyMeta{
		{Name: "count", Getter: method("count", meta.ULong()), Flags: meta.FlagPropertyHasGetter},
		{Name: "count2", Getter: method("count2", meta.ULong()), Flags: meta.FlagPropertyHasGetter},
	}
	// instance method with the same selector as the protocol's static one survives
	cls.InstanceMethods = []*meta.MethodMeta{method("shared", meta.InstanceType())}

	c := meta.NewContainer()
	require.NoError(t, c.Add(proto))
	require.NoError(t, c.Add(cls))

	assert.Equal(t, 2, RemoveDuplicateMembers(c))
	assert.Empty(t, cls.StaticMethods)
	assert.Len(t, cls.InstanceMethods, 1)
	require.Len(t, cls.Properties, 1)
	assert.Equal(t, "count2", cls.Properties[0].Name)
}

func TestRemoveDuplicateMembers_Idempotent(t *testing.T) {
	p1 := fq("P1", "Test")
	p2 := fq("P2", "Test")
	c := meta.NewContainer()
	require.NoError(t, c.Add(protocol(p1, []meta.FQName{p2}, method("a", meta.Void()))))
	require.NoError(t, c.Add(protocol(p2, nil, method("b", meta.Void()))))
	cls := iface(fq("C", "Test"), meta.FQName{}, []meta.FQName{p1},
		method("a", meta.Void()), method("b", meta.Void()), method("c", meta.Void()))
	require.NoError(t, c.Add(cls))

	RemoveDuplicateMembers(c)
	once := selectors(cls.InstanceMethods)
	assert.Equal(t, 0, RemoveDuplicateMembers(c))
	assert.Equal(t, once, selectors(cls.InstanceMethods))
	assert.Equal(t, []string{"c"}, once)
}

func TestRemoveDuplicateMembers_ConformanceCycle(t *testing.T) {
	p1 := fq("P1", "Test")
	p2 := fq("P2", "Test")
	c := meta.NewContainer()
	a := protocol(p1, []meta.FQName{p2}, method("x", meta.Void()), method("y", meta.Void()))
	b := protocol(p2, []meta.FQName{p1}, method("x", meta.Void()))
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))

	assert.NotPanics(t, func() { RemoveDuplicateMembers(c) })
	assert.Equal(t, []string{"y"}, selectors(a.InstanceMethods))
	assert.Equal(t, []string{"x"}, selectors(b.InstanceMethods))
}

func TestHandleExceptionalMetas_RemovesCategory(t *testing.T) {
	nsobject := fq("NSObject", "ObjectiveC.NSObject")
	c := meta.NewContainer()
	require.NoError(t, c.Add(iface(nsobject, meta.FQName{}, nil)))
	require.NoError(t, c.Add(&meta.CategoryMeta{
		BaseClassMeta:     meta.BaseClassMeta{Base: meta.Base{Name: fq("UIResponderStandardEditActions", "UIKit.UIResponder")}},
		ExtendedInterface: nsobject,
	}))
	require.NoError(t, c.Add(&meta.CategoryMeta{
		BaseClassMeta:     meta.BaseClassMeta{Base: meta.Base{Name: fq("UIAccessibility", "UIKit.UIAccessibility")}},
		ExtendedInterface: nsobject,
	}))

	HandleExceptionalMetas(c, DefaultExceptions())

	_, ok := c.Lookup(fq("UIResponderStandardEditActions", "UIKit.UIResponder"))
	assert.False(t, ok)
	_, ok = c.Lookup(fq("UIAccessibility", "UIKit.UIAccessibility"))
	assert.True(t, ok)
}

func TestHandleExceptionalMetas_NSNullReturnType(t *testing.T) {
	null := iface(fq("NSNull", "Foundation.NSNull"), meta.FQName{}, nil, method("null", meta.ID(nil)))
	null.StaticMethods = []*meta.MethodMeta{
		method("null", meta.Interface(fq("NSNull", "Foundation.NSNull"), nil)),
		method("new", meta.ID(nil)),
	}
	c := meta.NewContainer()
	require.NoError(t, c.Add(null))

	HandleExceptionalMetas(c, DefaultExceptions())

	assert.True(t, meta.TypesEqual(meta.InstanceType(), null.StaticMethods[0].Signature[0]))
	assert.True(t, meta.TypesEqual(meta.ID(nil), null.StaticMethods[1].Signature[0]))
	assert.True(t, meta.TypesEqual(meta.ID(nil), null.InstanceMethods[0].Signature[0]), "instance methods are untouched")
}

func TestPipeline_Run(t *testing.T) {
	nsobject := fq("NSObject", "ObjectiveC.NSObject")
	c := meta.NewContainer()
	require.NoError(t, c.Add(iface(nsobject, meta.FQName{}, nil, method("init", meta.InstanceType()))))
	child := iface(fq("NSString", "Foundation.NSString"), nsobject, nil, method("init", meta.InstanceType()))
	require.NoError(t, c.Add(child))

	stats, err := NewPipeline().Run(c)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MembersRemoved)
	assert.Empty(t, child.InstanceMethods)
}
