package meta

import (
	"testing"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypesEqual(t *testing.T) {
	point := FQName{Name: "CGPoint", Module: "CoreGraphics"}
	copying := FQName{Name: "NSCopying", Module: "Foundation.NSObject"}

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"leaf", Int(), Int(), true},
		{"different leaves", Int(), UInt(), false},
		{"pointer", Pointer(Char()), Pointer(Char()), true},
		{"pointer inner differs", Pointer(Char()), Pointer(UChar()), false},
		{"array size differs", ConstantArray(Int(), 4), ConstantArray(Int(), 5), false},
		{"struct ref", Struct(point), Struct(point), true},
		{"struct vs union", Struct(point), Union(point), false},
		{"id protocols", ID([]FQName{copying}), ID([]FQName{copying}), true},
		{"id protocols differ", ID([]FQName{copying}), ID(nil), false},
		{"block", Block([]Type{Void(), Int()}), Block([]Type{Void(), Int()}), true},
		{"block arity", Block([]Type{Void(), Int()}), Block([]Type{Void()}), false},
		{
			"anonymous struct",
			AnonymousStruct([]RecordField{{Name: "x", Encoding: Float()}}),
			AnonymousStruct([]RecordField{{Name: "x", Encoding: Float()}}),
			true,
		},
		{
			"anonymous struct field name",
			AnonymousStruct([]RecordField{{Name: "x", Encoding: Float()}}),
			AnonymousStruct([]RecordField{{Name: "y", Encoding: Float()}}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypesEqual(tt.a, tt.b))
		})
	}
}

func TestPropertiesEqual(t *testing.T) {
	getter := &MethodMeta{Selector: "title", Signature: []Type{ID(nil)}}
	setter := &MethodMeta{Selector: "setTitle:", Signature: []Type{Void(), ID(nil)}}

	readonly := &PropertyMeta{Name: "title", Getter: getter, Flags: FlagPropertyHasGetter}
	readwrite := &PropertyMeta{Name: "title", Getter: getter, Setter: setter, Flags: FlagPropertyHasGetter | FlagPropertyHasSetter}
	otherGetter := &PropertyMeta{
		Name:   "title",
		Getter: &MethodMeta{Selector: "title", Signature: []Type{CString()}},
		Flags:  FlagPropertyHasGetter,
	}

	assert.True(t, PropertiesEqual(readonly, readonly))
	assert.False(t, PropertiesEqual(readonly, readwrite))
	assert.False(t, PropertiesEqual(readonly, otherGetter))
	assert.True(t, PropertiesEqual(&PropertyMeta{Name: "x"}, &PropertyMeta{Name: "x"}))
}

func TestContainer_AddAndLookup(t *testing.T) {
	c := NewContainer()
	view := &InterfaceMeta{BaseClassMeta: BaseClassMeta{Base: Base{Name: FQName{Name: "UIView", Module: "UIKit.UIView"}}}}
	fn := &FunctionMeta{Base: Base{Name: FQName{Name: "NSLog", Module: "Foundation.NSObjCRuntime"}}}

	require.NoError(t, c.Add(view))
	require.NoError(t, c.Add(fn))
	err := c.Add(view)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UIView is already declared in module UIKit")
	assert.NotEmpty(t, errors.GetAllDetails(err), "duplicate declarations carry a stack trace")

	got, ok := c.Lookup(view.FQName())
	require.True(t, ok)
	assert.Same(t, view, got)

	iface, ok := c.LookupInterface(view.FQName())
	require.True(t, ok)
	assert.Equal(t, "UIView", iface.Name.Name)

	_, ok = c.LookupProtocol(view.FQName())
	assert.False(t, ok)

	assert.Len(t, c.ByKind(KindFunction), 1)
	assert.Equal(t, 2, c.Len())

	names := []string{}
	for _, m := range c.Modules() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"UIKit.UIView", "Foundation.NSObjCRuntime"}, names)
}

func TestModule_PreservesInsertionOrder(t *testing.T) {
	m := NewModule("Foundation.NSString")
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, m.Add(&VarMeta{Base: Base{Name: FQName{Name: name, Module: m.Name}}}))
	}
	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))

	var order []string
	for _, meta := range m.Metas() {
		order = append(order, meta.FQName().Name)
	}
	assert.Equal(t, []string{"c", "b"}, order)
}

func TestContainer_RemoveCategory(t *testing.T) {
	c := NewContainer()
	nsobject := FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"}
	cat := &CategoryMeta{
		BaseClassMeta:     BaseClassMeta{Base: Base{Name: FQName{Name: "Extras", Module: "UIKit.UIResponder"}}},
		ExtendedInterface: nsobject,
	}
	require.NoError(t, c.Add(cat))

	assert.False(t, c.RemoveCategory(cat.FQName(), FQName{Name: "NSString", Module: "Foundation"}))
	assert.True(t, c.RemoveCategory(cat.FQName(), nsobject))
	_, ok := c.Lookup(cat.FQName())
	assert.False(t, ok)
}

func TestContainer_FindByName(t *testing.T) {
	c := NewContainer()
	null := &InterfaceMeta{BaseClassMeta: BaseClassMeta{Base: Base{Name: FQName{Name: "NSNull", Module: "Foundation.NSNull"}}}}
	require.NoError(t, c.Add(null))

	got, ok := c.FindByName(KindInterface, "Foundation", "NSNull")
	require.True(t, ok)
	assert.Same(t, null, got)

	_, ok = c.FindByName(KindProtocol, "Foundation", "NSNull")
	assert.False(t, ok)
}

func TestLocalizeReference(t *testing.T) {
	c := NewContainer()

	name, imported := c.LocalizeReference(FQName{Name: "NSString", Module: "Foundation.NSString"}, "Foundation.NSArray")
	assert.Equal(t, "NSString", name)
	assert.False(t, imported)

	name, imported = c.LocalizeReference(FQName{Name: "NSString", Module: "Foundation.NSString"}, "UIKit.UIView")
	assert.Equal(t, "Foundation.NSString", name)
	assert.True(t, imported)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "char*", Pointer(Char()).String())
	assert.Equal(t, "int[4]", ConstantArray(Int(), 4).String())
	assert.Equal(t, "void (^)(int, double)", Block([]Type{Void(), Int(), Double()}).String())
	assert.Equal(t, "id<NSCopying>", ID([]FQName{{Name: "NSCopying"}}).String())
	assert.Equal(t, "struct CGRect", Struct(FQName{Name: "CGRect"}).String())
}

func TestTypeKind(t *testing.T) {
	assert.True(t, TypeInstanceType.IsLeaf())
	assert.True(t, TypeProtocol.IsLeaf())
	assert.False(t, TypeClass.IsLeaf())
	assert.False(t, TypePointer.IsLeaf())
	assert.Equal(t, "function_pointer", TypeFunctionPointer.String())
	assert.Equal(t, "unknown", TypeKind(200).String())
}
