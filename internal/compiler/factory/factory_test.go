package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/identifier"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

const (
	objcFile       = "/sdk/usr/include/objc/NSObject.h"
	foundationFile = "/sdk/Foundation.framework/Headers/NSString.h"
	cfFile         = "/sdk/CoreFoundation.framework/Headers/CFString.h"
)

var headers = []decl.Header{
	{Path: objcFile, Module: "ObjectiveC.NSObject"},
	{Path: "/sdk/Foundation.framework/Headers/", Module: "Foundation"},
	{Path: "/sdk/CoreFoundation.framework/Headers/", Module: "CoreFoundation"},
}

func builtin(kind string) *decl.RawType {
	return &decl.RawType{Class: decl.ClassBuiltin, Builtin: kind}
}

func object(id string) *decl.RawType {
	return &decl.RawType{Class: decl.ClassObjCObject, Object: decl.ObjectInterface, Decl: id}
}

func id() *decl.RawType {
	return &decl.RawType{Class: decl.ClassObjCObject, Object: decl.ObjectID}
}

func instancetype() *decl.RawType {
	return &decl.RawType{Class: decl.ClassTypedef, Name: "instancetype", Inner: id()}
}

func vector() *decl.RawType {
	return &decl.RawType{Class: decl.ClassVector, Inner: builtin(decl.BuiltinFloat)}
}

func build(t *testing.T, decls ...*decl.Decl) (*meta.Container, []errors.CompilerError) {
	t.Helper()
	unit, err := decl.NewUnit(headers, decls...)
	require.NoError(t, err)
	return New(identifier.DefaultCollisionTable()).Build(unit)
}

func codes(diags []errors.CompilerError) []string {
	out := []string{}
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestBuild_Classes(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "NSCopying", Kind: decl.KindProtocol, Name: "NSCopying", File: foundationFile,
			Methods: []*decl.Decl{
				{Kind: decl.KindMethod, Name: "copyWithZone:", ReturnType: id(),
					Params: []decl.Param{{Name: "zone", Type: &decl.RawType{Class: decl.ClassPointer, Pointee: builtin(decl.BuiltinVoid)}}}},
			}},
		&decl.Decl{ID: "NSObject", Kind: decl.KindInterface, Name: "NSObject", File: objcFile,
			Methods: []*decl.Decl{
				{Kind: decl.KindMethod, Name: "init", ReturnType: instancetype()},
				{Kind: decl.KindMethod, Name: "alloc", Static: true, ReturnType: instancetype()},
			},
			Properties: []*decl.Decl{
				{Kind: decl.KindProperty, Name: "hash",
					Getter: &decl.Decl{Kind: decl.KindMethod, Name: "hash", ReturnType: builtin(decl.BuiltinULong)}},
			}},
		&decl.Decl{ID: "NSString", Kind: decl.KindInterface, Name: "NSString", File: foundationFile,
			Base: "NSObject", Protocols: []string{"NSCopying"},
			Methods: []*decl.Decl{
				{Kind: decl.KindMethod, Name: "initWithFormat:", Variadic: true, ReturnType: instancetype(),
					Params: []decl.Param{{Name: "format", Type: object("NSString")}}},
				{Kind: decl.KindMethod, Name: "initialize", ReturnType: builtin(decl.BuiltinVoid)},
			}},
		&decl.Decl{ID: "NSStringExtras", Kind: decl.KindCategory, Name: "NSStringExtras", File: foundationFile,
			Interface: "NSString"},
	)
	require.Empty(t, diags)

	obj, ok := c.LookupInterface(meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"})
	require.True(t, ok)
	require.Len(t, obj.InstanceMethods, 1)
	assert.True(t, obj.InstanceMethods[0].IsInitializer())
	require.Len(t, obj.StaticMethods, 1)
	assert.False(t, obj.StaticMethods[0].IsInitializer(), "static methods never initialize")
	require.Len(t, obj.Properties, 1)
	assert.True(t, obj.Properties[0].HasGetter())
	assert.False(t, obj.Properties[0].HasSetter())

	str, ok := c.LookupInterface(meta.FQName{Name: "NSString", Module: "Foundation"})
	require.True(t, ok)
	assert.Equal(t, meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"}, str.BaseName)
	assert.Equal(t, []meta.FQName{{Name: "NSCopying", Module: "Foundation"}}, str.Protocols)
	require.Len(t, str.InstanceMethods, 2)

	initWithFormat := str.InstanceMethods[0]
	assert.Equal(t, "initWithFormat", initWithFormat.JsName)
	assert.True(t, initWithFormat.Flags.Has(meta.FlagMethodIsInitializer|meta.FlagMethodIsVariadic))
	assert.True(t, meta.SignaturesEqual(
		[]meta.Type{meta.ID(nil), meta.Interface(meta.FQName{Name: "NSString", Module: "Foundation"}, nil)},
		initWithFormat.Signature))
	assert.False(t, str.InstanceMethods[1].IsInitializer(), "initialize is not in the init family")

	m, ok := c.Lookup(meta.FQName{Name: "NSStringExtras", Module: "Foundation"})
	require.True(t, ok)
	assert.Equal(t, meta.FQName{Name: "NSString", Module: "Foundation"}, m.(*meta.CategoryMeta).ExtendedInterface)
}

func TestBuild_TopLevelDeclarations(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "NSLog", Kind: decl.KindFunction, Name: "NSLog", File: foundationFile, Variadic: true,
			ReturnType: builtin(decl.BuiltinVoid)},
		&decl.Decl{ID: "CFStringCreateCopy", Kind: decl.KindFunction, Name: "CFStringCreateCopy", File: cfFile,
			ReturnType: builtin(decl.BuiltinInt)},
		&decl.Decl{ID: "NSRange", Kind: decl.KindRecord, Name: "_NSRange", TypedefName: "NSRange", File: foundationFile,
			Fields: []*decl.Decl{
				{Kind: decl.KindField, Name: "location", Type: builtin(decl.BuiltinULong)},
				{Kind: decl.KindField, Name: "length", Type: builtin(decl.BuiltinULong)},
			}},
		&decl.Decl{ID: "NSComparisonResult", Kind: decl.KindEnum, Name: "NSComparisonResult", File: foundationFile,
			Type: builtin(decl.BuiltinLong),
			Constants: []*decl.Decl{
				{Kind: decl.KindEnumConstant, Name: "NSOrderedAscending", Value: "-1"},
				{Kind: decl.KindEnumConstant, Name: "NSOrderedSame", Value: "0"},
			}},
		&decl.Decl{ID: "anonEnum", Kind: decl.KindEnum, File: foundationFile,
			Constants: []*decl.Decl{
				{Kind: decl.KindEnumConstant, Name: "NSNotFound", Value: "9223372036854775807"},
			}},
		&decl.Decl{ID: "NSFoundationVersionNumber", Kind: decl.KindVar, Name: "NSFoundationVersionNumber",
			File: foundationFile, Type: builtin(decl.BuiltinDouble)},
		&decl.Decl{ID: "NSMakeRange", Kind: decl.KindJsCode, Name: "NSMakeRange", File: foundationFile,
			Value: "function (loc, len) { return { location: loc, length: len }; }"},
		&decl.Decl{ID: "NSUInteger", Kind: decl.KindTypedef, Name: "NSUInteger", File: foundationFile,
			Type: builtin(decl.BuiltinULong)},
	)
	require.Empty(t, diags)

	lookup := func(name, module string) meta.Meta {
		m, ok := c.Lookup(meta.FQName{Name: name, Module: module})
		require.True(t, ok, name)
		return m
	}

	nslog := lookup("NSLog", "Foundation").(*meta.FunctionMeta)
	assert.True(t, nslog.Flags().Has(meta.FlagFunctionIsVariadic))
	assert.False(t, nslog.Flags().Has(meta.FlagFunctionOwnsReturnedCocoaObject))
	assert.True(t, lookup("CFStringCreateCopy", "CoreFoundation").Flags().Has(meta.FlagFunctionOwnsReturnedCocoaObject))

	rng := lookup("_NSRange", "Foundation").(*meta.StructMeta)
	assert.Len(t, rng.Fields, 2)

	enum := lookup("NSComparisonResult", "Foundation").(*meta.EnumMeta)
	assert.Equal(t, []meta.EnumMember{{Name: "NSOrderedAscending", Value: "-1"}, {Name: "NSOrderedSame", Value: "0"}}, enum.Members)

	notFound := lookup("NSNotFound", "Foundation").(*meta.EnumConstantMeta)
	assert.Equal(t, "9223372036854775807", notFound.Value)

	v := lookup("NSFoundationVersionNumber", "Foundation").(*meta.VarMeta)
	assert.True(t, meta.TypesEqual(meta.Double(), v.Signature))

	assert.Equal(t, meta.KindJsCode, lookup("NSMakeRange", "Foundation").Kind())
	_, ok := c.Lookup(meta.FQName{Name: "NSUInteger", Module: "Foundation"})
	assert.False(t, ok, "typedefs are not metas")
	assert.Equal(t, 7, c.Len())
}

func TestBuild_FailuresAreIsolated(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "simd", Kind: decl.KindFunction, Name: "simd_length", File: foundationFile,
			ReturnType: builtin(decl.BuiltinFloat), Params: []decl.Param{{Type: vector()}}},
		&decl.Decl{ID: "anon", Kind: decl.KindRecord, File: foundationFile},
		&decl.Decl{ID: "nofile", Kind: decl.KindVar, Name: "lost", Type: builtin(decl.BuiltinInt)},
		&decl.Decl{ID: "ok", Kind: decl.KindVar, Name: "kept", File: foundationFile, Type: builtin(decl.BuiltinInt)},
	)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{errors.ErrUnsupportedType, errors.ErrAnonymousDecl, errors.ErrMissingFile}, codes(diags))
	for _, d := range diags {
		assert.Equal(t, errors.Warning, d.Severity)
	}
	assert.Equal(t, errors.PhaseType, diags[0].Phase)
	assert.Equal(t, "simd_length", diags[0].Location.Declaration)
}

func TestBuild_DroppedMember(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "NSObject", Kind: decl.KindInterface, Name: "NSObject", File: objcFile,
			Methods: []*decl.Decl{
				{Kind: decl.KindMethod, Name: "simdValue", ReturnType: vector()},
				{Kind: decl.KindMethod, Name: "description", ReturnType: id()},
			},
			Properties: []*decl.Decl{{Kind: decl.KindProperty, Name: "broken"}}},
	)

	obj, ok := c.LookupInterface(meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"})
	require.True(t, ok, "the owner survives")
	require.Len(t, obj.InstanceMethods, 1)
	assert.Equal(t, "description", obj.InstanceMethods[0].Selector)
	assert.Empty(t, obj.Properties)
	assert.Equal(t, []string{errors.ErrMemberDropped, errors.ErrMemberDropped}, codes(diags))
	assert.Equal(t, objcFile, diags[0].Location.File)
}

func TestBuild_SelfReferentialRecord(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "node", Kind: decl.KindRecord, Name: "node", File: foundationFile,
			Fields: []*decl.Decl{
				{Kind: decl.KindField, Name: "value", Type: builtin(decl.BuiltinInt)},
				{Kind: decl.KindField, Name: "next", Type: &decl.RawType{Class: decl.ClassPointer,
					Pointee: &decl.RawType{Class: decl.ClassRecord, Decl: "node"}}},
			}},
	)
	require.Empty(t, diags)

	m, ok := c.Lookup(meta.FQName{Name: "node", Module: "Foundation"})
	require.True(t, ok)
	fields := m.(*meta.StructMeta).Fields
	require.Len(t, fields, 2)
	assert.True(t, meta.TypesEqual(meta.Pointer(meta.Struct(meta.FQName{Name: "node", Module: "Foundation"})), fields[1].Encoding))
}

func TestBuild_ReferenceToDroppedDeclaration(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "bad", Kind: decl.KindRecord, Name: "bad", File: foundationFile,
			Fields: []*decl.Decl{{Kind: decl.KindField, Name: "v", Type: vector()}}},
		&decl.Decl{ID: "gBad", Kind: decl.KindVar, Name: "gBad", File: foundationFile,
			Type: &decl.RawType{Class: decl.ClassRecord, Decl: "bad"}},
		&decl.Decl{ID: "Broken", Kind: decl.KindInterface, Name: "Broken", File: foundationFile,
			Methods: []*decl.Decl{{Kind: decl.KindMethod, Name: "m", ReturnType: builtin(decl.BuiltinVoid)}},
			Base:    "missing"},
		&decl.Decl{ID: "BrokenExtras", Kind: decl.KindCategory, Name: "BrokenExtras", File: foundationFile,
			Interface: "Broken"},
	)

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{
		errors.ErrUnsupportedType,
		errors.ErrUnresolvedDeclaration,
		errors.ErrDanglingReference,
		errors.ErrDanglingReference,
	}, codes(diags))
}

func TestBuild_DuplicateAndDanglingReferences(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "fn", Kind: decl.KindFunction, Name: "Foo", File: foundationFile, ReturnType: builtin(decl.BuiltinVoid)},
		&decl.Decl{ID: "proto", Kind: decl.KindProtocol, Name: "Foo", File: foundationFile},
		&decl.Decl{ID: "X", Kind: decl.KindInterface, Name: "X", File: foundationFile, Protocols: []string{"proto"}},
		&decl.Decl{ID: "XCat", Kind: decl.KindCategory, Name: "XCat", File: foundationFile, Interface: "X"},
	)

	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup(meta.FQName{Name: "Foo", Module: "Foundation"})
	assert.True(t, ok, "the first declaration wins")
	assert.Equal(t, []string{errors.ErrDuplicateName, errors.ErrDanglingReference, errors.ErrDanglingReference}, codes(diags))
}

func TestBuild_CollisionSuffix(t *testing.T) {
	c, diags := build(t,
		&decl.Decl{ID: "NSObjectProto", Kind: decl.KindProtocol, Name: "NSObject", File: objcFile},
		&decl.Decl{ID: "NSObject", Kind: decl.KindInterface, Name: "NSObject", File: objcFile, Protocols: []string{"NSObjectProto"}},
	)
	require.Empty(t, diags)

	obj, ok := c.LookupInterface(meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"})
	require.True(t, ok)
	assert.Equal(t, []meta.FQName{{Name: "NSObjectProtocol", Module: "ObjectiveC.NSObject"}}, obj.Protocols)
}

func TestIsInitializer(t *testing.T) {
	cases := map[string]bool{
		"init":               true,
		"initWithFrame:":     true,
		"init:":              true,
		"_initWithCoder:":    true,
		"initialize":         false,
		"initializeWithX:":   false,
		"description":        false,
		"reinitWithOptions:": false,
	}
	for selector, want := range cases {
		assert.Equal(t, want, isInitializer(selector), selector)
	}
}
