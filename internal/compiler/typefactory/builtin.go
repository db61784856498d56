package typefactory

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

var builtins = map[string]meta.TypeKind{
	decl.BuiltinVoid:      meta.TypeVoid,
	decl.BuiltinBool:      meta.TypeBool,
	decl.BuiltinCharS:     meta.TypeChar,
	decl.BuiltinCharU:     meta.TypeChar,
	decl.BuiltinSChar:     meta.TypeChar,
	decl.BuiltinShort:     meta.TypeShort,
	decl.BuiltinInt:       meta.TypeInt,
	decl.BuiltinLong:      meta.TypeLong,
	decl.BuiltinLongLong:  meta.TypeLongLong,
	decl.BuiltinUChar:     meta.TypeUChar,
	decl.BuiltinUShort:    meta.TypeUShort,
	decl.BuiltinUInt:      meta.TypeUInt,
	decl.BuiltinULong:     meta.TypeULong,
	decl.BuiltinULongLong: meta.TypeULongLong,
	decl.BuiltinFloat:     meta.TypeFloat,
	decl.BuiltinDouble:    meta.TypeDouble,

	// long double has the same runtime encoding as double
	decl.BuiltinLongDouble: meta.TypeDouble,
}

// unsupportedBuiltins are builtin kinds the runtime cannot represent.
// ObjCSel, ObjCId and ObjCClass only reach a builtin through pointer and
// object pointer types, which handle them first.
var unsupportedBuiltins = map[string]bool{
	decl.BuiltinObjCSel:   true,
	decl.BuiltinObjCID:    true,
	decl.BuiltinObjCClass: true,
	"Int128":              true,
	"UInt128":             true,
	"Half":                true,
	"WChar_S":             true,
	"WChar_U":             true,
	"Char16":              true,
	"Char32":              true,
	"NullPtr":             true,
	"Overload":            true,
	"BoundMember":         true,
	"PseudoObject":        true,
	"Dependent":           true,
	"UnknownAny":          true,
	"ARCUnbridgedCast":    true,
	"BuiltinFn":           true,
	"OCLImage1d":          true,
	"OCLImage1dArray":     true,
	"OCLImage1dBuffer":    true,
	"OCLImage2d":          true,
	"OCLImage2dArray":     true,
	"OCLImage3d":          true,
	"OCLSampler":          true,
	"OCLEvent":            true,
}

func createBuiltin(kind string) (meta.Type, error) {
	if k, ok := builtins[kind]; ok {
		return meta.Type{Kind: k}, nil
	}
	if unsupportedBuiltins[kind] {
		return meta.Type{}, errors.NewTypeError(errors.ErrUnsupportedBuiltin, kind, "Not supported builtin type.", true)
	}
	return meta.Type{}, errors.NewTypeError(errors.ErrUnsupportedBuiltin, kind, "Invalid builtin type.", true)
}
