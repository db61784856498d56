// Package meta implements the in-memory metadata model: the closed type
// algebra, the declaration entities and the module container that owns them.
package meta

import (
	"fmt"
	"strings"
)

// TypeKind identifies the variant of a Type. The set is closed.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLong
	TypeULong
	TypeLongLong
	TypeULongLong
	TypeChar
	TypeUChar
	TypeUnichar
	TypeCString
	TypeFloat
	TypeDouble
	TypeVaList
	TypeSelector
	TypeInstanceType
	TypeClass
	TypeProtocol
	TypeID
	TypePointer
	TypeConstantArray
	TypeIncompleteArray
	TypeBlock
	TypeFunctionPointer
	TypeStruct
	TypeUnion
	TypeAnonymousStruct
	TypeAnonymousUnion
	TypeInterface
)

var typeKindNames = [...]string{
	TypeVoid:            "void",
	TypeBool:            "bool",
	TypeShort:           "short",
	TypeUShort:          "ushort",
	TypeInt:             "int",
	TypeUInt:            "uint",
	TypeLong:            "long",
	TypeULong:           "ulong",
	TypeLongLong:        "longlong",
	TypeULongLong:       "ulonglong",
	TypeChar:            "char",
	TypeUChar:           "uchar",
	TypeUnichar:         "unichar",
	TypeCString:         "cstring",
	TypeFloat:           "float",
	TypeDouble:          "double",
	TypeVaList:          "va_list",
	TypeSelector:        "selector",
	TypeInstanceType:    "instancetype",
	TypeClass:           "class",
	TypeProtocol:        "protocol",
	TypeID:              "id",
	TypePointer:         "pointer",
	TypeConstantArray:   "constant_array",
	TypeIncompleteArray: "incomplete_array",
	TypeBlock:           "block",
	TypeFunctionPointer: "function_pointer",
	TypeStruct:          "struct",
	TypeUnion:           "union",
	TypeAnonymousStruct: "anonymous_struct",
	TypeAnonymousUnion:  "anonymous_union",
	TypeInterface:       "interface",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// IsLeaf reports whether the kind carries no payload
func (k TypeKind) IsLeaf() bool {
	return k <= TypeInstanceType || k == TypeProtocol
}

// Type is a node of the type algebra. Only the fields relevant to Kind are
// set:
//
//	Pointer, IncompleteArray   Inner
//	ConstantArray              Inner, Size
//	Block, FunctionPointer     Signature (return type first)
//	Struct, Union              Name
//	Interface                  Name, Protocols
//	Class, ID                  Protocols
//	AnonymousStruct/Union      Fields
//
// Trees are finite and acyclic; declarations are referenced by name.
type Type struct {
	Kind      TypeKind
	Inner     *Type
	Size      int
	Signature []Type
	Fields    []RecordField
	Name      FQName
	Protocols []FQName
}

// RecordField is one field of an anonymous struct or union, or of a
// struct/union declaration.
type RecordField struct {
	Name     string
	Encoding Type
}

func leaf(k TypeKind) Type { return Type{Kind: k} }

func Void() Type         { return leaf(TypeVoid) }
func Bool() Type         { return leaf(TypeBool) }
func Short() Type        { return leaf(TypeShort) }
func UShort() Type       { return leaf(TypeUShort) }
func Int() Type          { return leaf(TypeInt) }
func UInt() Type         { return leaf(TypeUInt) }
func Long() Type         { return leaf(TypeLong) }
func ULong() Type        { return leaf(TypeULong) }
func LongLong() Type     { return leaf(TypeLongLong) }
func ULongLong() Type    { return leaf(TypeULongLong) }
func Char() Type         { return leaf(TypeChar) }
func UChar() Type        { return leaf(TypeUChar) }
func Unichar() Type      { return leaf(TypeUnichar) }
func CString() Type      { return leaf(TypeCString) }
func Float() Type        { return leaf(TypeFloat) }
func Double() Type       { return leaf(TypeDouble) }
func VaList() Type       { return leaf(TypeVaList) }
func Selector() Type     { return leaf(TypeSelector) }
func InstanceType() Type { return leaf(TypeInstanceType) }
func ProtocolType() Type { return leaf(TypeProtocol) }

// ClassType is the `Class` object type, optionally protocol-qualified
func ClassType(protocols []FQName) Type { return Type{Kind: TypeClass, Protocols: protocols} }

// ID is the `id` object type, optionally protocol-qualified
func ID(protocols []FQName) Type { return Type{Kind: TypeID, Protocols: protocols} }

func Pointer(inner Type) Type { return Type{Kind: TypePointer, Inner: &inner} }

func ConstantArray(inner Type, size int) Type {
	return Type{Kind: TypeConstantArray, Inner: &inner, Size: size}
}

func IncompleteArray(inner Type) Type { return Type{Kind: TypeIncompleteArray, Inner: &inner} }

func Block(signature []Type) Type { return Type{Kind: TypeBlock, Signature: signature} }

func FunctionPointer(signature []Type) Type {
	return Type{Kind: TypeFunctionPointer, Signature: signature}
}

func Struct(name FQName) Type { return Type{Kind: TypeStruct, Name: name} }
func Union(name FQName) Type  { return Type{Kind: TypeUnion, Name: name} }

func AnonymousStruct(fields []RecordField) Type {
	return Type{Kind: TypeAnonymousStruct, Fields: fields}
}

func AnonymousUnion(fields []RecordField) Type {
	return Type{Kind: TypeAnonymousUnion, Fields: fields}
}

func Interface(name FQName, protocols []FQName) Type {
	return Type{Kind: TypeInterface, Name: name, Protocols: protocols}
}

// String renders the type in a compact C-like notation used by diagnostics
// and the inspect command.
func (t Type) String() string {
	switch t.Kind {
	case TypePointer:
		return t.Inner.String() + "*"
	case TypeConstantArray:
		return fmt.Sprintf("%s[%d]", t.Inner.String(), t.Size)
	case TypeIncompleteArray:
		return t.Inner.String() + "[]"
	case TypeBlock:
		return signatureString("^", t.Signature)
	case TypeFunctionPointer:
		return signatureString("*", t.Signature)
	case TypeStruct:
		return "struct " + t.Name.Name
	case TypeUnion:
		return "union " + t.Name.Name
	case TypeAnonymousStruct:
		return "struct " + fieldsString(t.Fields)
	case TypeAnonymousUnion:
		return "union " + fieldsString(t.Fields)
	case TypeInterface:
		return t.Name.Name + protocolsString(t.Protocols) + "*"
	case TypeClass:
		return "Class" + protocolsString(t.Protocols)
	case TypeID:
		return "id" + protocolsString(t.Protocols)
	default:
		return t.Kind.String()
	}
}

func signatureString(marker string, sig []Type) string {
	if len(sig) == 0 {
		return "void (" + marker + ")()"
	}
	params := make([]string, 0, len(sig)-1)
	for _, p := range sig[1:] {
		params = append(params, p.String())
	}
	return fmt.Sprintf("%s (%s)(%s)", sig[0].String(), marker, strings.Join(params, ", "))
}

func fieldsString(fields []RecordField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Encoding.String()+" "+f.Name)
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func protocolsString(protocols []FQName) string {
	if len(protocols) == 0 {
		return ""
	}
	names := make([]string, 0, len(protocols))
	for _, p := range protocols {
		names = append(names, p.Name)
	}
	return "<" + strings.Join(names, ", ") + ">"
}
