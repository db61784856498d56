// Package binary encodes a finalized meta container into the offset-addressed
// metadata blob read by the runtime, and decodes it back.
//
// A blob is a header followed by a heap:
//
//	version:byte pointerSize:byte arrayCountSize:byte root:pointer heap...
//
// Every pointer is a heap-relative offset written least significant byte
// first. Heap offset 0 holds a pad byte, so a zero pointer means "absent".
package binary

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// FormatVersion gates compatibility with the runtime loader
const FormatVersion byte = 1

const (
	DefaultPointerSize    = 4
	DefaultArrayCountSize = 4
)

// Layout holds the configurable primitive widths of a blob
type Layout struct {
	PointerSize    int
	ArrayCountSize int
}

// DefaultLayout returns 4-byte pointers and 4-byte array counts
func DefaultLayout() Layout {
	return Layout{PointerSize: DefaultPointerSize, ArrayCountSize: DefaultArrayCountSize}
}

// Validate checks that both widths are between 1 and 8 bytes
func (l Layout) Validate() error {
	if l.PointerSize < 1 || l.PointerSize > 8 {
		return errors.Newf("pointer size must be between 1 and 8 bytes, got %d", l.PointerSize)
	}
	if l.ArrayCountSize < 1 || l.ArrayCountSize > 8 {
		return errors.Newf("array count size must be between 1 and 8 bytes, got %d", l.ArrayCountSize)
	}
	return nil
}

// HeaderSize is the number of bytes preceding the heap
func (l Layout) HeaderSize() int {
	return 3 + l.PointerSize
}

// Tag identifies the variant of a type encoding node
type Tag byte

const (
	TagUnknown Tag = iota
	TagVoid
	TagBool
	TagShort
	TagUShort
	TagInt
	TagUInt
	TagLong
	TagULong
	TagLongLong
	TagULongLong
	TagChar
	TagUChar
	TagUnichar
	TagCString
	TagFloat
	TagDouble
	TagVaList
	TagSelector
	TagInstanceType
	TagClass
	TagID
	TagProtocol
	TagConstantArray
	TagIncompleteArray
	TagInterfaceDeclarationReference
	TagPointer
	TagBlock
	TagFunction
	TagStructDeclarationReference
	TagUnionDeclarationReference
	TagAnonymousStruct
	TagAnonymousUnion
)

var tagNames = [...]string{
	TagUnknown:                       "Unknown",
	TagVoid:                          "Void",
	TagBool:                          "Bool",
	TagShort:                         "Short",
	TagUShort:                        "UShort",
	TagInt:                           "Int",
	TagUInt:                          "UInt",
	TagLong:                          "Long",
	TagULong:                         "ULong",
	TagLongLong:                      "LongLong",
	TagULongLong:                     "ULongLong",
	TagChar:                          "Char",
	TagUChar:                         "UChar",
	TagUnichar:                       "Unichar",
	TagCString:                       "CString",
	TagFloat:                         "Float",
	TagDouble:                        "Double",
	TagVaList:                        "VaList",
	TagSelector:                      "Selector",
	TagInstanceType:                  "InstanceType",
	TagClass:                         "ClassType",
	TagID:                            "Id",
	TagProtocol:                      "Protocol",
	TagConstantArray:                 "ConstantArray",
	TagIncompleteArray:               "IncompleteArray",
	TagInterfaceDeclarationReference: "InterfaceDeclarationReference",
	TagPointer:                       "Pointer",
	TagBlock:                         "Block",
	TagFunction:                      "Function",
	TagStructDeclarationReference:    "StructDeclarationReference",
	TagUnionDeclarationReference:     "UnionDeclarationReference",
	TagAnonymousStruct:               "AnonymousStruct",
	TagAnonymousUnion:                "AnonymousUnion",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Invalid"
}

var kindTags = map[meta.TypeKind]Tag{
	meta.TypeVoid:            TagVoid,
	meta.TypeBool:            TagBool,
	meta.TypeShort:           TagShort,
	meta.TypeUShort:          TagUShort,
	meta.TypeInt:             TagInt,
	meta.TypeUInt:            TagUInt,
	meta.TypeLong:            TagLong,
	meta.TypeULong:           TagULong,
	meta.TypeLongLong:        TagLongLong,
	meta.TypeULongLong:       TagULongLong,
	meta.TypeChar:            TagChar,
	meta.TypeUChar:           TagUChar,
	meta.TypeUnichar:         TagUnichar,
	meta.TypeCString:         TagCString,
	meta.TypeFloat:           TagFloat,
	meta.TypeDouble:          TagDouble,
	meta.TypeVaList:          TagVaList,
	meta.TypeSelector:        TagSelector,
	meta.TypeInstanceType:    TagInstanceType,
	meta.TypeClass:           TagClass,
	meta.TypeID:              TagID,
	meta.TypeProtocol:        TagProtocol,
	meta.TypeConstantArray:   TagConstantArray,
	meta.TypeIncompleteArray: TagIncompleteArray,
	meta.TypeInterface:       TagInterfaceDeclarationReference,
	meta.TypePointer:         TagPointer,
	meta.TypeBlock:           TagBlock,
	meta.TypeFunctionPointer: TagFunction,
	meta.TypeStruct:          TagStructDeclarationReference,
	meta.TypeUnion:           TagUnionDeclarationReference,
	meta.TypeAnonymousStruct: TagAnonymousStruct,
	meta.TypeAnonymousUnion:  TagAnonymousUnion,
}

var tagKinds = func() map[Tag]meta.TypeKind {
	m := make(map[Tag]meta.TypeKind, len(kindTags))
	for k, t := range kindTags {
		m[t] = k
	}
	return m
}()

// TagFor returns the node tag of a type kind
func TagFor(kind meta.TypeKind) (Tag, bool) {
	t, ok := kindTags[kind]
	return t, ok
}

// NodeSize returns the size of the fixed payload following the tag byte
func (l Layout) NodeSize(tag Tag) (int, error) {
	p := l.PointerSize
	switch tag {
	case TagConstantArray:
		return 4 + p, nil
	case TagIncompleteArray, TagPointer, TagBlock, TagFunction, TagClass, TagID:
		return p, nil
	case TagStructDeclarationReference, TagUnionDeclarationReference,
		TagAnonymousStruct, TagAnonymousUnion:
		return 2 * p, nil
	case TagInterfaceDeclarationReference:
		return 3 * p, nil
	case TagUnknown:
		return 0, errors.Newf("unknown type encoding tag")
	default:
		if _, ok := tagKinds[tag]; ok {
			return 0, nil
		}
		return 0, errors.Newf("invalid type encoding tag %d", tag)
	}
}

// classPointerCount is the number of pointers following the common meta
// record header for each kind.
var classPointerCount = map[meta.Kind]int{
	meta.KindFunction:     1,
	meta.KindVar:          1,
	meta.KindStruct:       2,
	meta.KindUnion:        2,
	meta.KindEnum:         1,
	meta.KindEnumConstant: 1,
	meta.KindJsCode:       1,
	meta.KindInterface:    5,
	meta.KindProtocol:     4,
	meta.KindCategory:     5,
}
