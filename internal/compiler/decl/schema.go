// Package decl defines the declaration unit: the raw declaration and type tree
// handed over by the header parser, serialized as JSON.
package decl

// Kind identifies the declaration kind of a Decl
type Kind string

const (
	KindFunction     Kind = "function"
	KindRecord       Kind = "record"
	KindEnum         Kind = "enum"
	KindEnumConstant Kind = "enum_constant"
	KindVar          Kind = "var"
	KindTypedef      Kind = "typedef"
	KindInterface    Kind = "interface"
	KindProtocol     Kind = "protocol"
	KindCategory     Kind = "category"
	KindMethod       Kind = "method"
	KindProperty     Kind = "property"
	KindField        Kind = "field"
	KindJsCode       Kind = "js_code"
)

// Unit is one parsed set of headers
type Unit struct {
	Version string   `json:"version,omitempty"`
	SDK     string   `json:"sdk,omitempty"`
	Headers []Header `json:"headers"`
	Decls   []*Decl  `json:"decls"`
	index   declIndex
}

// Header maps a header file, or a directory of headers when Path ends in a
// slash, to its owning module.
type Header struct {
	Path   string `json:"path"`
	Module string `json:"module"`
}

// Decl is one raw declaration. Only the fields relevant to Kind are set.
type Decl struct {
	ID          string `json:"id,omitempty"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name,omitempty"`
	File        string `json:"file,omitempty"`
	TypedefName string `json:"typedef_name,omitempty"` // name of the enclosing typedef of an anonymous tag

	// record
	Fields        []*Decl `json:"fields,omitempty"`
	Union         bool    `json:"union,omitempty"`
	Opaque        bool    `json:"opaque,omitempty"`
	BridgedTo     string  `json:"bridged_to,omitempty"`
	BridgeMutable bool    `json:"bridge_mutable,omitempty"`

	// var, field, typedef and enum underlying type
	Type *RawType `json:"type,omitempty"`

	// enum
	Constants []*Decl `json:"constants,omitempty"`

	// enum constant, js code
	Value string `json:"value,omitempty"`

	// interface, protocol, category; references are declaration ids
	Base       string   `json:"base,omitempty"`
	Protocols  []string `json:"protocols,omitempty"`
	Methods    []*Decl  `json:"methods,omitempty"`
	Properties []*Decl  `json:"properties,omitempty"`
	Interface  string   `json:"interface,omitempty"`

	// function, method
	Static     bool     `json:"static,omitempty"`
	Variadic   bool     `json:"variadic,omitempty"`
	Optional   bool     `json:"optional,omitempty"`
	ReturnType *RawType `json:"return_type,omitempty"`
	Params     []Param  `json:"params,omitempty"`

	// property
	Getter *Decl `json:"getter,omitempty"`
	Setter *Decl `json:"setter,omitempty"`
}

// Param is a function or method parameter
type Param struct {
	Name string   `json:"name,omitempty"`
	Type *RawType `json:"type"`
}

// IsAnonymous reports whether a tag declaration has neither a name nor a
// typedef-supplied name.
func (d *Decl) IsAnonymous() bool {
	return d.Name == "" && d.TypedefName == ""
}

// LinkageName returns the name a tag declaration is known by: the typedef
// name of an anonymous tag, otherwise its own name.
func (d *Decl) LinkageName() string {
	if d.Name == "" {
		return d.TypedefName
	}
	return d.Name
}

// TypeClass identifies the shape of a RawType
type TypeClass string

const (
	ClassConstantArray   TypeClass = "constant_array"
	ClassIncompleteArray TypeClass = "incomplete_array"
	ClassPointer         TypeClass = "pointer"
	ClassBlockPointer    TypeClass = "block_pointer"
	ClassBuiltin         TypeClass = "builtin"
	ClassObjCObject      TypeClass = "objc_object_pointer"
	ClassRecord          TypeClass = "record"
	ClassEnum            TypeClass = "enum"
	ClassVector          TypeClass = "vector"
	ClassTypedef         TypeClass = "typedef"
	ClassElaborated      TypeClass = "elaborated"
	ClassAdjusted        TypeClass = "adjusted"
	ClassFunctionProto   TypeClass = "function_proto"
	ClassFunctionNoProto TypeClass = "function_no_proto"
	ClassParen           TypeClass = "paren"
)

// Object pointer flavours of an objc_object_pointer RawType
const (
	ObjectID        = "id"
	ObjectClass     = "class"
	ObjectInterface = "interface"
)

// RawType is the parser's description of a type. Only the fields relevant to
// Class are set:
//
//	constant_array     Element, Size
//	incomplete_array   Element
//	pointer            Pointee
//	block_pointer      Pointee
//	builtin            Builtin
//	objc_object_pointer Object, Decl (interface id), Protocols (protocol ids)
//	record, enum       Decl
//	typedef            Name, Inner (immediate underlying type)
//	elaborated, adjusted, paren, vector  Inner
//	function_proto     Return, Params
//	function_no_proto  Return
type RawType struct {
	Class     TypeClass  `json:"class"`
	Builtin   string     `json:"builtin,omitempty"`
	Size      int        `json:"size,omitempty"`
	Element   *RawType   `json:"element,omitempty"`
	Pointee   *RawType   `json:"pointee,omitempty"`
	Inner     *RawType   `json:"inner,omitempty"`
	Name      string     `json:"name,omitempty"`
	Decl      string     `json:"decl,omitempty"`
	Object    string     `json:"object,omitempty"`
	Protocols []string   `json:"protocols,omitempty"`
	Return    *RawType   `json:"return,omitempty"`
	Params    []*RawType `json:"params,omitempty"`
}

// Builtin kind names as reported by the parser
const (
	BuiltinVoid       = "Void"
	BuiltinBool       = "Bool"
	BuiltinCharS      = "Char_S"
	BuiltinCharU      = "Char_U"
	BuiltinSChar      = "SChar"
	BuiltinUChar      = "UChar"
	BuiltinShort      = "Short"
	BuiltinUShort     = "UShort"
	BuiltinInt        = "Int"
	BuiltinUInt       = "UInt"
	BuiltinLong       = "Long"
	BuiltinULong      = "ULong"
	BuiltinLongLong   = "LongLong"
	BuiltinULongLong  = "ULongLong"
	BuiltinFloat      = "Float"
	BuiltinDouble     = "Double"
	BuiltinLongDouble = "LongDouble"
	BuiltinObjCSel    = "ObjCSel"
	BuiltinObjCID     = "ObjCId"
	BuiltinObjCClass  = "ObjCClass"
)
