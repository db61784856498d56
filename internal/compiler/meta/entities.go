package meta

// FQName identifies a declaration across modules
type FQName struct {
	Name   string
	Module string
}

// IsEmpty reports whether the name is unset
func (n FQName) IsEmpty() bool { return n.Name == "" }

func (n FQName) String() string {
	if n.Module == "" {
		return n.Name
	}
	return n.Module + "." + n.Name
}

// Identifier is the output of the identifier resolver. File is used only in
// diagnostics.
type Identifier struct {
	Name   string
	Module string
	File   string
}

// FQName drops the diagnostic file path
func (id Identifier) FQName() FQName {
	return FQName{Name: id.Name, Module: id.Module}
}

// Kind identifies the variant of a Meta
type Kind uint8

const (
	KindUndefined Kind = iota
	KindStruct
	KindUnion
	KindFunction
	KindJsCode
	KindVar
	KindInterface
	KindProtocol
	KindCategory
	KindEnum
	KindEnumConstant
)

var kindNames = [...]string{
	KindUndefined:    "undefined",
	KindStruct:       "struct",
	KindUnion:        "union",
	KindFunction:     "function",
	KindJsCode:       "js_code",
	KindVar:          "var",
	KindInterface:    "interface",
	KindProtocol:     "protocol",
	KindCategory:     "category",
	KindEnum:         "enum",
	KindEnumConstant: "enum_constant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Flags holds kind-specific boolean attributes
type Flags uint8

const (
	FlagFunctionIsVariadic Flags = 1 << iota
	FlagFunctionOwnsReturnedCocoaObject
	FlagMethodIsInitializer
	FlagMethodIsVariadic
	FlagMethodIsOptional
	FlagPropertyHasGetter
	FlagPropertyHasSetter
)

// Has reports whether every bit of f is set
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Meta is one modeled declaration. The set of implementations is closed.
type Meta interface {
	Kind() Kind
	FQName() FQName
	File() string
	Flags() Flags
	meta()
}

// Base carries the data shared by every Meta
type Base struct {
	Name       FQName
	SourceFile string
	MetaFlags  Flags
}

func (b *Base) FQName() FQName { return b.Name }
func (b *Base) File() string   { return b.SourceFile }
func (b *Base) Flags() Flags   { return b.MetaFlags }
func (b *Base) meta()          {}

// SetFlag sets or clears f
func (b *Base) SetFlag(f Flags, on bool) {
	if on {
		b.MetaFlags |= f
	} else {
		b.MetaFlags &^= f
	}
}

// MethodMeta is an Objective-C method. Signature[0] is the return type.
type MethodMeta struct {
	Selector  string
	JsName    string
	Signature []Type
	Flags     Flags
}

// IsInitializer reports whether the method belongs to the init family
func (m *MethodMeta) IsInitializer() bool { return m.Flags.Has(FlagMethodIsInitializer) }

// PropertyMeta is an Objective-C property with optional accessors
type PropertyMeta struct {
	Name   string
	JsName string
	Getter *MethodMeta
	Setter *MethodMeta
	Flags  Flags
}

// HasGetter reports whether the property has a getter
func (p *PropertyMeta) HasGetter() bool {
	return p.Flags.Has(FlagPropertyHasGetter) && p.Getter != nil
}

// HasSetter reports whether the property has a setter
func (p *PropertyMeta) HasSetter() bool {
	return p.Flags.Has(FlagPropertyHasSetter) && p.Setter != nil
}

// BaseClassMeta is the shared shape of interfaces, protocols and categories.
// Member order is declaration order.
type BaseClassMeta struct {
	Base
	InstanceMethods []*MethodMeta
	StaticMethods   []*MethodMeta
	Properties      []*PropertyMeta
	Protocols       []FQName
}

// Class returns the receiver; it lets callers reach the shared members of
// any base class entity through one interface.
func (b *BaseClassMeta) Class() *BaseClassMeta { return b }

// ClassMeta is implemented by InterfaceMeta, ProtocolMeta and CategoryMeta
type ClassMeta interface {
	Meta
	Class() *BaseClassMeta
}

type InterfaceMeta struct {
	BaseClassMeta
	BaseName FQName // empty for root classes
}

func (*InterfaceMeta) Kind() Kind { return KindInterface }

type ProtocolMeta struct {
	BaseClassMeta
}

func (*ProtocolMeta) Kind() Kind { return KindProtocol }

type CategoryMeta struct {
	BaseClassMeta
	ExtendedInterface FQName
}

func (*CategoryMeta) Kind() Kind { return KindCategory }

type FunctionMeta struct {
	Base
	Signature []Type
}

func (*FunctionMeta) Kind() Kind { return KindFunction }

type StructMeta struct {
	Base
	Fields []RecordField
}

func (*StructMeta) Kind() Kind { return KindStruct }

type UnionMeta struct {
	Base
	Fields []RecordField
}

func (*UnionMeta) Kind() Kind { return KindUnion }

type VarMeta struct {
	Base
	Signature Type
}

func (*VarMeta) Kind() Kind { return KindVar }

// EnumMember is a named constant of an enum
type EnumMember struct {
	Name  string
	Value string
}

type EnumMeta struct {
	Base
	Members []EnumMember
}

func (*EnumMeta) Kind() Kind { return KindEnum }

// EnumConstantMeta is a constant of an anonymous enum, promoted to the top
// level.
type EnumConstantMeta struct {
	Base
	Value string
}

func (*EnumConstantMeta) Kind() Kind { return KindEnumConstant }

// JsCodeMeta injects a literal script expression under a name
type JsCodeMeta struct {
	Base
	Code string
}

func (*JsCodeMeta) Kind() Kind { return KindJsCode }
