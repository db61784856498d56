package binary

import (
	"io"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// Header is the fixed prefix of a blob
type Header struct {
	Version byte
	Layout  Layout
	Root    uint64
}

// ReadHeader parses the header of blob
func ReadHeader(blob []byte) (Header, error) {
	if len(blob) < 3 {
		return Header{}, errors.New("blob is too short for a header")
	}
	h := Header{
		Version: blob[0],
		Layout:  Layout{PointerSize: int(blob[1]), ArrayCountSize: int(blob[2])},
	}
	if h.Version != FormatVersion {
		return Header{}, errors.Newf("unsupported format version %d", h.Version)
	}
	if err := h.Layout.Validate(); err != nil {
		return Header{}, err
	}
	if len(blob) < h.Layout.HeaderSize() {
		return Header{}, errors.New("blob is too short for a header")
	}
	r := NewReader(blob[3:], h.Layout)
	root, err := r.ReadPointer()
	if err != nil {
		return Header{}, err
	}
	h.Root = root
	return h, nil
}

// Decode rebuilds the container encoded in blob
func Decode(blob []byte) (*meta.Container, error) {
	h, err := ReadHeader(blob)
	if err != nil {
		return nil, err
	}
	d := NewDecoder(blob[h.Layout.HeaderSize():], h.Layout)
	return d.DecodeContainer(h.Root)
}

// maxTypeDepth bounds the nesting of decoded type nodes
const maxTypeDepth = 256

// Decoder reads type encodings and meta records out of a heap
type Decoder struct {
	r *Reader

	// type nodes on the current decoding path, by offset
	active map[uint64]struct{}
}

// NewDecoder creates a decoder over heap
func NewDecoder(heap []byte, layout Layout) *Decoder {
	return &Decoder{r: NewReader(heap, layout), active: make(map[uint64]struct{})}
}

// DecodeContainer decodes the module table at root
func (d *Decoder) DecodeContainer(root uint64) (*meta.Container, error) {
	modules, err := d.r.ReadBinaryArray(root)
	if err != nil {
		return nil, errors.Wrap(err, "module table")
	}
	c := meta.NewContainer()
	for _, off := range modules {
		ptrs, err := d.pointersAt(off, 2)
		if err != nil {
			return nil, err
		}
		name, err := d.r.ReadString(ptrs[0])
		if err != nil {
			return nil, err
		}
		mod := c.Module(name)
		records, err := d.r.ReadBinaryArray(ptrs[1])
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", name)
		}
		for _, rec := range records {
			m, err := d.DecodeMeta(rec)
			if err != nil {
				return nil, errors.Wrapf(err, "module %s", name)
			}
			if err := mod.Add(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// DecodeMeta decodes the meta record at off
func (d *Decoder) DecodeMeta(off uint64) (meta.Meta, error) {
	if err := d.r.Seek(off); err != nil {
		return nil, err
	}
	kb, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	flags, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	kind := meta.Kind(kb)
	n, ok := classPointerCount[kind]
	if !ok {
		return nil, errors.Newf("invalid meta kind %d at %d", kb, off)
	}
	ptrs, err := d.pointersAt(d.r.Position(), 2+n)
	if err != nil {
		return nil, err
	}
	name, err := d.readFQName(ptrs[0], ptrs[1])
	if err != nil {
		return nil, err
	}
	base := meta.Base{Name: name, MetaFlags: meta.Flags(flags)}
	tail := ptrs[2:]

	switch kind {
	case meta.KindFunction:
		sig, err := d.DecodeSequence(tail[0])
		return &meta.FunctionMeta{Base: base, Signature: sig}, err
	case meta.KindVar:
		t, err := d.DecodeType(tail[0])
		return &meta.VarMeta{Base: base, Signature: t}, err
	case meta.KindStruct:
		fields, err := d.decodeFields(tail[0], tail[1])
		return &meta.StructMeta{Base: base, Fields: fields}, err
	case meta.KindUnion:
		fields, err := d.decodeFields(tail[0], tail[1])
		return &meta.UnionMeta{Base: base, Fields: fields}, err
	case meta.KindEnum:
		members, err := d.decodeEnumMembers(tail[0])
		return &meta.EnumMeta{Base: base, Members: members}, err
	case meta.KindEnumConstant:
		value, err := d.r.ReadString(tail[0])
		return &meta.EnumConstantMeta{Base: base, Value: value}, err
	case meta.KindJsCode:
		code, err := d.r.ReadString(tail[0])
		return &meta.JsCodeMeta{Base: base, Code: code}, err
	case meta.KindInterface:
		class, err := d.decodeClass(base, tail)
		if err != nil {
			return nil, err
		}
		iface := &meta.InterfaceMeta{BaseClassMeta: class}
		if tail[4] != 0 {
			if iface.BaseName, err = d.decodeFQNameRecord(tail[4]); err != nil {
				return nil, err
			}
		}
		return iface, nil
	case meta.KindProtocol:
		class, err := d.decodeClass(base, tail)
		if err != nil {
			return nil, err
		}
		return &meta.ProtocolMeta{BaseClassMeta: class}, nil
	case meta.KindCategory:
		class, err := d.decodeClass(base, tail)
		if err != nil {
			return nil, err
		}
		ext, err := d.decodeFQNameRecord(tail[4])
		if err != nil {
			return nil, err
		}
		return &meta.CategoryMeta{BaseClassMeta: class, ExtendedInterface: ext}, nil
	default:
		return nil, errors.Newf("invalid meta kind %s at %d", kind, off)
	}
}

func (d *Decoder) decodeClass(base meta.Base, tail []uint64) (meta.BaseClassMeta, error) {
	class := meta.BaseClassMeta{Base: base}
	var err error
	if class.Protocols, err = d.decodeFQNames(tail[0]); err != nil {
		return class, err
	}
	if class.InstanceMethods, err = d.decodeMethods(tail[1]); err != nil {
		return class, err
	}
	if class.StaticMethods, err = d.decodeMethods(tail[2]); err != nil {
		return class, err
	}
	props, err := d.r.ReadBinaryArray(tail[3])
	if err != nil {
		return class, err
	}
	for _, off := range props {
		p, err := d.decodeProperty(off)
		if err != nil {
			return class, err
		}
		class.Properties = append(class.Properties, p)
	}
	return class, nil
}

func (d *Decoder) decodeMethods(off uint64) ([]*meta.MethodMeta, error) {
	records, err := d.r.ReadBinaryArray(off)
	if err != nil {
		return nil, err
	}
	var out []*meta.MethodMeta
	for _, rec := range records {
		m, err := d.decodeMethod(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (d *Decoder) decodeMethod(off uint64) (*meta.MethodMeta, error) {
	flags, ptrs, err := d.flaggedRecord(off, 3)
	if err != nil {
		return nil, err
	}
	m := &meta.MethodMeta{Flags: flags}
	if m.Selector, err = d.r.ReadString(ptrs[0]); err != nil {
		return nil, err
	}
	if m.JsName, err = d.r.ReadString(ptrs[1]); err != nil {
		return nil, err
	}
	if m.Signature, err = d.DecodeSequence(ptrs[2]); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Decoder) decodeProperty(off uint64) (*meta.PropertyMeta, error) {
	flags, ptrs, err := d.flaggedRecord(off, 4)
	if err != nil {
		return nil, err
	}
	p := &meta.PropertyMeta{Flags: flags}
	if p.Name, err = d.r.ReadString(ptrs[0]); err != nil {
		return nil, err
	}
	if p.JsName, err = d.r.ReadString(ptrs[1]); err != nil {
		return nil, err
	}
	if ptrs[2] != 0 {
		if p.Getter, err = d.decodeMethod(ptrs[2]); err != nil {
			return nil, err
		}
	}
	if ptrs[3] != 0 {
		if p.Setter, err = d.decodeMethod(ptrs[3]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *Decoder) decodeEnumMembers(off uint64) ([]meta.EnumMember, error) {
	records, err := d.r.ReadBinaryArray(off)
	if err != nil {
		return nil, err
	}
	var out []meta.EnumMember
	for _, rec := range records {
		ptrs, err := d.pointersAt(rec, 2)
		if err != nil {
			return nil, err
		}
		var m meta.EnumMember
		if m.Name, err = d.r.ReadString(ptrs[0]); err != nil {
			return nil, err
		}
		if m.Value, err = d.r.ReadString(ptrs[1]); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// DecodeType decodes the type node at off. A node reachable from itself
// or nested deeper than maxTypeDepth is rejected.
func (d *Decoder) DecodeType(off uint64) (meta.Type, error) {
	if _, ok := d.active[off]; ok {
		return meta.Type{}, errors.Newf("type node at %d refers to itself", off)
	}
	if len(d.active) >= maxTypeDepth {
		return meta.Type{}, errors.Newf("type node at %d nested deeper than %d", off, maxTypeDepth)
	}
	if err := d.r.Seek(off); err != nil {
		return meta.Type{}, err
	}
	d.active[off] = struct{}{}
	defer delete(d.active, off)
	return d.decodeNode()
}

// DecodeSequence decodes the type sequence at off. Offset 0 is the empty
// sequence.
func (d *Decoder) DecodeSequence(off uint64) ([]meta.Type, error) {
	if off == 0 {
		return nil, nil
	}
	if err := d.r.Seek(off); err != nil {
		return nil, err
	}
	n, err := d.r.ReadArrayCount()
	if err != nil {
		return nil, err
	}
	// every element is at least its tag byte
	if uint64(n) > d.r.Remaining() {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "sequence of %d types at %d", n, off)
	}
	out := make([]meta.Type, 0, n)
	next := d.r.Position()
	for i := 0; i < n; i++ {
		if err := d.r.Seek(next); err != nil {
			return nil, err
		}
		tag, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := d.r.layout.NodeSize(Tag(tag))
		if err != nil {
			return nil, errors.Wrapf(err, "sequence element %d at %d", i, next)
		}
		t, err := d.DecodeType(next)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		next += 1 + uint64(size)
	}
	return out, nil
}

// decodeNode reads the node at the current position. The whole fixed
// payload is read before any child is followed.
func (d *Decoder) decodeNode() (meta.Type, error) {
	at := d.r.Position()
	b, err := d.r.ReadByte()
	if err != nil {
		return meta.Type{}, err
	}
	tag := Tag(b)
	if _, err := d.r.layout.NodeSize(tag); err != nil {
		return meta.Type{}, errors.Wrapf(err, "type node at %d", at)
	}
	kind := tagKinds[tag]

	switch tag {
	case TagConstantArray:
		size, err := d.r.ReadInt()
		if err != nil {
			return meta.Type{}, err
		}
		elem, err := d.r.ReadPointer()
		if err != nil {
			return meta.Type{}, err
		}
		inner, err := d.DecodeType(elem)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.ConstantArray(inner, int(size)), nil
	case TagIncompleteArray, TagPointer:
		elem, err := d.r.ReadPointer()
		if err != nil {
			return meta.Type{}, err
		}
		inner, err := d.DecodeType(elem)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Type{Kind: kind, Inner: &inner}, nil
	case TagBlock, TagFunction:
		sigOff, err := d.r.ReadPointer()
		if err != nil {
			return meta.Type{}, err
		}
		sig, err := d.DecodeSequence(sigOff)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Type{Kind: kind, Signature: sig}, nil
	case TagStructDeclarationReference, TagUnionDeclarationReference:
		ptrs, err := d.pointers(2)
		if err != nil {
			return meta.Type{}, err
		}
		name, err := d.readFQName(ptrs[0], ptrs[1])
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Type{Kind: kind, Name: name}, nil
	case TagInterfaceDeclarationReference:
		ptrs, err := d.pointers(3)
		if err != nil {
			return meta.Type{}, err
		}
		name, err := d.readFQName(ptrs[0], ptrs[1])
		if err != nil {
			return meta.Type{}, err
		}
		protocols, err := d.decodeFQNames(ptrs[2])
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Interface(name, protocols), nil
	case TagClass, TagID:
		protoOff, err := d.r.ReadPointer()
		if err != nil {
			return meta.Type{}, err
		}
		protocols, err := d.decodeFQNames(protoOff)
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Type{Kind: kind, Protocols: protocols}, nil
	case TagAnonymousStruct, TagAnonymousUnion:
		ptrs, err := d.pointers(2)
		if err != nil {
			return meta.Type{}, err
		}
		fields, err := d.decodeFields(ptrs[0], ptrs[1])
		if err != nil {
			return meta.Type{}, err
		}
		return meta.Type{Kind: kind, Fields: fields}, nil
	default:
		return meta.Type{Kind: kind}, nil
	}
}

func (d *Decoder) decodeFields(namesOff, typesOff uint64) ([]meta.RecordField, error) {
	names, err := d.r.ReadBinaryArray(namesOff)
	if err != nil {
		return nil, err
	}
	types, err := d.DecodeSequence(typesOff)
	if err != nil {
		return nil, err
	}
	if len(names) != len(types) {
		return nil, errors.Newf("record has %d field names but %d field types", len(names), len(types))
	}
	var fields []meta.RecordField
	for i, off := range names {
		name, err := d.r.ReadString(off)
		if err != nil {
			return nil, err
		}
		fields = append(fields, meta.RecordField{Name: name, Encoding: types[i]})
	}
	return fields, nil
}

func (d *Decoder) decodeFQNames(off uint64) ([]meta.FQName, error) {
	records, err := d.r.ReadBinaryArray(off)
	if err != nil {
		return nil, err
	}
	var out []meta.FQName
	for _, rec := range records {
		fq, err := d.decodeFQNameRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, fq)
	}
	return out, nil
}

func (d *Decoder) decodeFQNameRecord(off uint64) (meta.FQName, error) {
	ptrs, err := d.pointersAt(off, 2)
	if err != nil {
		return meta.FQName{}, err
	}
	return d.readFQName(ptrs[0], ptrs[1])
}

func (d *Decoder) readFQName(nameOff, moduleOff uint64) (meta.FQName, error) {
	name, err := d.r.ReadString(nameOff)
	if err != nil {
		return meta.FQName{}, err
	}
	module, err := d.r.ReadString(moduleOff)
	if err != nil {
		return meta.FQName{}, err
	}
	return meta.FQName{Name: name, Module: module}, nil
}

// flaggedRecord reads flags:byte followed by n pointers
func (d *Decoder) flaggedRecord(off uint64, n int) (meta.Flags, []uint64, error) {
	if err := d.r.Seek(off); err != nil {
		return 0, nil, err
	}
	flags, err := d.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	ptrs, err := d.pointers(n)
	return meta.Flags(flags), ptrs, err
}

func (d *Decoder) pointersAt(off uint64, n int) ([]uint64, error) {
	if err := d.r.Seek(off); err != nil {
		return nil, err
	}
	return d.pointers(n)
}

func (d *Decoder) pointers(n int) ([]uint64, error) {
	out := make([]uint64, n)
	for i := range out {
		p, err := d.r.ReadPointer()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
