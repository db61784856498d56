package binary

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// Serializer encodes a finalized container into a metadata blob. Encoding is
// deterministic: module, meta, member and field order follow the container.
type Serializer struct {
	layout Layout
}

// NewSerializer creates a serializer for the given widths
func NewSerializer(layout Layout) (*Serializer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Serializer{layout: layout}, nil
}

// Encode serializes c. The container must not change while it is encoded.
func (s *Serializer) Encode(c *meta.Container) ([]byte, error) {
	heap := NewHeapWriter(s.layout)
	w := &metaWriter{heap: heap, types: NewTypeEncodingSerializer(heap)}

	modules := make([]uint64, 0, len(c.Modules()))
	for _, mod := range c.Modules() {
		off, err := w.writeModule(mod)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding module %s", mod.Name)
		}
		modules = append(modules, off)
	}
	root, err := heap.PushBinaryArray(modules)
	if err != nil {
		return nil, errors.Wrap(err, "encoding module table")
	}

	blob := make([]byte, 0, s.layout.HeaderSize()+len(heap.Bytes()))
	blob = append(blob, FormatVersion, byte(s.layout.PointerSize), byte(s.layout.ArrayCountSize))
	if blob, err = appendUint(blob, root, s.layout.PointerSize); err != nil {
		return nil, errors.Wrap(err, "encoding root pointer")
	}
	return append(blob, heap.Bytes()...), nil
}

type metaWriter struct {
	heap  *HeapWriter
	types *TypeEncodingSerializer
}

// writeModule writes {name, metas} where metas is a binary array of meta
// records.
func (w *metaWriter) writeModule(mod *meta.Module) (uint64, error) {
	metas := mod.Metas()
	records := make([]uint64, 0, len(metas))
	for _, m := range metas {
		off, err := w.writeMeta(m)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s", m.FQName())
		}
		records = append(records, off)
	}
	list, err := w.heap.PushBinaryArray(records)
	if err != nil {
		return 0, err
	}
	name, err := w.heap.PushString(mod.Name)
	if err != nil {
		return 0, err
	}
	return w.pointers(name, list)
}

// writeMeta writes kind:byte flags:byte name:ptr module:ptr followed by the
// kind-specific pointers.
func (w *metaWriter) writeMeta(m meta.Meta) (uint64, error) {
	tail, err := w.writeMetaChildren(m)
	if err != nil {
		return 0, err
	}
	fq := m.FQName()
	name, err := w.heap.PushString(fq.Name)
	if err != nil {
		return 0, err
	}
	module, err := w.heap.PushString(fq.Module)
	if err != nil {
		return 0, err
	}

	off := w.heap.PushByte(byte(m.Kind()))
	w.heap.PushByte(byte(m.Flags()))
	if _, err := w.pointers(append([]uint64{name, module}, tail...)...); err != nil {
		return 0, err
	}
	return off, nil
}

func (w *metaWriter) writeMetaChildren(m meta.Meta) ([]uint64, error) {
	switch m := m.(type) {
	case *meta.FunctionMeta:
		sig, err := w.types.SerializeSequence(m.Signature)
		return []uint64{sig}, err
	case *meta.VarMeta:
		t, err := w.types.SerializeType(m.Signature)
		return []uint64{t}, err
	case *meta.StructMeta:
		names, types, err := w.types.SerializeFields(m.Fields)
		return []uint64{names, types}, err
	case *meta.UnionMeta:
		names, types, err := w.types.SerializeFields(m.Fields)
		return []uint64{names, types}, err
	case *meta.EnumMeta:
		members, err := w.writeEnumMembers(m.Members)
		return []uint64{members}, err
	case *meta.EnumConstantMeta:
		value, err := w.heap.PushString(m.Value)
		return []uint64{value}, err
	case *meta.JsCodeMeta:
		code, err := w.heap.PushString(m.Code)
		return []uint64{code}, err
	case *meta.InterfaceMeta:
		class, err := w.writeClass(&m.BaseClassMeta)
		if err != nil {
			return nil, err
		}
		var base uint64
		if !m.BaseName.IsEmpty() {
			if base, err = pushFQName(w.heap, m.BaseName); err != nil {
				return nil, err
			}
		}
		return append(class, base), nil
	case *meta.ProtocolMeta:
		return w.writeClass(&m.BaseClassMeta)
	case *meta.CategoryMeta:
		class, err := w.writeClass(&m.BaseClassMeta)
		if err != nil {
			return nil, err
		}
		iface, err := pushFQName(w.heap, m.ExtendedInterface)
		if err != nil {
			return nil, err
		}
		return append(class, iface), nil
	default:
		return nil, errors.AssertionFailedf("cannot encode meta kind %s", m.Kind())
	}
}

// writeClass returns the protocols, instance methods, static methods and
// properties arrays of a class-like entity.
func (w *metaWriter) writeClass(c *meta.BaseClassMeta) ([]uint64, error) {
	protocols, err := pushFQNames(w.heap, c.Protocols)
	if err != nil {
		return nil, err
	}
	instance, err := w.writeMethods(c.InstanceMethods)
	if err != nil {
		return nil, err
	}
	static, err := w.writeMethods(c.StaticMethods)
	if err != nil {
		return nil, err
	}
	props := make([]uint64, 0, len(c.Properties))
	for _, p := range c.Properties {
		off, err := w.writeProperty(p)
		if err != nil {
			return nil, errors.Wrapf(err, "property %s", p.Name)
		}
		props = append(props, off)
	}
	properties, err := w.heap.PushBinaryArray(props)
	if err != nil {
		return nil, err
	}
	return []uint64{protocols, instance, static, properties}, nil
}

func (w *metaWriter) writeMethods(methods []*meta.MethodMeta) (uint64, error) {
	records := make([]uint64, 0, len(methods))
	for _, m := range methods {
		off, err := w.writeMethod(m)
		if err != nil {
			return 0, errors.Wrapf(err, "method %s", m.Selector)
		}
		records = append(records, off)
	}
	return w.heap.PushBinaryArray(records)
}

// writeMethod writes flags:byte selector:ptr jsName:ptr signature:ptr
func (w *metaWriter) writeMethod(m *meta.MethodMeta) (uint64, error) {
	sig, err := w.types.SerializeSequence(m.Signature)
	if err != nil {
		return 0, err
	}
	selector, err := w.heap.PushString(m.Selector)
	if err != nil {
		return 0, err
	}
	jsName, err := w.heap.PushString(m.JsName)
	if err != nil {
		return 0, err
	}
	off := w.heap.PushByte(byte(m.Flags))
	if _, err := w.pointers(selector, jsName, sig); err != nil {
		return 0, err
	}
	return off, nil
}

// writeProperty writes flags:byte name:ptr jsName:ptr getter:ptr setter:ptr
func (w *metaWriter) writeProperty(p *meta.PropertyMeta) (uint64, error) {
	var getter, setter uint64
	var err error
	if p.HasGetter() {
		if getter, err = w.writeMethod(p.Getter); err != nil {
			return 0, err
		}
	}
	if p.HasSetter() {
		if setter, err = w.writeMethod(p.Setter); err != nil {
			return 0, err
		}
	}
	name, err := w.heap.PushString(p.Name)
	if err != nil {
		return 0, err
	}
	jsName, err := w.heap.PushString(p.JsName)
	if err != nil {
		return 0, err
	}
	off := w.heap.PushByte(byte(p.Flags))
	if _, err := w.pointers(name, jsName, getter, setter); err != nil {
		return 0, err
	}
	return off, nil
}

// writeEnumMembers writes a binary array of {name:ptr value:ptr} records
func (w *metaWriter) writeEnumMembers(members []meta.EnumMember) (uint64, error) {
	records := make([]uint64, 0, len(members))
	for _, m := range members {
		name, err := w.heap.PushString(m.Name)
		if err != nil {
			return 0, err
		}
		value, err := w.heap.PushString(m.Value)
		if err != nil {
			return 0, err
		}
		off, err := w.pointers(name, value)
		if err != nil {
			return 0, err
		}
		records = append(records, off)
	}
	return w.heap.PushBinaryArray(records)
}

// pointers writes consecutive pointers and returns the offset of the first
func (w *metaWriter) pointers(targets ...uint64) (uint64, error) {
	start := w.heap.Len()
	for _, t := range targets {
		if _, err := w.heap.PushPointer(t); err != nil {
			return 0, err
		}
	}
	return start, nil
}
