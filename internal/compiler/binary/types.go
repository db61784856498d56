package binary

import (
	"fortio.org/safecast"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

// typeEncoding is a node whose children are already on the heap. Only the
// tag and the fixed payload remain to be saved.
type typeEncoding struct {
	tag     Tag
	payload []byte
}

// payloadBuilder accumulates a fixed node payload, keeping the first error
type payloadBuilder struct {
	layout Layout
	buf    []byte
	err    error
}

func (p *payloadBuilder) pointer(off uint64) {
	if p.err != nil {
		return
	}
	p.buf, p.err = appendUint(p.buf, off, p.layout.PointerSize)
}

func (p *payloadBuilder) int32(v int32) {
	if p.err != nil {
		return
	}
	p.buf, p.err = appendUint(p.buf, uint64(uint32(v)), 4)
}

// TypeEncodingSerializer writes type algebra values as encoding nodes.
// Referenced children are written first, then the node header holding their
// offsets.
type TypeEncodingSerializer struct {
	heap *HeapWriter
}

// NewTypeEncodingSerializer creates a serializer writing to heap
func NewTypeEncodingSerializer(heap *HeapWriter) *TypeEncodingSerializer {
	return &TypeEncodingSerializer{heap: heap}
}

// SerializeType writes t and returns the offset of its node
func (s *TypeEncodingSerializer) SerializeType(t meta.Type) (uint64, error) {
	enc, err := s.visit(t)
	if err != nil {
		return 0, err
	}
	return s.save(enc), nil
}

// SerializeSequence writes types as an array count followed by the node
// headers back to back. An empty sequence yields offset 0.
func (s *TypeEncodingSerializer) SerializeSequence(types []meta.Type) (uint64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	encodings := make([]typeEncoding, 0, len(types))
	for _, t := range types {
		enc, err := s.visit(t)
		if err != nil {
			return 0, err
		}
		encodings = append(encodings, enc)
	}

	off, err := s.heap.PushArrayCount(len(encodings))
	if err != nil {
		return 0, err
	}
	for _, enc := range encodings {
		s.save(enc)
	}
	return off, nil
}

func (s *TypeEncodingSerializer) save(enc typeEncoding) uint64 {
	off := s.heap.PushByte(byte(enc.tag))
	s.heap.pushRaw(enc.payload)
	return off
}

func (s *TypeEncodingSerializer) visit(t meta.Type) (typeEncoding, error) {
	tag, ok := TagFor(t.Kind)
	if !ok {
		return typeEncoding{}, errors.AssertionFailedf("no encoding for type kind %d", t.Kind)
	}
	p := payloadBuilder{layout: s.heap.layout}

	switch t.Kind {
	case meta.TypeConstantArray:
		elem, err := s.serializeInner(t)
		if err != nil {
			return typeEncoding{}, err
		}
		size, err := safecast.Conv[int32](t.Size)
		if err != nil {
			return typeEncoding{}, errors.Wrapf(err, "constant array size %d", t.Size)
		}
		p.int32(size)
		p.pointer(elem)
	case meta.TypeIncompleteArray, meta.TypePointer:
		elem, err := s.serializeInner(t)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(elem)
	case meta.TypeBlock, meta.TypeFunctionPointer:
		sig, err := s.SerializeSequence(t.Signature)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(sig)
	case meta.TypeStruct, meta.TypeUnion:
		name, module, err := s.pushName(t.Name)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(name)
		p.pointer(module)
	case meta.TypeInterface:
		name, module, err := s.pushName(t.Name)
		if err != nil {
			return typeEncoding{}, err
		}
		protocols, err := pushFQNames(s.heap, t.Protocols)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(name)
		p.pointer(module)
		p.pointer(protocols)
	case meta.TypeClass, meta.TypeID:
		protocols, err := pushFQNames(s.heap, t.Protocols)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(protocols)
	case meta.TypeAnonymousStruct, meta.TypeAnonymousUnion:
		names, types, err := s.SerializeFields(t.Fields)
		if err != nil {
			return typeEncoding{}, err
		}
		p.pointer(names)
		p.pointer(types)
	}

	if p.err != nil {
		return typeEncoding{}, p.err
	}
	return typeEncoding{tag: tag, payload: p.buf}, nil
}

// SerializeFields writes the field names as an array of string offsets and
// the field types as a type sequence.
func (s *TypeEncodingSerializer) SerializeFields(fields []meta.RecordField) (names, types uint64, err error) {
	nameOffsets := make([]uint64, 0, len(fields))
	encodings := make([]meta.Type, 0, len(fields))
	for _, f := range fields {
		off, err := s.heap.PushString(f.Name)
		if err != nil {
			return 0, 0, err
		}
		nameOffsets = append(nameOffsets, off)
		encodings = append(encodings, f.Encoding)
	}
	if names, err = s.heap.PushBinaryArray(nameOffsets); err != nil {
		return 0, 0, err
	}
	if types, err = s.SerializeSequence(encodings); err != nil {
		return 0, 0, err
	}
	return names, types, nil
}

func (s *TypeEncodingSerializer) serializeInner(t meta.Type) (uint64, error) {
	if t.Inner == nil {
		return 0, errors.AssertionFailedf("%s type without an inner type", t.Kind)
	}
	return s.SerializeType(*t.Inner)
}

func (s *TypeEncodingSerializer) pushName(fq meta.FQName) (name, module uint64, err error) {
	if name, err = s.heap.PushString(fq.Name); err != nil {
		return 0, 0, err
	}
	if module, err = s.heap.PushString(fq.Module); err != nil {
		return 0, 0, err
	}
	return name, module, nil
}

// pushFQName writes a {name, module} record
func pushFQName(h *HeapWriter, fq meta.FQName) (uint64, error) {
	name, err := h.PushString(fq.Name)
	if err != nil {
		return 0, err
	}
	module, err := h.PushString(fq.Module)
	if err != nil {
		return 0, err
	}
	off, err := h.PushPointer(name)
	if err != nil {
		return 0, err
	}
	if _, err := h.PushPointer(module); err != nil {
		return 0, err
	}
	return off, nil
}

// pushFQNames writes a binary array of FQName records; empty lists yield 0
func pushFQNames(h *HeapWriter, names []meta.FQName) (uint64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	records := make([]uint64, 0, len(names))
	for _, fq := range names {
		off, err := pushFQName(h, fq)
		if err != nil {
			return 0, err
		}
		records = append(records, off)
	}
	return h.PushBinaryArray(records)
}
