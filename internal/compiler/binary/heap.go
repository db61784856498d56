package binary

import (
	"encoding/binary"
	"strings"

	"fortio.org/safecast"

	"github.com/conduit-lang/metagen/compiler/errors"
)

// HeapWriter is the append-only heap of a blob. Nothing written is ever
// rewritten; every Push returns the offset where its data begins.
type HeapWriter struct {
	layout  Layout
	buf     []byte
	strings map[string]uint64
}

// NewHeapWriter creates a heap holding only the reserved pad byte
func NewHeapWriter(layout Layout) *HeapWriter {
	return &HeapWriter{
		layout:  layout,
		buf:     []byte{0},
		strings: make(map[string]uint64),
	}
}

// Layout returns the widths used by the heap
func (h *HeapWriter) Layout() Layout { return h.layout }

// Len returns the current heap size, which is also the next offset
func (h *HeapWriter) Len() uint64 { return uint64(len(h.buf)) }

// Bytes returns the heap contents
func (h *HeapWriter) Bytes() []byte { return h.buf }

// PushString writes s followed by a NUL terminator. Equal strings share one
// copy.
func (h *HeapWriter) PushString(s string) (uint64, error) {
	if off, ok := h.strings[s]; ok {
		return off, nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return 0, errors.Newf("string %q contains a NUL byte", s)
	}
	off := h.Len()
	h.buf = append(h.buf, s...)
	h.buf = append(h.buf, 0)
	h.strings[s] = off
	return off, nil
}

// PushByte writes one byte
func (h *HeapWriter) PushByte(b byte) uint64 {
	off := h.Len()
	h.buf = append(h.buf, b)
	return off
}

// PushShort writes a 2-byte little-endian integer
func (h *HeapWriter) PushShort(v int16) uint64 {
	off := h.Len()
	h.buf = binary.LittleEndian.AppendUint16(h.buf, uint16(v))
	return off
}

// PushInt writes a 4-byte little-endian integer
func (h *HeapWriter) PushInt(v int32) uint64 {
	off := h.Len()
	h.buf = binary.LittleEndian.AppendUint32(h.buf, uint32(v))
	return off
}

// PushPointer writes a heap offset using the pointer width
func (h *HeapWriter) PushPointer(target uint64) (uint64, error) {
	off := h.Len()
	buf, err := appendUint(h.buf, target, h.layout.PointerSize)
	if err != nil {
		return 0, errors.Wrapf(err, "pointer at %d", off)
	}
	h.buf = buf
	return off, nil
}

// PushArrayCount writes an element count. The elements of the array are
// expected to follow immediately.
func (h *HeapWriter) PushArrayCount(n int) (uint64, error) {
	off := h.Len()
	count, err := safecast.Conv[uint64](n)
	if err != nil {
		return 0, errors.Wrapf(err, "array count at %d", off)
	}
	buf, err := appendUint(h.buf, count, h.layout.ArrayCountSize)
	if err != nil {
		return 0, errors.Wrapf(err, "array count at %d", off)
	}
	h.buf = buf
	return off, nil
}

// PushBinaryArray writes a count followed by the given offsets. An empty
// array is not written and yields offset 0.
func (h *HeapWriter) PushBinaryArray(offsets []uint64) (uint64, error) {
	if len(offsets) == 0 {
		return 0, nil
	}
	off, err := h.PushArrayCount(len(offsets))
	if err != nil {
		return 0, err
	}
	for _, o := range offsets {
		if _, err := h.PushPointer(o); err != nil {
			return 0, err
		}
	}
	return off, nil
}

func (h *HeapWriter) pushRaw(b []byte) uint64 {
	off := h.Len()
	h.buf = append(h.buf, b...)
	return off
}

// appendUint appends the low width bytes of v, least significant first
func appendUint(dst []byte, v uint64, width int) ([]byte, error) {
	if width < 8 && v>>(8*uint(width)) != 0 {
		return nil, errors.AssertionFailedf("value %d does not fit in %d bytes", v, width)
	}
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst, nil
}
