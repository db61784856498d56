package binary

import (
	"bytes"
	"io"

	"fortio.org/safecast"

	"github.com/conduit-lang/metagen/compiler/errors"
)

// Reader reads primitives from a heap at explicit offsets. It mirrors
// HeapWriter and shares its byte order and widths.
type Reader struct {
	data   []byte
	layout Layout
	pos    uint64
}

// NewReader creates a reader positioned at offset 0 of data
func NewReader(data []byte, layout Layout) *Reader {
	return &Reader{data: data, layout: layout}
}

// Seek moves the read position to off
func (r *Reader) Seek(off uint64) error {
	if off > uint64(len(r.data)) {
		return errors.Wrapf(io.ErrUnexpectedEOF, "seek to %d past heap end %d", off, len(r.data))
	}
	r.pos = off
	return nil
}

// Position returns the current read position
func (r *Reader) Position() uint64 { return r.pos }

// ReadByte reads one byte
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadShort reads a 2-byte integer
func (r *Reader) ReadShort() (int16, error) {
	v, err := r.readUint(2)
	return int16(v), err
}

// ReadInt reads a 4-byte integer
func (r *Reader) ReadInt() (int32, error) {
	v, err := r.readUint(4)
	return int32(v), err
}

// ReadPointer reads an offset using the pointer width
func (r *Reader) ReadPointer() (uint64, error) {
	return r.readUint(r.layout.PointerSize)
}

// ReadArrayCount reads an element count using the array count width
func (r *Reader) ReadArrayCount() (int, error) {
	v, err := r.readUint(r.layout.ArrayCountSize)
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, errors.Wrapf(err, "array count at %d", r.pos)
	}
	return n, nil
}

// ReadString reads the NUL-terminated string starting at off without moving
// the read position.
func (r *Reader) ReadString(off uint64) (string, error) {
	if off >= uint64(len(r.data)) {
		return "", errors.Wrapf(io.ErrUnexpectedEOF, "string at %d", off)
	}
	end := bytes.IndexByte(r.data[off:], 0)
	if end < 0 {
		return "", errors.Wrapf(io.ErrUnexpectedEOF, "unterminated string at %d", off)
	}
	return string(r.data[off : off+uint64(end)]), nil
}

// ReadBinaryArray reads the count and offsets of the array at off without
// moving the read position. Offset 0 is the empty array.
func (r *Reader) ReadBinaryArray(off uint64) ([]uint64, error) {
	if off == 0 {
		return nil, nil
	}
	saved := r.pos
	defer func() { r.pos = saved }()

	if err := r.Seek(off); err != nil {
		return nil, err
	}
	n, err := r.ReadArrayCount()
	if err != nil {
		return nil, err
	}
	if rest := uint64(len(r.data)) - r.pos; uint64(n) > rest/uint64(r.layout.PointerSize) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "array of %d elements at %d", n, off)
	}
	out := make([]uint64, n)
	for i := range out {
		if out[i], err = r.ReadPointer(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Remaining returns the number of bytes after the read position
func (r *Reader) Remaining() uint64 {
	if r.pos >= uint64(len(r.data)) {
		return 0
	}
	return uint64(len(r.data)) - r.pos
}

func (r *Reader) next(n int) ([]byte, error) {
	end := r.pos + uint64(n)
	if end > uint64(len(r.data)) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "reading %d bytes at %d", n, r.pos)
	}
	b := r.data[r.pos:end]
	r.pos = end
	return b, nil
}

// readUint reads width bytes, least significant first
func (r *Reader) readUint(width int) (uint64, error) {
	b, err := r.next(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
