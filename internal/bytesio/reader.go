package bytesio

import (
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// Reader is a sequential cursor over a byte buffer. Multi-byte reads take
// an explicit byte order because TIFF streams pick theirs at runtime.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Available() int {
	return len(r.data) - r.pos
}

func (r *Reader) Position() int {
	return r.pos
}

func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("reading byte at %d: %w", r.pos, meta.ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, meta.ErrTruncated)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("skipping %d bytes at %d: %w", n, r.pos, meta.ErrTruncated)
	}
	r.pos += n
	return nil
}

func (r *Reader) ReadUint16(order binary.ByteOrder) (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (r *Reader) ReadUint32(order binary.ByteOrder) (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *Reader) ReadUint64(order binary.ByteOrder) (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// RandomReader adds positioned reads on top of the sequential cursor.
type RandomReader struct {
	Reader
}

func NewRandomReader(data []byte) *RandomReader {
	return &RandomReader{Reader{data: data}}
}

func (r *RandomReader) Length() int {
	return len(r.data)
}

func (r *RandomReader) Reset() {
	r.pos = 0
}

func (r *RandomReader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("seeking to %d in %d bytes: %w", offset, len(r.data), meta.ErrTruncated)
	}
	r.pos = offset
	return nil
}

func (r *RandomReader) ReadBytesAt(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(r.data) {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", length, offset, meta.ErrTruncated)
	}
	return r.data[offset : offset+length], nil
}

func (r *RandomReader) ReadUint16At(offset int, order binary.ByteOrder) (uint16, error) {
	b, err := r.ReadBytesAt(offset, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (r *RandomReader) ReadUint32At(offset int, order binary.ByteOrder) (uint32, error) {
	b, err := r.ReadBytesAt(offset, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// PrePendingReader yields a fixed prefix before the wrapped data, without
// copying the wrapped buffer. RAF parsing uses it to put a JPEG magic number
// in front of the embedded JPEG stream.
type PrePendingReader struct {
	prefix []byte
	data   []byte
	pos    int
}

func NewPrePendingReader(prefix, data []byte) *PrePendingReader {
	return &PrePendingReader{prefix: prefix, data: data}
}

func (r *PrePendingReader) Available() int {
	return len(r.prefix) + len(r.data) - r.pos
}

func (r *PrePendingReader) Position() int {
	return r.pos
}

func (r *PrePendingReader) ReadByte() (byte, error) {
	if r.pos >= len(r.prefix)+len(r.data) {
		return 0, fmt.Errorf("reading byte at %d: %w", r.pos, meta.ErrTruncated)
	}
	var b byte
	if r.pos < len(r.prefix) {
		b = r.prefix[r.pos]
	} else {
		b = r.data[r.pos-len(r.prefix)]
	}
	r.pos++
	return b, nil
}

func (r *PrePendingReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > r.pos+r.Available() {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", n, r.pos, meta.ErrTruncated)
	}
	out := make([]byte, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
