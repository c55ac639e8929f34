package bytesio

import "encoding/binary"

// Writer accumulates an output stream in memory. Offsets handed out by the
// TIFF layout phase index into the final buffer, so the writer never flushes
// partially.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Write(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *Writer) WriteUint16(v uint16, order binary.ByteOrder) {
	var b [2]byte
	order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32, order binary.ByteOrder) {
	var b [4]byte
	order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64, order binary.ByteOrder) {
	var b [8]byte
	order.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
