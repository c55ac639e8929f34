package tiff

import (
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// PatchOrientation rewrites the IFD0 orientation value inside data without
// relaying out the stream. The entry's value word is inline (SHORT, count 1),
// so the edit touches exactly two bytes. Returns false when the stream does
// not parse or carries no patchable orientation field.
func PatchOrientation(data []byte, orientation meta.Orientation) bool {
	contents, err := Read(data)
	if err != nil {
		return false
	}
	dir := contents.FindDirectory(DirIFD0)
	if dir == nil {
		return false
	}
	f := dir.FindField(TagOrientation)
	if f == nil || f.Type != TypeShort || f.Count != 1 {
		return false
	}
	pos := int(dir.Offset) + 2 + 12*f.EntryIndex + 8
	if pos < 0 || pos+2 > len(data) {
		return false
	}
	f.Order.PutUint16(data[pos:], uint16(orientation))
	return true
}
