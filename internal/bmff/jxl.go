package bmff

import (
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
)

// JPEG XL container boxes. The Exif payload starts with a 4-byte word (one
// version byte, three flag bytes) before the TIFF stream; xml carries the
// XMP packet bare; brob wraps a brotli-compressed box and is passed through
// opaquely.
const (
	boxExif = "Exif"
	boxXML  = "xml "
	boxBrob = "brob"
	boxFtyp = "ftyp"
)

// IsJXL reports whether data is a JPEG XL container (jxl brand) or a naked
// JPEG XL codestream.
func IsJXL(data []byte) bool {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0x0A {
		return true
	}
	return IsBMFF(data) && len(data) >= 12 && string(data[8:12]) == "jxl "
}

// ExifPayload returns the TIFF stream of the top-level Exif box.
func (f *File) ExifPayload() ([]byte, bool) {
	b := f.Find(boxExif)
	if b == nil || len(b.Payload) < 4 {
		return nil, false
	}
	return b.Payload[4:], true
}

// SetExifPayload reframes the Exif box around a new TIFF stream, inserting
// one after ftyp when the container has none. Returns the new file bytes.
func (f *File) SetExifPayload(stream []byte) []byte {
	payload := make([]byte, 4+len(stream))
	copy(payload[4:], stream)
	if b := f.Find(boxExif); b != nil {
		return f.replaceBox(b, payload)
	}
	return f.insertMetadataBox(boxExif, payload)
}

// Xmp returns the packet of the top-level xml box. A brob-wrapped xml box is
// compressed and reported as absent.
func (f *File) Xmp() (string, bool) {
	b := f.Find(boxXML)
	if b == nil {
		return "", false
	}
	return string(b.Payload), true
}

// SetXmp reframes the xml box around a new packet, inserting one after ftyp
// when the container has none. Returns the new file bytes.
func (f *File) SetXmp(xml string) []byte {
	if b := f.Find(boxXML); b != nil {
		return f.replaceBox(b, []byte(xml))
	}
	return f.insertMetadataBox(boxXML, []byte(xml))
}

func (f *File) insertMetadataBox(boxType string, payload []byte) []byte {
	after := f.Find(boxFtyp)
	if after == nil && len(f.Boxes) > 0 {
		after = f.Boxes[0]
	}
	if after == nil {
		w := bytesio.NewWriter()
		w.Write(f.data)
		appendBox(w, boxType, payload)
		return w.Bytes()
	}
	return f.insertBoxAfter(after, boxType, payload)
}

// HasBrotliWrapped reports whether the container carries a brob box whose
// inner type matches.
func (f *File) HasBrotliWrapped(innerType string) bool {
	for _, b := range f.Boxes {
		if b.Type == boxBrob && len(b.Payload) >= 4 && string(b.Payload[:4]) == innerType {
			return true
		}
	}
	return false
}
