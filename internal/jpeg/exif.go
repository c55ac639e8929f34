package jpeg

import (
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
)

var exifIdentifier = []byte("Exif\x00\x00")

func (f *File) exifSegment() *Segment {
	return f.findSegment(markerAPP1, exifIdentifier)
}

// ExifPayload returns the TIFF stream embedded in the first EXIF APP1
// segment, without the Exif\0\0 identifier. Offsets inside the stream are
// relative to its own start.
func (f *File) ExifPayload() ([]byte, bool) {
	s := f.exifSegment()
	if s == nil {
		return nil, false
	}
	return s.Payload[len(exifIdentifier):], true
}

// ReadExif parses the embedded EXIF directory forest. Returns nil without
// error when the stream has no EXIF segment.
func (f *File) ReadExif() (*tiff.Contents, error) {
	payload, ok := f.ExifPayload()
	if !ok {
		return nil, nil
	}
	return tiff.Read(payload)
}

// SetExif serializes the output set and replaces the EXIF APP1 segment,
// inserting one after the leading APP0 run when the stream has none.
func (f *File) SetExif(set *tiff.OutputSet) error {
	stream, err := tiff.Write(set)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, len(exifIdentifier)+len(stream))
	payload = append(payload, exifIdentifier...)
	payload = append(payload, stream...)
	if len(payload) > maxSegmentPayload {
		return meta.ErrExifTooLarge
	}
	if s := f.exifSegment(); s != nil {
		s.Payload = payload
		s.PayloadOffset = -1
		return nil
	}
	f.insertAt(f.afterApp0(), &Segment{Marker: markerAPP1, Payload: payload, PayloadOffset: -1})
	return nil
}

// RemoveExif drops the EXIF APP1 segment, if any.
func (f *File) RemoveExif() {
	for i, s := range f.Segments {
		if s == f.exifSegment() {
			f.Segments = append(f.Segments[:i], f.Segments[i+1:]...)
			return
		}
	}
}

// SetOrientation rewrites the orientation value inside an existing EXIF
// segment without relaying out the stream. On success the returned copy
// differs from data in the orientation bytes only. Callers fall back to a
// full EXIF rewrite when it reports false.
func SetOrientation(data []byte, orientation meta.Orientation) ([]byte, bool) {
	f, err := Parse(data)
	if err != nil {
		return nil, false
	}
	s := f.exifSegment()
	if s == nil || s.PayloadOffset < 0 {
		return nil, false
	}
	out := append([]byte(nil), data...)
	start := s.PayloadOffset + len(exifIdentifier)
	end := s.PayloadOffset + len(s.Payload)
	if !tiff.PatchOrientation(out[start:end], orientation) {
		return nil, false
	}
	return out, true
}
