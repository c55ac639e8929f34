package jpeg

var xmpIdentifier = []byte("http://ns.adobe.com/xap/1.0/\x00")

// Xmp returns the XMP packet carried in the first XMP APP1 segment.
func (f *File) Xmp() (string, bool) {
	s := f.findSegment(markerAPP1, xmpIdentifier)
	if s == nil {
		return "", false
	}
	return string(s.Payload[len(xmpIdentifier):]), true
}

// SetXmpXml replaces the XMP APP1 payload, inserting a new segment after the
// EXIF APP1 when the stream carries no XMP yet.
func (f *File) SetXmpXml(xml string) {
	payload := make([]byte, 0, len(xmpIdentifier)+len(xml))
	payload = append(payload, xmpIdentifier...)
	payload = append(payload, xml...)
	if s := f.findSegment(markerAPP1, xmpIdentifier); s != nil {
		s.Payload = payload
		s.PayloadOffset = -1
		return
	}
	f.insertAt(f.afterExif(), &Segment{Marker: markerAPP1, Payload: payload, PayloadOffset: -1})
}
