package jpeg

var photoshopIdentifier = []byte("Photoshop 3.0\x00")

// PhotoshopBlock returns the image resource block data of the APP13 segment,
// without the Photoshop 3.0 identifier.
func (f *File) PhotoshopBlock() ([]byte, bool) {
	s := f.findSegment(markerAPP13, photoshopIdentifier)
	if s == nil {
		return nil, false
	}
	return s.Payload[len(photoshopIdentifier):], true
}

// SetPhotoshopBlock replaces the APP13 image resource block data, inserting a
// new segment after the APP1 run when the stream carries none.
func (f *File) SetPhotoshopBlock(irb []byte) {
	payload := make([]byte, 0, len(photoshopIdentifier)+len(irb))
	payload = append(payload, photoshopIdentifier...)
	payload = append(payload, irb...)
	if s := f.findSegment(markerAPP13, photoshopIdentifier); s != nil {
		s.Payload = payload
		s.PayloadOffset = -1
		return
	}
	f.insertAt(f.afterApp1(), &Segment{Marker: markerAPP13, Payload: payload, PayloadOffset: -1})
}
