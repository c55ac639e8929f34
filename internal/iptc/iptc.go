// Package iptc reads and edits IPTC IIM records stored inside a Photoshop
// image resource block. Only the IPTC resource (0x0404) is rewritten; all
// other resources of the block are carried over byte for byte.
package iptc

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

const (
	irbSignature   = "8BIM"
	iptcResourceID = 0x0404

	recordMarker = 0x1C

	recordEnvelope    = 1
	recordApplication = 2

	dataSetCodedCharacterSet = 90
	dataSetKeywords          = 25
)

// utf8Marker is the ISO 2022 escape sequence announcing UTF-8 text in the
// envelope coded character set dataset.
var utf8Marker = []byte{0x1B, 0x25, 0x47}

// Record is a single IIM dataset.
type Record struct {
	Record  uint8
	DataSet uint8
	Data    []byte
}

// Block is one Photoshop image resource.
type Block struct {
	ResourceID uint16
	Name       string
	Data       []byte
}

// ParseBlocks splits a Photoshop image resource block sequence into its
// resources.
func ParseBlocks(data []byte) ([]Block, error) {
	r := bytesio.NewReader(data)
	var blocks []Block
	for r.Available() > 0 {
		sig, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if string(sig) != irbSignature {
			return nil, meta.InvalidValueError{Reason: fmt.Sprintf("resource block signature %q", sig)}
		}
		id, err := r.ReadUint16(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		name, err := readPascalString(r)
		if err != nil {
			return nil, err
		}
		size, err := r.ReadUint32(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		if size%2 == 1 {
			if err := r.Skip(1); err != nil {
				return nil, err
			}
		}
		blocks = append(blocks, Block{
			ResourceID: id,
			Name:       name,
			Data:       append([]byte(nil), payload...),
		})
	}
	return blocks, nil
}

// readPascalString reads a length-prefixed name padded to an even total size
// including the length byte.
func readPascalString(r *bytesio.Reader) (string, error) {
	length, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	name, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	if length%2 == 0 {
		if err := r.Skip(1); err != nil {
			return "", err
		}
	}
	return string(name), nil
}

// SerializeBlocks emits the resource sequence in its stored order.
func SerializeBlocks(blocks []Block) []byte {
	w := bytesio.NewWriter()
	for _, block := range blocks {
		w.Write([]byte(irbSignature))
		w.WriteUint16(block.ResourceID, binary.BigEndian)
		writePascalString(w, block.Name)
		w.WriteUint32(uint32(len(block.Data)), binary.BigEndian)
		w.Write(block.Data)
		if len(block.Data)%2 == 1 {
			w.WriteByte(0)
		}
	}
	return w.Bytes()
}

func writePascalString(w *bytesio.Writer, name string) {
	w.WriteByte(byte(len(name)))
	w.Write([]byte(name))
	if len(name)%2 == 0 {
		w.WriteByte(0)
	}
}

// ParseRecords decodes an IIM dataset stream. Extended datasets (length word
// with the high bit set) are not produced by the writers this package deals
// with and are rejected.
func ParseRecords(data []byte) ([]Record, error) {
	r := bytesio.NewReader(data)
	var records []Record
	for r.Available() > 0 {
		marker, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if marker != recordMarker {
			return nil, meta.InvalidValueError{Reason: fmt.Sprintf("IIM record marker 0x%02X", marker)}
		}
		recordNumber, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		dataSet, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadUint16(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		if length&0x8000 != 0 {
			return nil, meta.InvalidValueError{Reason: "extended IIM dataset"}
		}
		payload, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Record:  recordNumber,
			DataSet: dataSet,
			Data:    append([]byte(nil), payload...),
		})
	}
	return records, nil
}

// SerializeRecords emits the dataset stream in record order.
func SerializeRecords(records []Record) []byte {
	w := bytesio.NewWriter()
	for _, record := range records {
		w.WriteByte(recordMarker)
		w.WriteByte(record.Record)
		w.WriteByte(record.DataSet)
		w.WriteUint16(uint16(len(record.Data)), binary.BigEndian)
		w.Write(record.Data)
	}
	return w.Bytes()
}

// Keywords returns the 2:25 keyword datasets of an IIM stream.
func Keywords(records []Record) []string {
	var keywords []string
	for _, record := range records {
		if record.Record == recordApplication && record.DataSet == dataSetKeywords {
			keywords = append(keywords, string(record.Data))
		}
	}
	return keywords
}

// SetKeywords replaces all keyword datasets with the given set, sorted. When
// the set is non-empty and the stream has no coded character set dataset
// (1:90), a UTF-8 one is prepended; an existing 1:90 dataset is kept as it
// is. Record order is kept stable otherwise:
// new datasets go where the first keyword sat, or at the end of the stream.
func SetKeywords(records []Record, keywords []string) []Record {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)

	insertAt := -1
	out := make([]Record, 0, len(records)+len(sorted)+1)
	for _, record := range records {
		if record.Record == recordApplication && record.DataSet == dataSetKeywords {
			if insertAt < 0 {
				insertAt = len(out)
			}
			continue
		}
		out = append(out, record)
	}
	if insertAt < 0 {
		insertAt = len(out)
	}

	inserted := make([]Record, 0, len(sorted))
	for _, keyword := range sorted {
		inserted = append(inserted, Record{
			Record:  recordApplication,
			DataSet: dataSetKeywords,
			Data:    []byte(keyword),
		})
	}
	out = append(out[:insertAt], append(inserted, out[insertAt:]...)...)

	if len(sorted) > 0 && !hasUtf8Marker(out) {
		out = append([]Record{{
			Record:  recordEnvelope,
			DataSet: dataSetCodedCharacterSet,
			Data:    append([]byte(nil), utf8Marker...),
		}}, out...)
	}
	return out
}

func hasUtf8Marker(records []Record) bool {
	for _, record := range records {
		if record.Record == recordEnvelope && record.DataSet == dataSetCodedCharacterSet {
			return true
		}
	}
	return false
}

// IptcBlock returns the IIM payload of the 0x0404 resource.
func IptcBlock(blocks []Block) ([]byte, bool) {
	for _, block := range blocks {
		if block.ResourceID == iptcResourceID {
			return block.Data, true
		}
	}
	return nil, false
}

// SetIptcBlock replaces the 0x0404 resource payload, appending the resource
// when the sequence has none.
func SetIptcBlock(blocks []Block, data []byte) []Block {
	out := append([]Block(nil), blocks...)
	for i := range out {
		if out[i].ResourceID == iptcResourceID {
			out[i].Data = data
			return out
		}
	}
	return append(out, Block{ResourceID: iptcResourceID, Data: data})
}
