// Package xmp edits XMP packets at the property level. It models the packet
// as a flat set of rdf:Description properties plus rdf:Bag/rdf:Seq arrays and
// regenerates the packet on serialization, so unknown properties of an
// incoming packet are carried over verbatim but re-ordered into the sorted
// canonical form.
package xmp

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Editor is the property-level capability the update coordinator needs. The
// coordinator never touches packet syntax.
type Editor interface {
	SetOrientation(orientation int)
	SetDateTimeOriginal(iso string)
	DeleteDateTimeOriginal()
	SetGpsCoordinates(latDdm, lonDdm string)
	DeleteGpsCoordinates()
	SetRating(rating int)
	SetKeywords(keywords []string)
	SetPersonsInImage(persons []string)
	Serialize(writePacketWrapper bool) string
}

var namespaces = map[string]string{
	"dc":   "http://purl.org/dc/elements/1.1/",
	"exif": "http://ns.adobe.com/exif/1.0/",
	"tiff": "http://ns.adobe.com/tiff/1.0/",
	"xmp":  "http://ns.adobe.com/xap/1.0/",
	"MP":   "http://ns.microsoft.com/photo/1.2/",
}

const (
	propOrientation      = "tiff:Orientation"
	propDateTimeOriginal = "exif:DateTimeOriginal"
	propGpsLatitude      = "exif:GPSLatitude"
	propGpsLongitude     = "exif:GPSLongitude"
	propGpsVersion       = "exif:GPSVersionID"
	propRating           = "xmp:Rating"
	arraySubject         = "dc:subject"
	arrayPersons         = "MP:RegionPersonDisplayName"
)

// arrayKinds names the rdf collection element for each known array property.
var arrayKinds = map[string]string{
	arraySubject: "rdf:Bag",
	arrayPersons: "rdf:Seq",
}

// Document is a parsed XMP packet.
type Document struct {
	props  map[string]string
	arrays map[string][]string
}

func Empty() *Document {
	return &Document{
		props:  make(map[string]string),
		arrays: make(map[string][]string),
	}
}

var (
	attrPattern    = regexp.MustCompile(`([A-Za-z]+:[A-Za-z]+)\s*=\s*"([^"]*)"`)
	elementPattern = regexp.MustCompile(`<([A-Za-z]+:[A-Za-z]+)\s*>([^<]*)</`)
	arrayPattern   = regexp.MustCompile(`(?s)<([A-Za-z]+:[A-Za-z]+)\s*>\s*<rdf:(Bag|Seq|Alt)\s*>(.*?)</rdf:(?:Bag|Seq|Alt)>`)
	itemPattern    = regexp.MustCompile(`<rdf:li[^>]*>([^<]*)</rdf:li>`)
)

// Parse extracts every prefixed simple property (attribute or element form)
// and every rdf:Bag/Seq/Alt array from a packet. It is deliberately tolerant:
// other structures are dropped rather than failing the read, matching how
// camera-written packets vary.
func Parse(packet string) *Document {
	doc := Empty()
	for _, m := range arrayPattern.FindAllStringSubmatch(packet, -1) {
		name := m[1]
		var items []string
		for _, im := range itemPattern.FindAllStringSubmatch(m[3], -1) {
			items = append(items, unescape(im[1]))
		}
		doc.arrays[name] = items
	}
	for _, m := range elementPattern.FindAllStringSubmatch(packet, -1) {
		if strings.HasPrefix(m[1], "rdf:") {
			continue
		}
		if _, isArray := doc.arrays[m[1]]; !isArray {
			doc.props[m[1]] = unescape(strings.TrimSpace(m[2]))
		}
	}
	for _, m := range attrPattern.FindAllStringSubmatch(packet, -1) {
		name := m[1]
		if strings.HasPrefix(name, "xmlns:") || strings.HasPrefix(name, "rdf:") ||
			strings.HasPrefix(name, "x:") {
			continue
		}
		doc.props[name] = unescape(m[2])
	}
	return doc
}

func (d *Document) Property(name string) (string, bool) {
	v, ok := d.props[name]
	return v, ok
}

func (d *Document) Array(name string) []string {
	return d.arrays[name]
}

func (d *Document) SetOrientation(orientation int) {
	d.props[propOrientation] = strconv.Itoa(orientation)
}

func (d *Document) SetDateTimeOriginal(iso string) {
	d.props[propDateTimeOriginal] = iso
}

func (d *Document) DeleteDateTimeOriginal() {
	delete(d.props, propDateTimeOriginal)
}

func (d *Document) SetGpsCoordinates(latDdm, lonDdm string) {
	d.props[propGpsVersion] = "2.3.0.0"
	d.props[propGpsLatitude] = latDdm
	d.props[propGpsLongitude] = lonDdm
}

func (d *Document) DeleteGpsCoordinates() {
	delete(d.props, propGpsVersion)
	delete(d.props, propGpsLatitude)
	delete(d.props, propGpsLongitude)
}

func (d *Document) SetRating(rating int) {
	d.props[propRating] = strconv.Itoa(rating)
}

func (d *Document) SetKeywords(keywords []string) {
	d.arrays[arraySubject] = sortedCopy(keywords)
}

func (d *Document) SetPersonsInImage(persons []string) {
	d.arrays[arrayPersons] = sortedCopy(persons)
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

const packetTrailer = `<?xpacket end="w"?>`

// Serialize emits the compact, sorted packet form. The xpacket wrapper is
// written for sidecar files and omitted when the packet is embedded in a
// JPEG or JXL segment.
func (d *Document) Serialize(writePacketWrapper bool) string {
	var b strings.Builder
	if writePacketWrapper {
		b.WriteString("<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>")
	}
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`)
	b.WriteString(`<rdf:Description rdf:about=""`)
	for _, prefix := range usedPrefixes(d) {
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, prefix, namespaces[prefix])
	}
	for _, name := range sortedKeys(d.props) {
		fmt.Fprintf(&b, ` %s="%s"`, name, escape(d.props[name]))
	}
	arrayNames := sortedKeys(d.arrays)
	if len(arrayNames) == 0 {
		b.WriteString("/>")
	} else {
		b.WriteString(">")
		for _, name := range arrayNames {
			kind := arrayKinds[name]
			if kind == "" {
				kind = "rdf:Bag"
			}
			fmt.Fprintf(&b, "<%s><%s>", name, kind)
			for _, item := range d.arrays[name] {
				fmt.Fprintf(&b, "<rdf:li>%s</rdf:li>", escape(item))
			}
			fmt.Fprintf(&b, "</%s></%s>", kind, name)
		}
		b.WriteString("</rdf:Description>")
	}
	b.WriteString(`</rdf:RDF></x:xmpmeta>`)
	if writePacketWrapper {
		b.WriteString(packetTrailer)
	}
	return b.String()
}

func usedPrefixes(d *Document) []string {
	seen := map[string]bool{}
	add := func(name string) {
		prefix := strings.SplitN(name, ":", 2)[0]
		if _, known := namespaces[prefix]; known {
			seen[prefix] = true
		}
	}
	for name := range d.props {
		add(name)
	}
	for name := range d.arrays {
		add(name)
	}
	out := make([]string, 0, len(seen))
	for prefix := range seen {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var unescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&amp;", "&",
)

func escape(s string) string {
	return escaper.Replace(s)
}

func unescape(s string) string {
	return unescaper.Replace(s)
}
