package tiff

// FieldType is a TIFF field data type, numbered as in the TIFF spec.
type FieldType uint16

const (
	TypeByte      FieldType = 1
	TypeAscii     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
	TypeFloat     FieldType = 11
	TypeDouble    FieldType = 12
	TypeIFD       FieldType = 13 // TIFF supplement 1
)

var fieldTypeNames = map[FieldType]string{
	TypeByte:      "Byte",
	TypeAscii:     "ASCII",
	TypeShort:     "Short",
	TypeLong:      "Long",
	TypeRational:  "Rational",
	TypeSByte:     "SByte",
	TypeUndefined: "Undefined",
	TypeSShort:    "SShort",
	TypeSLong:     "SLong",
	TypeSRational: "SRational",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
	TypeIFD:       "IFD",
}

var fieldTypeSizes = map[FieldType]uint32{
	TypeByte:      1,
	TypeAscii:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
	TypeIFD:       4,
}

func (t FieldType) Name() string {
	if name, found := fieldTypeNames[t]; found {
		return name
	}
	return "Unknown"
}

// Size returns the byte size of a single element, or 0 for unknown types.
func (t FieldType) Size() uint32 {
	return fieldTypeSizes[t]
}

func (t FieldType) Valid() bool {
	_, found := fieldTypeSizes[t]
	return found
}

func (t FieldType) IsIntegral() bool {
	return t == TypeByte || t == TypeShort || t == TypeLong ||
		t == TypeSByte || t == TypeSShort || t == TypeSLong
}

func (t FieldType) IsRational() bool {
	return t == TypeRational || t == TypeSRational
}

func (t FieldType) IsFloat() bool {
	return t == TypeFloat || t == TypeDouble
}
