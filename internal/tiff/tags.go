package tiff

import "fmt"

// Tags used by the reader, writer and update coordinator. Exif 2.3 and
// TIFF 6.0 unless noted.
const (
	TagImageWidth                  uint16 = 0x0100
	TagImageLength                 uint16 = 0x0101
	TagBitsPerSample               uint16 = 0x0102
	TagCompression                 uint16 = 0x0103
	TagImageDescription            uint16 = 0x010E
	TagMake                        uint16 = 0x010F
	TagModel                       uint16 = 0x0110
	TagStripOffsets                uint16 = 0x0111
	TagOrientation                 uint16 = 0x0112
	TagStripByteCounts             uint16 = 0x0117
	TagXResolution                 uint16 = 0x011A
	TagYResolution                 uint16 = 0x011B
	TagResolutionUnit              uint16 = 0x0128
	TagSoftware                    uint16 = 0x0131
	TagDateTime                    uint16 = 0x0132
	TagArtist                      uint16 = 0x013B
	TagSubIFDs                     uint16 = 0x014A // TIFF supplement 1
	TagJPEGInterchangeFormat       uint16 = 0x0201
	TagJPEGInterchangeFormatLength uint16 = 0x0202
	TagXMP                         uint16 = 0x02BC // XMP part 3
	TagCopyright                   uint16 = 0x8298
	TagIPTC                        uint16 = 0x83BB
	TagExifOffset                  uint16 = 0x8769
	TagGpsInfo                     uint16 = 0x8825
	TagExposureTime                uint16 = 0x829A
	TagFNumber                     uint16 = 0x829D
	TagIsoSpeedRatings             uint16 = 0x8827
	TagDateTimeOriginal            uint16 = 0x9003
	TagDateTimeDigitized           uint16 = 0x9004
	TagMakerNote                   uint16 = 0x927C
	TagUserComment                 uint16 = 0x9286
	TagSubSecTimeOriginal          uint16 = 0x9291
	TagExifImageWidth              uint16 = 0xA002
	TagExifImageHeight             uint16 = 0xA003
	TagInteropOffset               uint16 = 0xA005

	TagGpsVersionID     uint16 = 0x0000
	TagGpsLatitudeRef   uint16 = 0x0001
	TagGpsLatitude      uint16 = 0x0002
	TagGpsLongitudeRef  uint16 = 0x0003
	TagGpsLongitude     uint16 = 0x0004
	TagGpsAltitudeRef   uint16 = 0x0005
	TagGpsAltitude      uint16 = 0x0006
	TagGpsTimeStamp     uint16 = 0x0007
	TagGpsDateStamp     uint16 = 0x001D
	TagGpsProcessMethod uint16 = 0x001B
)

var tagNames = map[uint16]string{
	TagImageWidth:                  "ImageWidth",
	TagImageLength:                 "ImageLength",
	TagBitsPerSample:               "BitsPerSample",
	TagCompression:                 "Compression",
	TagImageDescription:            "ImageDescription",
	TagMake:                        "Make",
	TagModel:                       "Model",
	TagStripOffsets:                "StripOffsets",
	TagOrientation:                 "Orientation",
	TagStripByteCounts:             "StripByteCounts",
	TagXResolution:                 "XResolution",
	TagYResolution:                 "YResolution",
	TagResolutionUnit:              "ResolutionUnit",
	TagSoftware:                    "Software",
	TagDateTime:                    "DateTime",
	TagArtist:                      "Artist",
	TagSubIFDs:                     "SubIFDs",
	TagJPEGInterchangeFormat:       "JPEGInterchangeFormat",
	TagJPEGInterchangeFormatLength: "JPEGInterchangeFormatLength",
	TagXMP:                         "XMP",
	TagCopyright:                   "Copyright",
	TagIPTC:                        "IPTC",
	TagExifOffset:                  "ExifOffset",
	TagGpsInfo:                     "GPSInfo",
	TagExposureTime:                "ExposureTime",
	TagFNumber:                     "FNumber",
	TagIsoSpeedRatings:             "ISOSpeedRatings",
	TagDateTimeOriginal:            "DateTimeOriginal",
	TagDateTimeDigitized:           "DateTimeDigitized",
	TagMakerNote:                   "MakerNote",
	TagUserComment:                 "UserComment",
	TagSubSecTimeOriginal:          "SubSecTimeOriginal",
	TagExifImageWidth:              "ExifImageWidth",
	TagExifImageHeight:             "ExifImageHeight",
	TagInteropOffset:               "InteropOffset",
}

var gpsTagNames = map[uint16]string{
	TagGpsVersionID:     "GPSVersionID",
	TagGpsLatitudeRef:   "GPSLatitudeRef",
	TagGpsLatitude:      "GPSLatitude",
	TagGpsLongitudeRef:  "GPSLongitudeRef",
	TagGpsLongitude:     "GPSLongitude",
	TagGpsAltitudeRef:   "GPSAltitudeRef",
	TagGpsAltitude:      "GPSAltitude",
	TagGpsTimeStamp:     "GPSTimeStamp",
	TagGpsDateStamp:     "GPSDateStamp",
	TagGpsProcessMethod: "GPSProcessingMethod",
}

// TagName renders a display name for a tag within a directory type.
func TagName(dirType int, tag uint16) string {
	var name string
	var found bool
	if dirType == DirGPS {
		name, found = gpsTagNames[tag]
	} else {
		name, found = tagNames[tag]
	}
	if !found {
		return fmt.Sprintf("0x%04X", tag)
	}
	return name
}

// offsetTags are the offset-carrying tags the writer synthesises. Callers
// must never materialise them in an output set.
var offsetTags = map[uint16]bool{
	TagExifOffset:                  true,
	TagGpsInfo:                     true,
	TagInteropOffset:               true,
	TagSubIFDs:                     true,
	TagJPEGInterchangeFormat:       true,
	TagJPEGInterchangeFormatLength: true,
}

func IsOffsetTag(tag uint16) bool {
	return offsetTags[tag]
}
