package update

import (
	"fmt"
	"math"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
)

// FormatDdm renders a decimal coordinate as degrees and decimal minutes, the
// form XMP expects: 53.219391 becomes "53,13.1635N". Zero maps to the
// positive hemisphere.
func FormatDdm(value float64, positive, negative byte) string {
	hemisphere := positive
	if value < 0 {
		hemisphere = negative
		value = -value
	}
	degrees := math.Floor(value)
	minutes := (value - degrees) * 60
	return fmt.Sprintf("%d,%.4f%c", int(degrees), minutes, hemisphere)
}

// gpsRationals is the EXIF rational triple for the same coordinate, seconds
// folded into the minutes term.
func gpsRationals(value float64) []tiff.Rational {
	value = math.Abs(value)
	degrees := math.Floor(value)
	minutes := (value - degrees) * 60
	return []tiff.Rational{
		{Num: uint32(degrees), Den: 1},
		{Num: uint32(math.Round(minutes * 10000)), Den: 10000},
		{Num: 0, Den: 1},
	}
}
