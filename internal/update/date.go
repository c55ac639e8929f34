package update

import (
	"time"
)

const (
	isoDateTimeLayout  = "2006-01-02T15:04:05.000"
	exifDateTimeLayout = "2006:01:02 15:04:05"
)

// isoDateTime renders epoch milliseconds as a local ISO-8601 date-time
// without a zone suffix, the form XMP stores.
func isoDateTime(millis int64, zone *time.Location) string {
	return time.UnixMilli(millis).In(zone).Format(isoDateTimeLayout)
}

// exifDateTime renders the same instant in the colon-separated EXIF form,
// with the millisecond remainder as the SubSecTimeOriginal digits.
func exifDateTime(millis int64, zone *time.Location) (dateTime, subSec string) {
	t := time.UnixMilli(millis).In(zone)
	return t.Format(exifDateTimeLayout), t.Format(".000")[1:]
}
