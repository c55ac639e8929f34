package meta

// Orientation is the TIFF orientation value (tag 0x0112).
type Orientation uint16

const (
	OrientationStandard                  Orientation = 1
	OrientationMirrorHorizontal          Orientation = 2
	OrientationRotate180                 Orientation = 3
	OrientationMirrorVertical            Orientation = 4
	OrientationMirrorHorizontalRotate270 Orientation = 5
	OrientationRotateRight               Orientation = 6
	OrientationMirrorHorizontalRotate90  Orientation = 7
	OrientationRotateLeft                Orientation = 8
)

func (o Orientation) Valid() bool {
	return o >= 1 && o <= 8
}

// Update is one of the typed metadata update requests. Each request is
// projected onto the XMP, EXIF and IPTC dialects by the update coordinator;
// dialects for which the request is irrelevant are left untouched.
type Update interface {
	isUpdate()
}

type OrientationUpdate struct {
	Orientation Orientation
}

// TakenDateUpdate sets or clears the date the image was taken,
// as milliseconds since the Unix epoch.
type TakenDateUpdate struct {
	Millis int64
	Clear  bool
}

// GpsUpdate sets or clears the GPS position, in decimal degrees.
type GpsUpdate struct {
	Latitude  float64
	Longitude float64
	Clear     bool
}

// RatingUpdate sets the XMP rating, -1 (rejected) through 5.
type RatingUpdate struct {
	Rating int
}

type KeywordsUpdate struct {
	Keywords []string
}

type PersonsUpdate struct {
	Persons []string
}

func (OrientationUpdate) isUpdate() {}
func (TakenDateUpdate) isUpdate()   {}
func (GpsUpdate) isUpdate()         {}
func (RatingUpdate) isUpdate()      {}
func (KeywordsUpdate) isUpdate()    {}
func (PersonsUpdate) isUpdate()     {}
