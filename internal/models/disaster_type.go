package models

// DisasterType is one of the closed set of report categories.
type DisasterType string

const (
	DisasterFlood      DisasterType = "banjir"
	DisasterFire       DisasterType = "kebakaran"
	DisasterLandslide  DisasterType = "longsor"
	DisasterStrongWind DisasterType = "angin kencang"
	DisasterEarthquake DisasterType = "gempa"
	// DisasterOther is the catch-all category.
	DisasterOther DisasterType = "lainnya"
)

// DisasterTypes lists the categories in the order they are offered to reporters.
var DisasterTypes = []DisasterType{
	DisasterFlood,
	DisasterFire,
	DisasterLandslide,
	DisasterStrongWind,
	DisasterEarthquake,
	DisasterOther,
}

// IsValid reports whether t is one of the known categories.
func (t DisasterType) IsValid() bool {
	for _, known := range DisasterTypes {
		if known == t {
			return true
		}
	}
	return false
}
