// Package disaster maps reporter answers onto the fixed set of disaster categories.
package disaster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// keywords is checked in order; the first substring hit wins.
var keywords = []struct {
	needle string
	kind   models.DisasterType
}{
	{"banjir", models.DisasterFlood},
	{"kebakar", models.DisasterFire},
	{"terbakar", models.DisasterFire},
	{"longsor", models.DisasterLandslide},
	{"angin kencang", models.DisasterStrongWind},
	{"puting beliung", models.DisasterStrongWind},
	{"badai", models.DisasterStrongWind},
	{"gempa", models.DisasterEarthquake},
}

// Classify resolves a numbered choice or free text to a category. It never
// fails: anything unrecognized, including empty input, is DisasterOther.
func Classify(input string) models.DisasterType {
	text := strings.ToLower(strings.TrimSpace(input))
	if n, err := strconv.Atoi(text); err == nil {
		if t, ok := FromChoice(n); ok {
			return t
		}
	}
	for _, k := range keywords {
		if strings.Contains(text, k.needle) {
			return k.kind
		}
	}
	return models.DisasterOther
}

// FromChoice returns the category numbered n (1-based) in the offered list.
func FromChoice(n int) (models.DisasterType, bool) {
	if n < 1 || n > len(models.DisasterTypes) {
		return "", false
	}
	return models.DisasterTypes[n-1], true
}

// FormatChoices renders the numbered category list shown to reporters.
func FormatChoices() string {
	lines := make([]string, len(models.DisasterTypes))
	for i, t := range models.DisasterTypes {
		lines[i] = fmt.Sprintf("%d. %s", i+1, t)
	}
	return strings.Join(lines, "\n")
}
