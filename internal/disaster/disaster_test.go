package disaster

import (
	"testing"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want models.DisasterType
	}{
		{"1", models.DisasterFlood},
		{" 2 ", models.DisasterFire},
		{"6", models.DisasterOther},
		{"7", models.DisasterOther},
		{"0", models.DisasterOther},
		{"Banjir bandang", models.DisasterFlood},
		{"rumah terbakar", models.DisasterFire},
		{"KEBAKARAN hutan", models.DisasterFire},
		{"tanah longsor", models.DisasterLandslide},
		{"angin kencang", models.DisasterStrongWind},
		{"ada puting beliung", models.DisasterStrongWind},
		{"gempa bumi", models.DisasterEarthquake},
		{"pohon tumbang", models.DisasterOther},
		{"", models.DisasterOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyAlwaysValid(t *testing.T) {
	for _, in := range []string{"", "-1", "99", "???", "banjir dan gempa"} {
		if got := Classify(in); !got.IsValid() {
			t.Errorf("Classify(%q) returned undefined category %q", in, got)
		}
	}
}

func TestFormatChoices(t *testing.T) {
	want := "1. banjir\n2. kebakaran\n3. longsor\n4. angin kencang\n5. gempa\n6. lainnya"
	if got := FormatChoices(); got != want {
		t.Errorf("FormatChoices() = %q, want %q", got, want)
	}
}
