package areas

import (
	"strings"
	"testing"
)

func TestDefaultDistrictBounds(t *testing.T) {
	idx := Default()
	count := idx.DistrictCount()
	if count != 15 {
		t.Fatalf("expected 15 districts, got %d", count)
	}

	if name, ok := idx.DistrictAt(1); !ok || name != "Kapuas" {
		t.Errorf("DistrictAt(1) = %q, %v; want Kapuas", name, ok)
	}
	if name, ok := idx.DistrictAt(count); !ok || name != "Toba" {
		t.Errorf("DistrictAt(%d) = %q, %v; want Toba", count, name, ok)
	}
	if _, ok := idx.DistrictAt(0); ok {
		t.Error("DistrictAt(0) should not be found")
	}
	if _, ok := idx.DistrictAt(count + 1); ok {
		t.Errorf("DistrictAt(%d) should not be found", count+1)
	}
}

func TestSettlementsListUrbanFirst(t *testing.T) {
	idx := Default()
	list := idx.SettlementsOf("kapuas")
	if len(list) != 26 {
		t.Fatalf("expected 26 settlements for Kapuas, got %d", len(list))
	}
	if list[0] != "Beringin" {
		t.Errorf("first settlement = %q, want Beringin", list[0])
	}
	if list[6] != "Belangin" {
		t.Errorf("seventh settlement = %q, want first desa Belangin", list[6])
	}

	list[0] = "mutated"
	if again := idx.SettlementsOf("Kapuas"); again[0] != "Beringin" {
		t.Error("SettlementsOf must return a copy")
	}
}

func TestSettlementAt(t *testing.T) {
	idx := Default()
	tests := []struct {
		district string
		n        int
		want     string
		ok       bool
	}{
		{"Balai", 1, "Bulu Bala", true},
		{"BALAI", 11, "Temiang Taba", true},
		{"Balai", 0, "", false},
		{"Balai", 12, "", false},
		{"Nowhere", 1, "", false},
	}
	for _, tt := range tests {
		got, ok := idx.SettlementAt(tt.district, tt.n)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SettlementAt(%q, %d) = %q, %v; want %q, %v", tt.district, tt.n, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatLists(t *testing.T) {
	idx := NewIndex([]District{
		{Name: "Alpha", Urban: []string{"Kota"}, Villages: []string{"Desa A", "Desa B"}},
		{Name: "Beta"},
	})

	if got, want := idx.FormatDistricts(), "1. Alpha\n2. Beta"; got != want {
		t.Errorf("FormatDistricts() = %q, want %q", got, want)
	}
	if got, want := idx.FormatSettlements("alpha"), "1. Kota\n2. Desa A\n3. Desa B"; got != want {
		t.Errorf("FormatSettlements() = %q, want %q", got, want)
	}
	if got := idx.FormatSettlements("Beta"); got != "" {
		t.Errorf("expected empty list for Beta, got %q", got)
	}
	if !strings.HasPrefix(Default().FormatDistricts(), "1. Kapuas\n2. Balai") {
		t.Error("default district list should start with Kapuas, Balai")
	}
}
