// Package areas provides the read-only administrative area index used to pick
// a kecamatan and desa/kelurahan by number.
package areas

import (
	"fmt"
	"strings"
)

// District is one kecamatan with its settlements. Urban holds the kelurahan
// and Villages the desa; both are addressed as one sequence, kelurahan first.
type District struct {
	Name     string
	Urban    []string
	Villages []string
}

// Index is an immutable district/settlement lookup. It is safe for concurrent use.
type Index struct {
	districts   []District
	settlements map[string][]string
}

// NewIndex builds an index from the given districts. The input is copied.
func NewIndex(districts []District) *Index {
	idx := &Index{
		districts:   make([]District, len(districts)),
		settlements: make(map[string][]string, len(districts)),
	}
	copy(idx.districts, districts)
	for _, d := range districts {
		combined := make([]string, 0, len(d.Urban)+len(d.Villages))
		combined = append(combined, d.Urban...)
		combined = append(combined, d.Villages...)
		idx.settlements[strings.ToLower(d.Name)] = combined
	}
	return idx
}

var defaultIndex = NewIndex(sanggau)

// Default returns the index of the Kabupaten Sanggau kecamatan.
func Default() *Index {
	return defaultIndex
}

// DistrictCount returns the number of districts.
func (i *Index) DistrictCount() int {
	return len(i.districts)
}

// DistrictAt returns the name of the n-th district (1-based).
func (i *Index) DistrictAt(n int) (string, bool) {
	if n < 1 || n > len(i.districts) {
		return "", false
	}
	return i.districts[n-1].Name, true
}

// SettlementsOf returns the ordered settlements of a district, matched
// case-insensitively. Unknown districts yield nil.
func (i *Index) SettlementsOf(district string) []string {
	list := i.settlements[strings.ToLower(district)]
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// SettlementAt returns the n-th settlement (1-based) of a district.
func (i *Index) SettlementAt(district string, n int) (string, bool) {
	list := i.settlements[strings.ToLower(district)]
	if n < 1 || n > len(list) {
		return "", false
	}
	return list[n-1], true
}

// FormatDistricts renders the numbered district list shown to reporters.
func (i *Index) FormatDistricts() string {
	names := make([]string, len(i.districts))
	for n, d := range i.districts {
		names[n] = d.Name
	}
	return numbered(names)
}

// FormatSettlements renders the numbered settlement list of a district, or
// an empty string when the district is unknown or has no settlements.
func (i *Index) FormatSettlements(district string) string {
	return numbered(i.settlements[strings.ToLower(district)])
}

func numbered(items []string) string {
	var b strings.Builder
	for n, item := range items {
		if n > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", n+1, item)
	}
	return b.String()
}
