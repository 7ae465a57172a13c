package timeparse

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Format renders t the way the confirmation summary shows it, for example
// "12 November 2025 14:30".
func Format(t time.Time) string {
	return fmt.Sprintf("%d %s %d %02d:%02d", t.Day(), monthNames[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
