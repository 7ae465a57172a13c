// Package timeparse turns the free-text answers reporters give for "when did
// it happen" into absolute timestamps.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultHour is used when a date-bearing answer carries no time of day.
const DefaultHour = 12

var (
	clockRe     = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)
	bareClockRe = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
	atClockRe   = regexp.MustCompile(`^jam\s+(\d{1,2})[:.](\d{2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(\d{1,2})[:.](\d{2}))?$`)
	dashDateRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})(?:\s+(\d{1,2})[:.](\d{2}))?$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2})[:.](\d{2}))?$`)
	namedDateRe = regexp.MustCompile(`^(\d{1,2})\s+([a-z]+)\s+(\d{4})(?:\s+(\d{1,2})[:.](\d{2}))?$`)
)

var months = map[string]time.Month{
	"jan": time.January, "januari": time.January,
	"feb": time.February, "februari": time.February,
	"mar": time.March, "maret": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May,
	"jun": time.June, "juni": time.June,
	"jul": time.July, "juli": time.July,
	"agu": time.August, "agustus": time.August,
	"sep": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October,
	"nov": time.November, "november": time.November,
	"des": time.December, "desember": time.December,
}

// Parse interprets text relative to now and returns the timestamp it names.
// Results are in now's location. The second return value is false when the
// text matches no known format or names an impossible calendar date.
func Parse(text string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(text)
	t := strings.ToLower(raw)
	if t == "" {
		return time.Time{}, false
	}
	loc := now.Location()

	switch {
	case t == "sekarang" || t == "hari ini":
		return now, true
	case strings.HasPrefix(t, "kemarin"):
		y := now.AddDate(0, 0, -1)
		if m := clockRe.FindStringSubmatch(t); m != nil {
			return time.Date(y.Year(), y.Month(), y.Day(), atoi(m[1]), atoi(m[2]), 0, 0, loc), true
		}
		return time.Date(y.Year(), y.Month(), y.Day(), DefaultHour, 0, 0, 0, loc), true
	}

	if m := bareClockRe.FindStringSubmatch(t); m != nil {
		hh, mm := atoi(m[1]), atoi(m[2])
		if validClock(hh, mm) {
			return time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, loc), true
		}
	}
	if m := atClockRe.FindStringSubmatch(t); m != nil {
		return time.Date(now.Year(), now.Month(), now.Day(), atoi(m[1]), atoi(m[2]), 0, 0, loc), true
	}
	if m := slashDateRe.FindStringSubmatch(t); m != nil {
		return build(atoi(m[3]), atoi(m[2]), atoi(m[1]), m[4], m[5], loc)
	}
	if m := dashDateRe.FindStringSubmatch(t); m != nil {
		return build(atoi(m[3]), atoi(m[2]), atoi(m[1]), m[4], m[5], loc)
	}
	if m := isoDateRe.FindStringSubmatch(t); m != nil {
		return build(atoi(m[1]), atoi(m[2]), atoi(m[3]), m[4], m[5], loc)
	}
	if m := namedDateRe.FindStringSubmatch(t); m != nil {
		if month, ok := months[m[2]]; ok {
			return build(atoi(m[3]), int(month), atoi(m[1]), m[4], m[5], loc)
		}
	}

	parsed, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// build assembles a calendar date and rejects values time.Date would
// silently normalize, such as 31 April.
func build(year, month, day int, hhStr, mmStr string, loc *time.Location) (time.Time, bool) {
	hh, mm := DefaultHour, 0
	if hhStr != "" {
		hh, mm = atoi(hhStr), atoi(mmStr)
	}
	if month < 1 || month > 12 || day < 1 || !validClock(hh, mm) {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, hh, mm, 0, 0, loc)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func validClock(hh, mm int) bool {
	return hh >= 0 && hh <= 23 && mm >= 0 && mm <= 59
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
