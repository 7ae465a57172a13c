package models

import (
	"errors"
	"time"
)

// ReportStatus tracks the moderation state of a persisted report.
type ReportStatus string

const (
	ReportStatusNew      ReportStatus = "new"
	ReportStatusVerified ReportStatus = "verified"
	ReportStatusInvalid  ReportStatus = "invalid"
)

// Report is the persisted shape of a confirmed form.
type Report struct {
	ID           string       `json:"id"`
	ReporterWA   string       `json:"reporter_wa" validate:"required"`
	Name         *string      `json:"name,omitempty"`
	DisasterType DisasterType `json:"disaster_type" validate:"required,oneof=banjir kebakaran longsor 'angin kencang' gempa lainnya"`
	Description  *string      `json:"description,omitempty" validate:"omitempty,max=500"`
	Severity     *string      `json:"severity,omitempty"`
	HappenedAt   *time.Time   `json:"happened_at,omitempty"`
	Address      *string      `json:"address,omitempty"`
	Lat          float64      `json:"lat" validate:"gte=-90,lte=90"`
	Lon          float64      `json:"lon" validate:"gte=-180,lte=180"`
	District     *string      `json:"kecamatan,omitempty"`
	Village      *string      `json:"desa,omitempty"`
	MediaURLs    []string     `json:"media_urls"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Submission failures are classified at the gateway boundary. Wrap one of
// these so callers can tell a store outage from rejected data with errors.Is.
var (
	// ErrSubmitTransient means the report store could not be reached.
	ErrSubmitTransient = errors.New("report store unavailable")
	// ErrSubmitPermanent means the store rejected the report itself.
	ErrSubmitPermanent = errors.New("report rejected")
	// ErrReportNotFound is returned by lookups and deletes for unknown IDs.
	ErrReportNotFound = errors.New("report not found")
)

// ReportFromForm maps a form to the persisted shape. Missing optional values
// become nil, a missing category becomes DisasterOther and missing
// coordinates become 0,0.
func ReportFromForm(f *Form) Report {
	r := Report{
		ReporterWA:   f.ReporterID,
		Name:         nilIfEmpty(f.Name),
		DisasterType: f.DisasterType,
		Description:  nilIfEmpty(f.Description),
		Severity:     nilIfEmpty(f.Severity),
		HappenedAt:   f.OccurredAt,
		Address:      nilIfEmpty(f.Address),
		District:     nilIfEmpty(f.District),
		Village:      nilIfEmpty(f.Village),
		MediaURLs:    []string{},
		Status:       ReportStatusNew,
	}
	if r.DisasterType == "" {
		r.DisasterType = DisasterOther
	}
	if f.HasCoordinates() {
		r.Lat = *f.Latitude
		r.Lon = *f.Longitude
	}
	return r
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
