// Package models defines the core data structures for ReportPipe.
//
// It includes the in-progress report form, inbound transport events and the
// persisted report shape, which are shared across modules.
package models

import (
	"time"
	"unicode/utf8"
)

// Step is the question currently awaiting an answer in a reporter's form.
type Step string

const (
	StepName        Step = "name"
	StepType        Step = "type"
	StepLocation    Step = "location"
	StepDistrict    Step = "district"
	StepVillage     Step = "village"
	StepTime        Step = "time"
	StepDescription Step = "description"
	StepSeverity    Step = "severity"
	StepConfirm     Step = "confirm"
)

// StepSequence is the fixed order in which questions are asked.
var StepSequence = []Step{
	StepName,
	StepType,
	StepLocation,
	StepDistrict,
	StepVillage,
	StepTime,
	StepDescription,
	StepSeverity,
	StepConfirm,
}

// Position returns the zero-based index of the step in StepSequence, or -1.
func (s Step) Position() int {
	for i, step := range StepSequence {
		if step == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s belongs to the fixed question sequence.
func (s Step) IsValid() bool {
	return s.Position() >= 0
}

// MaxDescriptionLength is the number of code points kept from a description.
const MaxDescriptionLength = 500

// Form is the in-progress answer set for one reporter's current report.
//
// Pointer fields are replaced, never mutated in place, so a shallow Clone is
// enough to give the conversation engine a private working copy.
type Form struct {
	ReporterID string `json:"reporter_id"`
	Step       Step   `json:"step"`

	Name         string       `json:"name,omitempty"`
	DisasterType DisasterType `json:"disaster_type,omitempty"`
	Description  string       `json:"description,omitempty"`
	Severity     string       `json:"severity,omitempty"`
	OccurredAt   *time.Time   `json:"occurred_at,omitempty"`
	Address      string       `json:"address,omitempty"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	District     string       `json:"district,omitempty"`
	Village      string       `json:"village,omitempty"`

	AccuracyMeters        *float64   `json:"accuracy_meters,omitempty"`
	IsLiveLocation        bool       `json:"is_live_location,omitempty"`
	LiveLocationExpiresAt *time.Time `json:"live_location_expires_at,omitempty"`
	SourceMessageID       string     `json:"source_message_id,omitempty"`
	SourceTimestamp       *time.Time `json:"source_timestamp,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewForm returns a blank form positioned at the first question.
func NewForm(reporterID string, now time.Time) *Form {
	return &Form{
		ReporterID: reporterID,
		Step:       StepName,
		UpdatedAt:  now,
	}
}

// Clone returns a copy of the form that can be modified independently.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// HasCoordinates reports whether both coordinates have been captured.
func (f *Form) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// TruncateDescription cuts text down to MaxDescriptionLength code points.
func TruncateDescription(text string) string {
	if utf8.RuneCountInString(text) <= MaxDescriptionLength {
		return text
	}
	return string([]rune(text)[:MaxDescriptionLength])
}
