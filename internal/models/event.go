package models

import "time"

// EventKind tags the payload carried by an InboundEvent.
type EventKind string

const (
	EventKindText     EventKind = "text"
	EventKindLocation EventKind = "location"
	// EventKindOther covers media and anything else a transport cannot map; the
	// engine treats it as empty text.
	EventKindOther EventKind = "other"
)

// LocationPayload is a shared location, either a one-shot pin or a live share.
// Coordinates are pointers so a transport can report a missing axis.
type LocationPayload struct {
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	AccuracyMeters *float64   `json:"accuracy_meters,omitempty"`
	IsLive         bool       `json:"is_live,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	// Name and Address are the optional place labels attached to a pin.
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// InboundEvent is one message from a reporter, normalized at the transport
// boundary so the conversation engine never sees transport-specific shapes.
type InboundEvent struct {
	ReporterID      string           `json:"reporter_id"`
	Kind            EventKind        `json:"kind"`
	Text            string           `json:"text,omitempty"`
	Location        *LocationPayload `json:"location,omitempty"`
	SourceMessageID string           `json:"source_message_id,omitempty"`
	SourceTimestamp time.Time        `json:"source_timestamp,omitempty"`
}

// NewTextEvent builds a text event.
func NewTextEvent(reporterID, text string) InboundEvent {
	return InboundEvent{ReporterID: reporterID, Kind: EventKindText, Text: text}
}

// NewLocationEvent builds a location event from plain coordinates.
func NewLocationEvent(reporterID string, lat, lon float64) InboundEvent {
	return InboundEvent{
		ReporterID: reporterID,
		Kind:       EventKindLocation,
		Location:   &LocationPayload{Latitude: &lat, Longitude: &lon},
	}
}

// TextBody returns the text the engine should interpret for command matching.
// Location and other events carry no text.
func (e InboundEvent) TextBody() string {
	if e.Kind == EventKindText {
		return e.Text
	}
	return ""
}
