package whatsapp

import (
	"testing"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func incoming(msg *waE2E.Message) *events.Message {
	sender := types.NewJID("628111", JIDSuffix)
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: sender, Sender: sender},
			ID:            "MSG1",
			Timestamp:     time.Date(2025, 11, 2, 7, 0, 0, 0, time.UTC),
		},
		Message: msg,
	}
}

func TestToInboundEventText(t *testing.T) {
	evt, ok := ToInboundEvent(incoming(&waE2E.Message{Conversation: proto.String("lapor")}))
	if !ok {
		t.Fatal("expected event to be accepted")
	}
	if evt.Kind != models.EventKindText || evt.Text != "lapor" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.ReporterID != "628111" || evt.SourceMessageID != "MSG1" {
		t.Fatalf("unexpected identity: %+v", evt)
	}
	if evt.SourceTimestamp.IsZero() {
		t.Fatal("expected source timestamp")
	}
}

func TestToInboundEventExtendedText(t *testing.T) {
	msg := &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("banjir")}}
	evt, ok := ToInboundEvent(incoming(msg))
	if !ok || evt.Kind != models.EventKindText || evt.Text != "banjir" {
		t.Fatalf("unexpected event: %+v ok=%v", evt, ok)
	}
}

func TestToInboundEventLocation(t *testing.T) {
	msg := &waE2E.Message{LocationMessage: &waE2E.LocationMessage{
		DegreesLatitude:  proto.Float64(0.12),
		DegreesLongitude: proto.Float64(110.6),
		AccuracyInMeters: proto.Uint32(15),
		Name:             proto.String("Pasar Sanggau"),
		Address:          proto.String("Jl. Ahmad Yani"),
	}}
	evt, ok := ToInboundEvent(incoming(msg))
	if !ok || evt.Kind != models.EventKindLocation || evt.Location == nil {
		t.Fatalf("unexpected event: %+v ok=%v", evt, ok)
	}
	loc := evt.Location
	if loc.Latitude == nil || loc.Longitude == nil || *loc.Latitude != 0.12 || *loc.Longitude != 110.6 {
		t.Fatalf("unexpected coordinates: %+v", loc)
	}
	if loc.AccuracyMeters == nil || *loc.AccuracyMeters != 15 {
		t.Fatalf("unexpected accuracy: %+v", loc.AccuracyMeters)
	}
	if loc.Name != "Pasar Sanggau" || loc.Address != "Jl. Ahmad Yani" || loc.IsLive {
		t.Fatalf("unexpected pin details: %+v", loc)
	}
}

func TestToInboundEventLocationMissingAxis(t *testing.T) {
	msg := &waE2E.Message{LocationMessage: &waE2E.LocationMessage{
		DegreesLatitude: proto.Float64(0.12),
	}}
	evt, ok := ToInboundEvent(incoming(msg))
	if !ok || evt.Kind != models.EventKindLocation || evt.Location == nil {
		t.Fatalf("unexpected event: %+v ok=%v", evt, ok)
	}
	if evt.Location.Latitude == nil || evt.Location.Longitude != nil {
		t.Fatalf("missing longitude must stay nil: %+v", evt.Location)
	}
}

func TestToInboundEventLiveLocation(t *testing.T) {
	msg := &waE2E.Message{LiveLocationMessage: &waE2E.LiveLocationMessage{
		DegreesLatitude:  proto.Float64(0.1),
		DegreesLongitude: proto.Float64(110.5),
	}}
	evt, ok := ToInboundEvent(incoming(msg))
	if !ok || evt.Kind != models.EventKindLocation || !evt.Location.IsLive {
		t.Fatalf("unexpected event: %+v ok=%v", evt, ok)
	}
	if evt.Location.AccuracyMeters != nil || evt.Location.ExpiresAt != nil {
		t.Fatalf("expected no accuracy or expiry: %+v", evt.Location)
	}
}

func TestToInboundEventOtherKinds(t *testing.T) {
	msg := &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}
	evt, ok := ToInboundEvent(incoming(msg))
	if !ok || evt.Kind != models.EventKindOther {
		t.Fatalf("expected other kind, got %+v ok=%v", evt, ok)
	}
}

func TestToInboundEventIgnored(t *testing.T) {
	fromMe := incoming(&waE2E.Message{Conversation: proto.String("x")})
	fromMe.Info.IsFromMe = true

	group := incoming(&waE2E.Message{Conversation: proto.String("x")})
	group.Info.IsGroup = true
	group.Info.Chat = types.NewJID("1203630", types.GroupServer)

	status := incoming(&waE2E.Message{Conversation: proto.String("x")})
	status.Info.Chat = types.StatusBroadcastJID

	for name, evt := range map[string]*events.Message{"from me": fromMe, "group": group, "status": status, "nil": nil} {
		if _, ok := ToInboundEvent(evt); ok {
			t.Errorf("%s: expected message to be ignored", name)
		}
	}
}

func TestNormalizeRecipient(t *testing.T) {
	cases := map[string]string{
		"+628111":               "628111",
		"628111@s.whatsapp.net": "628111",
		"628111":                "628111",
	}
	for in, want := range cases {
		if got := NormalizeRecipient(in); got != want {
			t.Errorf("NormalizeRecipient(%q) = %q, want %q", in, got, want)
		}
	}
}
