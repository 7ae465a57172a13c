package whatsapp

import (
	"strings"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// ToInboundEvent converts a whatsmeow message into an InboundEvent. It
// reports false for messages the bot must ignore: its own, group chats and
// status broadcasts.
func ToInboundEvent(evt *events.Message) (models.InboundEvent, bool) {
	if evt == nil || evt.Message == nil {
		return models.InboundEvent{}, false
	}
	info := evt.Info
	if info.IsFromMe || info.IsGroup || info.Chat.Server == "broadcast" || info.Chat.User == "status" {
		return models.InboundEvent{}, false
	}

	out := models.InboundEvent{
		ReporterID:      info.Sender.User,
		Kind:            models.EventKindOther,
		SourceMessageID: string(info.ID),
		SourceTimestamp: info.Timestamp,
	}
	if out.ReporterID == "" {
		out.ReporterID = info.Chat.User
	}

	msg := evt.Message
	if text, ok := extractText(msg); ok {
		out.Kind = models.EventKindText
		out.Text = text
		return out, true
	}
	if loc := msg.GetLocationMessage(); loc != nil {
		out.Kind = models.EventKindLocation
		out.Location = &models.LocationPayload{
			Latitude:       loc.DegreesLatitude,
			Longitude:      loc.DegreesLongitude,
			AccuracyMeters: accuracy(loc.AccuracyInMeters),
			IsLive:         loc.GetIsLive(),
			Name:           loc.GetName(),
			Address:        loc.GetAddress(),
		}
		return out, true
	}
	if live := msg.GetLiveLocationMessage(); live != nil {
		// Live location messages carry no expiry, so ExpiresAt stays nil.
		out.Kind = models.EventKindLocation
		out.Location = &models.LocationPayload{
			Latitude:       live.DegreesLatitude,
			Longitude:      live.DegreesLongitude,
			AccuracyMeters: accuracy(live.AccuracyInMeters),
			IsLive:         true,
		}
		return out, true
	}
	return out, true
}

func extractText(msg *waE2E.Message) (string, bool) {
	switch {
	case msg.Conversation != nil:
		return msg.GetConversation(), true
	case msg.GetExtendedTextMessage() != nil:
		return msg.GetExtendedTextMessage().GetText(), true
	case msg.GetButtonsResponseMessage() != nil:
		return msg.GetButtonsResponseMessage().GetSelectedDisplayText(), true
	case msg.GetListResponseMessage() != nil:
		return msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID(), true
	}
	return "", false
}

func accuracy(v *uint32) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// NormalizeRecipient strips a leading "+" and any JID suffix so a reporter
// ID can be used as a send target.
func NormalizeRecipient(id string) string {
	id = strings.TrimPrefix(id, "+")
	if at := strings.IndexByte(id, '@'); at >= 0 {
		id = id[:at]
	}
	return id
}
