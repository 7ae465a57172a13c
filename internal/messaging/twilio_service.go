package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/twiliowhatsapp"
)

// SignatureValidator checks the X-Twilio-Signature header of a webhook call.
type SignatureValidator interface {
	ValidateRequest(url string, params map[string]string, signature string) bool
}

// TwilioService implements the Service interface using Twilio API
type TwilioService struct {
	client     twiliowhatsapp.Sender // Could be real Twilio client or MockClient
	validator  SignatureValidator
	webhookURL string
	mu         sync.RWMutex
	inbox
}

// TwilioOption configures a TwilioService.
type TwilioOption func(*TwilioService)

// WithSignatureValidation rejects webhook calls whose signature does not
// match webhookURL, the public URL configured in the Twilio console.
func WithSignatureValidation(v SignatureValidator, webhookURL string) TwilioOption {
	return func(s *TwilioService) {
		s.validator = v
		s.webhookURL = webhookURL
	}
}

// NewTwilioService creates a new TwilioService sending through client.
func NewTwilioService(client twiliowhatsapp.Sender, opts ...TwilioOption) *TwilioService {
	s := &TwilioService{client: client, inbox: newInbox()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start is a no-op for Twilio; inbound messages arrive through the webhook.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the events channel and stops the service
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	close(s.events)
	return nil
}

// SendMessage sends a message via Twilio
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return ErrServiceStopped
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	return s.client.SendMessage(ctx, to, body)
}

// Events returns the channel of inbound reporter messages.
func (s *TwilioService) Events() <-chan models.InboundEvent {
	return s.events
}

// TwilioWebhookHandler handles inbound Twilio webhook requests.
// It parses incoming messages and emits them into the Events() channel.
func (s *TwilioService) TwilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if s.validator != nil {
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		if !s.validator.ValidateRequest(s.webhookURL, params, r.Header.Get("X-Twilio-Signature")) {
			slog.Warn("Twilio webhook signature rejected")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	evt, err := parseTwilioForm(r)
	if err != nil {
		slog.Warn("Twilio webhook rejected", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("Inbound WhatsApp message from Twilio", "from", evt.ReporterID, "kind", evt.Kind)
	s.emit(evt)

	// Replies go out through the REST API, so answer with empty TwiML.
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<Response></Response>")
}

func parseTwilioForm(r *http.Request) (models.InboundEvent, error) {
	from := twiliowhatsapp.FromAddress(r.FormValue("From"))
	if from == "" {
		return models.InboundEvent{}, fmt.Errorf("missing From")
	}
	evt := models.InboundEvent{
		ReporterID:      from,
		Kind:            models.EventKindOther,
		SourceMessageID: r.FormValue("MessageSid"),
		SourceTimestamp: time.Now(),
	}

	rawLat, rawLon := r.FormValue("Latitude"), r.FormValue("Longitude")
	switch {
	case rawLat != "" || rawLon != "":
		// A half-filled pin still counts as a location so the engine can
		// ask for it again.
		evt.Kind = models.EventKindLocation
		evt.Location = &models.LocationPayload{
			Latitude:  parseAxis(rawLat),
			Longitude: parseAxis(rawLon),
			Name:      r.FormValue("Label"),
			Address:   r.FormValue("Address"),
		}
	case r.FormValue("Body") != "":
		evt.Kind = models.EventKindText
		evt.Text = r.FormValue("Body")
	}
	return evt, nil
}

func parseAxis(raw string) *float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (s *TwilioService) emit(evt models.InboundEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("TwilioService dropping inbound message (service stopped)", "from", evt.ReporterID)
		return
	}
	select {
	case s.events <- evt:
		slog.Debug("TwilioService emitted inbound message", "from", evt.ReporterID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService events channel blocked, dropping message", "from", evt.ReporterID)
	}
}
