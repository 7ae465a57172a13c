package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/whatsapp"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
)

// eventSource is implemented by *whatsapp.Client; mocks only send.
type eventSource interface {
	AddEventHandler(h whatsmeow.EventHandler)
}

// WhatsAppService implements Service using the Whatsmeow-based whatsapp client.
type WhatsAppService struct {
	client whatsapp.Sender
	mu     sync.RWMutex
	inbox
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given Sender.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	return &WhatsAppService{client: client, inbox: newInbox()}
}

// Start registers the message handler when the client can deliver events.
func (s *WhatsAppService) Start(ctx context.Context) error {
	src, ok := s.client.(eventSource)
	if !ok {
		slog.Debug("WhatsAppService client has no event source, skipping event handling (likely mock)")
		return nil
	}
	src.AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.HandleMessage(msg)
		}
	})
	slog.Debug("WhatsAppService event handler registered")
	return nil
}

// Stop stops background processing.
func (s *WhatsAppService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	close(s.events)
	slog.Info("WhatsAppService stopped")
	return nil
}

// SendMessage sends a reply to the reporter.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return ErrServiceStopped
	}
	slog.Debug("WhatsAppService SendMessage invoked", "to", to, "body_length", len(body))
	if err := s.client.SendMessage(ctx, whatsapp.NormalizeRecipient(to), body); err != nil {
		slog.Error("WhatsAppService SendMessage error", "error", err, "to", to)
		return err
	}
	return nil
}

// Events returns a channel of inbound reporter messages.
func (s *WhatsAppService) Events() <-chan models.InboundEvent {
	return s.events
}

// HandleMessage converts a whatsmeow message and queues it for processing.
func (s *WhatsAppService) HandleMessage(msg *events.Message) {
	evt, ok := whatsapp.ToInboundEvent(msg)
	if !ok {
		return
	}
	s.emit(evt)
}

func (s *WhatsAppService) emit(evt models.InboundEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("WhatsAppService dropping inbound message (service stopped)", "from", evt.ReporterID)
		return
	}
	select {
	case s.events <- evt:
		slog.Debug("WhatsAppService inbound message forwarded", "from", evt.ReporterID, "kind", evt.Kind)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService events channel blocked, dropping message", "from", evt.ReporterID, "timeout", DefaultChannelTimeout)
	}
}
