// Package messaging connects messaging transports to the conversation engine.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

const (
	// DefaultChannelBufferSize defines the default buffer size for the inbound event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines how long an inbound event may wait for buffer space before it is dropped
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// Service defines a pluggable message transport.
type Service interface {
	// SendMessage sends a text reply to a reporter.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g., registering event handlers).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the Events channel.
	Stop() error

	// Events returns a channel of inbound reporter messages.
	Events() <-chan models.InboundEvent
}

// inbox is the shared event channel plumbing used by every Service.
type inbox struct {
	events  chan models.InboundEvent
	done    chan struct{}
	stopped bool
}

func newInbox() inbox {
	return inbox{
		events: make(chan models.InboundEvent, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}
