package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BTreeMap/ReportPipe/internal/flow"
	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/store"
)

// EventHandler turns one inbound event into a reply. *flow.Engine implements it.
type EventHandler interface {
	Handle(ctx context.Context, evt models.InboundEvent) (string, error)
}

// ResponseHandler routes inbound events from a Service to the engine and
// sends the replies back. Events of one reporter are processed one at a
// time in arrival order; different reporters run in parallel.
type ResponseHandler struct {
	msgService Service
	engine     EventHandler
	dedup      store.DedupRepo

	mu        sync.Mutex
	mailboxes map[string]*mailbox
	wg        sync.WaitGroup
}

type mailbox struct {
	queue []models.InboundEvent
}

// ResponseHandlerOption configures a ResponseHandler.
type ResponseHandlerOption func(*ResponseHandler)

// WithDedup drops events whose transport message ID was already recorded.
func WithDedup(repo store.DedupRepo) ResponseHandlerOption {
	return func(rh *ResponseHandler) { rh.dedup = repo }
}

// NewResponseHandler creates a new ResponseHandler for the given service and engine.
func NewResponseHandler(msgService Service, engine EventHandler, opts ...ResponseHandlerOption) *ResponseHandler {
	rh := &ResponseHandler{
		msgService: msgService,
		engine:     engine,
		mailboxes:  make(map[string]*mailbox),
	}
	for _, opt := range opts {
		opt(rh)
	}
	return rh
}

// Start begins consuming the service's events until the channel closes or
// ctx is cancelled. Events already queued are still processed after ctx is
// cancelled, with a context that keeps ctx's values but not its
// cancellation. Use Wait to block until they are drained.
func (rh *ResponseHandler) Start(ctx context.Context) {
	slog.Info("ResponseHandler starting event processing")
	workCtx := context.WithoutCancel(ctx)
	rh.wg.Add(1)
	go func() {
		defer rh.wg.Done()
		defer slog.Info("ResponseHandler stopped event processing")
		for {
			select {
			case evt, ok := <-rh.msgService.Events():
				if !ok {
					slog.Debug("ResponseHandler events channel closed")
					return
				}
				rh.Dispatch(workCtx, evt)
			case <-ctx.Done():
				slog.Debug("ResponseHandler stopping due to context cancellation")
				return
			}
		}
	}()
}

// Dispatch queues evt on its reporter's mailbox, starting a worker for the
// reporter if none is running.
func (rh *ResponseHandler) Dispatch(ctx context.Context, evt models.InboundEvent) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	if mb, ok := rh.mailboxes[evt.ReporterID]; ok {
		mb.queue = append(mb.queue, evt)
		return
	}
	rh.mailboxes[evt.ReporterID] = &mailbox{queue: []models.InboundEvent{evt}}
	rh.wg.Add(1)
	go rh.drain(ctx, evt.ReporterID)
}

func (rh *ResponseHandler) drain(ctx context.Context, reporterID string) {
	defer rh.wg.Done()
	for {
		rh.mu.Lock()
		mb := rh.mailboxes[reporterID]
		if len(mb.queue) == 0 {
			delete(rh.mailboxes, reporterID)
			rh.mu.Unlock()
			return
		}
		evt := mb.queue[0]
		mb.queue = mb.queue[1:]
		rh.mu.Unlock()

		rh.ProcessEvent(ctx, evt)
	}
}

// ProcessEvent handles one event synchronously: dedup, engine, reply.
func (rh *ResponseHandler) ProcessEvent(ctx context.Context, evt models.InboundEvent) {
	if rh.dedup != nil && evt.SourceMessageID != "" {
		fresh, err := rh.dedup.RecordInbound(ctx, evt.SourceMessageID, evt.ReporterID)
		if err != nil {
			slog.Warn("ResponseHandler dedup record failed, processing anyway", "error", err, "from", evt.ReporterID)
		} else if !fresh {
			slog.Info("ResponseHandler skipping duplicate message", "from", evt.ReporterID, "message_id", evt.SourceMessageID)
			return
		}
	}

	reply, err := rh.engine.Handle(ctx, evt)
	if err != nil {
		slog.Error("ResponseHandler engine failed", "error", err, "from", evt.ReporterID)
		reply = flow.PromptApology
	}

	if reply != "" {
		if err := rh.msgService.SendMessage(ctx, evt.ReporterID, reply); err != nil {
			slog.Error("ResponseHandler failed to send reply", "error", err, "from", evt.ReporterID)
		}
	}

	if rh.dedup != nil && evt.SourceMessageID != "" {
		if err := rh.dedup.MarkProcessed(ctx, evt.SourceMessageID); err != nil {
			slog.Warn("ResponseHandler failed to mark message processed", "error", err, "message_id", evt.SourceMessageID)
		}
	}
}

// Wait blocks until the event loop and all reporter workers have finished.
func (rh *ResponseHandler) Wait() {
	rh.wg.Wait()
}

// Pending returns the number of reporters with queued or running work.
func (rh *ResponseHandler) Pending() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return len(rh.mailboxes)
}
