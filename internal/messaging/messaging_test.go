package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/flow"
	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/session"
	"github.com/BTreeMap/ReportPipe/internal/store"
	"github.com/BTreeMap/ReportPipe/internal/twiliowhatsapp"
	"github.com/BTreeMap/ReportPipe/internal/whatsapp"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Ensure both transports implement Service
func TestServicesImplementService(t *testing.T) {
	var _ Service = (*WhatsAppService)(nil)
	var _ Service = (*TwilioService)(nil)
	var _ EventHandler = (*flow.Engine)(nil)
}

func receive(t *testing.T, ch <-chan models.InboundEvent) models.InboundEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("expected inbound event, got none")
	}
	return models.InboundEvent{}
}

func TestWhatsAppService_SendMessage(t *testing.T) {
	mockClient := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mockClient)
	if err := svc.SendMessage(context.Background(), "+628111", "halo"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	msgs := mockClient.Messages()
	if len(msgs) != 1 || msgs[0].To != "628111" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestWhatsAppService_HandleMessage(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	sender := types.NewJID("628111", types.DefaultUserServer)
	svc.HandleMessage(&events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{Chat: sender, Sender: sender},
			ID:            "ABC",
		},
		Message: &waE2E.Message{Conversation: proto.String("lapor")},
	})

	evt := receive(t, svc.Events())
	if evt.ReporterID != "628111" || evt.Text != "lapor" || evt.SourceMessageID != "ABC" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestWhatsAppService_StartStop(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
	if _, ok := <-svc.Events(); ok {
		t.Error("expected events channel closed")
	}
	if err := svc.SendMessage(context.Background(), "628111", "x"); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

type fakeValidator struct{ ok bool }

func (f fakeValidator) ValidateRequest(string, map[string]string, string) bool { return f.ok }

func postWebhook(svc *TwilioService, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.TwilioWebhookHandler(rec, req)
	return rec
}

func TestTwilioWebhook_Text(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	rec := postWebhook(svc, url.Values{"From": {"whatsapp:+628111"}, "Body": {"lapor"}, "MessageSid": {"SM1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	evt := receive(t, svc.Events())
	if evt.ReporterID != "628111" || evt.Kind != models.EventKindText || evt.Text != "lapor" || evt.SourceMessageID != "SM1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestTwilioWebhook_Location(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	rec := postWebhook(svc, url.Values{
		"From":      {"whatsapp:+628111"},
		"Latitude":  {"0.125"},
		"Longitude": {"110.59"},
		"Address":   {"Jl. Sudirman"},
		"Label":     {"Kantor Bupati"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	evt := receive(t, svc.Events())
	if evt.Kind != models.EventKindLocation || evt.Location == nil {
		t.Fatalf("expected location event, got %+v", evt)
	}
	if evt.Location.Latitude == nil || evt.Location.Longitude == nil {
		t.Fatalf("expected both coordinates, got %+v", evt.Location)
	}
	if *evt.Location.Latitude != 0.125 || *evt.Location.Longitude != 110.59 || evt.Location.Address != "Jl. Sudirman" || evt.Location.Name != "Kantor Bupati" {
		t.Fatalf("unexpected location: %+v", evt.Location)
	}
}

func TestTwilioWebhook_PartialLocation(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	tests := []struct {
		name   string
		values url.Values
	}{
		{"latitude only", url.Values{"From": {"whatsapp:+628111"}, "Latitude": {"0.125"}}},
		{"unparsable longitude", url.Values{"From": {"whatsapp:+628111"}, "Latitude": {"0.125"}, "Longitude": {"abc"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postWebhook(svc, tt.values); rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			evt := receive(t, svc.Events())
			if evt.Kind != models.EventKindLocation || evt.Location == nil {
				t.Fatalf("expected location event, got %+v", evt)
			}
			if evt.Location.Latitude == nil || *evt.Location.Latitude != 0.125 || evt.Location.Longitude != nil {
				t.Fatalf("expected latitude only, got %+v", evt.Location)
			}
		})
	}
}

func TestTwilioWebhook_Rejections(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if rec := postWebhook(svc, url.Values{"Body": {"lapor"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing From: expected 400, got %d", rec.Code)
	}

	signed := NewTwilioService(twiliowhatsapp.NewMockClient(), WithSignatureValidation(fakeValidator{ok: false}, "https://x/api/twilio/webhook"))
	if rec := postWebhook(signed, url.Values{"From": {"whatsapp:+628111"}, "Body": {"lapor"}}); rec.Code != http.StatusForbidden {
		t.Errorf("bad signature: expected 403, got %d", rec.Code)
	}

	accepted := NewTwilioService(twiliowhatsapp.NewMockClient(), WithSignatureValidation(fakeValidator{ok: true}, "https://x/api/twilio/webhook"))
	if rec := postWebhook(accepted, url.Values{"From": {"whatsapp:+628111"}, "Body": {"lapor"}}); rec.Code != http.StatusOK {
		t.Errorf("good signature: expected 200, got %d", rec.Code)
	}
}

// recordingService is a Service test double fed by the test.
type recordingService struct {
	mu     sync.Mutex
	events chan models.InboundEvent
	sent   []whatsapp.SentMessage
}

func newRecordingService() *recordingService {
	return &recordingService{events: make(chan models.InboundEvent, 16)}
}

func (s *recordingService) SendMessage(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, whatsapp.SentMessage{To: to, Body: body})
	return nil
}
func (s *recordingService) Start(context.Context) error { return nil }
func (s *recordingService) Stop() error { close(s.events); return nil }
func (s *recordingService) Events() <-chan models.InboundEvent { return s.events }

func (s *recordingService) bodiesFor(to string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.sent {
		if m.To == to {
			out = append(out, m.Body)
		}
	}
	return out
}

// orderedHandler records the order of texts per reporter and echoes them.
type orderedHandler struct {
	mu   sync.Mutex
	seen map[string][]string
	fail bool
}

func (h *orderedHandler) Handle(ctx context.Context, evt models.InboundEvent) (string, error) {
	time.Sleep(time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return "", errors.New("boom")
	}
	h.seen[evt.ReporterID] = append(h.seen[evt.ReporterID], evt.Text)
	return "echo " + evt.Text, nil
}

func TestResponseHandler_OrderPerReporter(t *testing.T) {
	svc := newRecordingService()
	h := &orderedHandler{seen: map[string][]string{}}
	rh := NewResponseHandler(svc, h)
	rh.Start(context.Background())

	texts := []string{"1", "2", "3", "4", "5"}
	for _, text := range texts {
		svc.events <- models.NewTextEvent("A", text)
		svc.events <- models.NewTextEvent("B", text)
	}
	svc.Stop()
	rh.Wait()

	for _, reporter := range []string{"A", "B"} {
		got := strings.Join(h.seen[reporter], ",")
		if got != "1,2,3,4,5" {
			t.Errorf("reporter %s processed out of order: %s", reporter, got)
		}
		if n := len(svc.bodiesFor(reporter)); n != len(texts) {
			t.Errorf("reporter %s: expected %d replies, got %d", reporter, len(texts), n)
		}
	}
	if rh.Pending() != 0 {
		t.Errorf("expected no pending mailboxes, got %d", rh.Pending())
	}
}

// gatedHandler blocks in Handle until released and records the context state.
type gatedHandler struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  error
}

func (h *gatedHandler) Handle(ctx context.Context, evt models.InboundEvent) (string, error) {
	close(h.entered)
	<-h.release
	h.ctxErr = ctx.Err()
	return "diterima", nil
}

func TestResponseHandler_DrainsAfterCancel(t *testing.T) {
	svc := newRecordingService()
	h := &gatedHandler{entered: make(chan struct{}), release: make(chan struct{})}
	rh := NewResponseHandler(svc, h)

	ctx, cancel := context.WithCancel(context.Background())
	rh.Start(ctx)
	svc.events <- models.NewTextEvent("A", "kirim")

	select {
	case <-h.entered:
	case <-time.After(time.Second):
		t.Fatal("event was not dispatched")
	}
	cancel()
	close(h.release)
	rh.Wait()

	if h.ctxErr != nil {
		t.Errorf("in-flight event saw a cancelled context: %v", h.ctxErr)
	}
	if got := svc.bodiesFor("A"); len(got) != 1 || got[0] != "diterima" {
		t.Errorf("expected the reply to be sent after cancel, got %v", got)
	}
}

func TestResponseHandler_ApologyOnEngineError(t *testing.T) {
	svc := newRecordingService()
	rh := NewResponseHandler(svc, &orderedHandler{seen: map[string][]string{}, fail: true})
	rh.ProcessEvent(context.Background(), models.NewTextEvent("A", "lapor"))

	got := svc.bodiesFor("A")
	if len(got) != 1 || got[0] != flow.PromptApology {
		t.Fatalf("expected apology, got %v", got)
	}
}

func TestResponseHandler_Dedup(t *testing.T) {
	svc := newRecordingService()
	h := &orderedHandler{seen: map[string][]string{}}
	repo := store.NewInMemoryStore()
	rh := NewResponseHandler(svc, h, WithDedup(repo))

	evt := models.NewTextEvent("A", "lapor")
	evt.SourceMessageID = "MSG-1"
	rh.ProcessEvent(context.Background(), evt)
	rh.ProcessEvent(context.Background(), evt)

	if n := len(svc.bodiesFor("A")); n != 1 {
		t.Fatalf("expected one reply for a redelivered message, got %d", n)
	}
	fresh, err := repo.RecordInbound(context.Background(), "MSG-1", "A")
	if err != nil || fresh {
		t.Fatalf("expected message recorded, fresh=%v err=%v", fresh, err)
	}
}

func TestResponseHandler_WithEngine(t *testing.T) {
	svc := newRecordingService()
	engine := flow.NewEngine(session.NewMemoryStore(), store.NewGateway(store.NewInMemoryStore()))
	rh := NewResponseHandler(svc, engine)

	rh.ProcessEvent(context.Background(), models.NewTextEvent("628111", "lapor"))
	got := svc.bodiesFor("628111")
	if len(got) != 1 || got[0] != flow.PromptStart {
		t.Fatalf("expected start prompt, got %v", got)
	}
}
