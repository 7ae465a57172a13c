// Package whatsapp wraps the Whatsmeow client for WhatsApp integration in ReportPipe.
//
// It pairs the bot account by QR code, sends replies and converts incoming
// WhatsApp messages into transport-neutral inbound events.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/BTreeMap/ReportPipe/internal/store"
	_ "github.com/lib/pq"           // PostgreSQL driver for whatsmeow sqlstore
	_ "github.com/mattn/go-sqlite3" // SQLite driver for whatsmeow sqlstore
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	waStore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Constants for WhatsApp client configuration
const (
	// DefaultSQLitePath is the default path for WhatsApp/whatsmeow SQLite database
	DefaultSQLitePath = "/var/lib/reportpipe/whatsmeow.db"
	// JIDSuffix is the WhatsApp JID suffix for regular users
	JIDSuffix = "s.whatsapp.net"
)

// Sender sends plain text WhatsApp messages (real client or test double).
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the WhatsApp client.
// This focuses solely on WhatsApp/whatsmeow database configuration and login settings.
type Opts struct {
	DBDSN       string // WhatsApp/whatsmeow database connection string
	QRPath      string // path to write login QR code
	NumericCode bool   // print the raw pairing code instead of a QR block
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the WhatsApp/whatsmeow database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) {
		o.DBDSN = dsn
	}
}

// WithQRCodeOutput instructs the WhatsApp client to write the login QR code to the specified path.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) {
		o.QRPath = path
	}
}

// WithNumericCode prints the raw pairing code instead of rendering a QR block.
func WithNumericCode() Option {
	return func(o *Opts) {
		o.NumericCode = true
	}
}

// Client wraps the Whatsmeow client. When the account is logged out from
// the phone it creates a fresh device and starts pairing again, keeping the
// registered event handlers.
type Client struct {
	cfg       Opts
	container *sqlstore.Container

	mu       sync.RWMutex
	waClient *whatsmeow.Client
	handlers []whatsmeow.EventHandler
	latestQR string
}

// NewClient opens the device store and connects. If the device is not paired
// yet, pairing runs in the background: QR codes are printed and exposed via
// LatestQR until the phone scans one.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("WhatsApp NewClient options set", "DBDSN_set", cfg.DBDSN != "", "QRPath_set", cfg.QRPath != "", "NumericCode", cfg.NumericCode)

	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		slog.Debug("No WhatsApp database DSN provided, using default SQLite path", "default_path", dbDSN)
	}

	dbDriver := store.DetectDSNType(dbDSN)
	if dbDriver == store.DriverSQLite && !strings.Contains(dbDSN, "foreign_keys") {
		slog.Warn("SQLite database for WhatsApp does not appear to have foreign keys enabled. "+
			"Consider adding '?_foreign_keys=on' to your connection string.",
			"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
	}

	container, err := sqlstore.New(ctx, dbDriver, dbDSN, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		slog.Error("Failed to initialize WhatsApp DB store", "error", err)
		return nil, fmt.Errorf("failed to initialize WhatsApp database store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		slog.Error("Failed to get first device from store", "error", err)
		return nil, fmt.Errorf("failed to get device from WhatsApp store: %w", err)
	}

	c := &Client{cfg: cfg, container: container}
	c.waClient = c.newWhatsmeowClient(deviceStore)

	if c.waClient.Store.ID == nil {
		slog.Info("WhatsApp login required; starting QR code flow")
		if err := c.startPairing(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	slog.Debug("WhatsApp already logged in, connecting to server")
	if err := c.waClient.Connect(); err != nil {
		slog.Error("Failed to connect to WhatsApp server", "error", err)
		return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
	}
	slog.Info("WhatsApp client connected successfully")
	return c, nil
}

func (c *Client) newWhatsmeowClient(device *waStore.Device) *whatsmeow.Client {
	wa := whatsmeow.NewClient(device, waLog.Stdout("Client", "INFO", true))
	wa.AddEventHandler(c.handleLifecycle)
	c.mu.RLock()
	for _, h := range c.handlers {
		wa.AddEventHandler(h)
	}
	c.mu.RUnlock()
	return wa
}

// startPairing connects an unpaired client and consumes QR events in the background.
func (c *Client) startPairing(ctx context.Context) error {
	wa := c.current()
	qrChan, err := wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to open QR channel: %w", err)
	}
	if err := wa.Connect(); err != nil {
		slog.Error("Failed to connect to WhatsApp during login", "error", err)
		return fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
	}
	go c.consumeQR(qrChan)
	return nil
}

func (c *Client) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		if evt.Event != whatsmeow.QRChannelEventCode {
			slog.Info("WhatsApp login event", "event", evt.Event)
			c.setQR("")
			continue
		}
		c.setQR(evt.Code)
		if err := c.printQR(evt.Code); err != nil {
			slog.Warn("Failed to write WhatsApp QR code", "error", err)
		}
	}
}

func (c *Client) printQR(code string) error {
	writer := io.Writer(os.Stdout)
	if c.cfg.QRPath != "" {
		f, err := os.Create(c.cfg.QRPath)
		if err != nil {
			return fmt.Errorf("failed to create QR file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	if c.cfg.NumericCode {
		_, err := fmt.Fprintln(writer, code)
		return err
	}
	qrterminal.GenerateHalfBlock(code, qrterminal.L, writer)
	return nil
}

// handleLifecycle re-pairs after the account is logged out from the phone.
func (c *Client) handleLifecycle(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		slog.Info("WhatsApp connected")
		c.setQR("")
	case *events.LoggedOut:
		slog.Warn("WhatsApp logged out, starting a new pairing")
		go c.repair()
	}
}

// Relogin drops the current pairing and starts a fresh QR flow.
func (c *Client) Relogin(ctx context.Context) error {
	return c.repairWith(context.WithoutCancel(ctx))
}

func (c *Client) repair() {
	if err := c.repairWith(context.Background()); err != nil {
		slog.Error("WhatsApp re-pairing failed", "error", err)
	}
}

func (c *Client) repairWith(ctx context.Context) error {
	old := c.current()
	old.Disconnect()

	if old.Store.ID != nil {
		if err := old.Store.Delete(ctx); err != nil {
			slog.Warn("Failed to delete logged out device", "error", err)
		}
	}

	device := c.container.NewDevice()
	wa := c.newWhatsmeowClient(device)
	c.mu.Lock()
	c.waClient = wa
	c.mu.Unlock()

	return c.startPairing(ctx)
}

func (c *Client) current() *whatsmeow.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.waClient
}

func (c *Client) setQR(code string) {
	c.mu.Lock()
	c.latestQR = code
	c.mu.Unlock()
}

// LatestQR returns the pairing code currently on offer, or "" when paired.
func (c *Client) LatestQR() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestQR
}

// AddEventHandler registers h on the current connection and on any
// connection created by a later re-pairing.
func (c *Client) AddEventHandler(h whatsmeow.EventHandler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	wa := c.waClient
	c.mu.Unlock()
	wa.AddEventHandler(h)
}

// SendMessage sends a WhatsApp text message to the specified recipient.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	wa := c.current()
	if wa == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if wa.Store == nil || wa.Store.ID == nil {
		return fmt.Errorf("whatsapp client not paired")
	}
	if to == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	slog.Debug("Sending WhatsApp message", "to", to, "body_length", len(body))
	jid := types.NewJID(strings.TrimPrefix(to, "+"), JIDSuffix)
	msg := &waE2E.Message{Conversation: &body}

	if _, err := wa.SendMessage(ctx, jid, msg); err != nil {
		slog.Error("Failed to send WhatsApp message", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("WhatsApp message sent successfully", "to", to)
	return nil
}

// Disconnect closes the connection to WhatsApp.
func (c *Client) Disconnect() {
	if wa := c.current(); wa != nil {
		wa.Disconnect()
	}
}

// MockClient records sent messages instead of talking to WhatsApp (for tests).
type MockClient struct {
	mu   sync.Mutex
	Sent []SentMessage
	Err  error
}

// SentMessage is one message recorded by MockClient.
type SentMessage struct {
	To   string
	Body string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body})
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *MockClient) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}
