package main

import (
	"flag"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/store"
	"github.com/BTreeMap/ReportPipe/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ReportPipe state data
	DefaultStateDir = "/var/lib/reportpipe"
	// DefaultAppDBFileName is the default SQLite database filename for reports
	DefaultAppDBFileName = "reportpipe.db"
	// DefaultWhatsAppDBFileName is the default SQLite database filename for whatsmeow
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// DefaultTimezone is where Kabupaten Sanggau reporters live (WIB).
	DefaultTimezone = "Asia/Pontianak"
	// DefaultSweepSchedule is how often idle sessions are checked when an idle TTL is set.
	DefaultSweepSchedule = "@every 1m"

	ProviderWhatsApp = "whatsapp"
	ProviderTwilio   = "twilio"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds environment configuration
type Config struct {
	StateDir         string
	ApplicationDBDSN string
	WhatsAppDBDSN    string
	Provider         string
	TwilioSID        string
	TwilioToken      string
	TwilioFrom       string
	TwilioWebhookURL string
	APIAddr          string
	SessionStore     string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SessionIdleTTL   time.Duration
	MapBaseURL       string
	Timezone         string
	LogLevel         string
	QROutput         string
	NumericCode      bool
}

// loadEnvironmentConfig loads configuration from the .env file and environment variables
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:         util.GetenvDefault("REPORTPIPE_STATE_DIR", DefaultStateDir),
		ApplicationDBDSN: util.GetenvDefault("DATABASE_URL", ""),
		WhatsAppDBDSN:    util.GetenvDefault("WHATSAPP_DB_DSN", ""),
		Provider:         util.GetenvDefault("MESSAGING_PROVIDER", ProviderWhatsApp),
		TwilioSID:        util.GetenvDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioToken:      util.GetenvDefault("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       util.GetenvDefault("TWILIO_FROM_NUMBER", ""),
		TwilioWebhookURL: util.GetenvDefault("TWILIO_WEBHOOK_URL", ""),
		APIAddr:          util.GetenvDefault("API_ADDR", ":8080"),
		SessionStore:     util.GetenvDefault("SESSION_STORE", SessionStoreMemory),
		RedisAddr:        util.GetenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    util.GetenvDefault("REDIS_PASSWORD", ""),
		RedisDB:          util.ParseIntEnv("REDIS_DB", 0),
		SessionIdleTTL:   util.ParseDurationEnv("SESSION_IDLE_TTL", 0),
		MapBaseURL:       util.GetenvDefault("MAP_BASE_URL", ""),
		Timezone:         util.GetenvDefault("REPORT_TIMEZONE", DefaultTimezone),
		LogLevel:         util.GetenvDefault("LOG_LEVEL", "info"),
		QROutput:         util.GetenvDefault("WHATSAPP_QR_OUTPUT", ""),
		NumericCode:      util.ParseBoolEnv("WHATSAPP_NUMERIC_CODE", false),
	}
	config.applyDefaultDSNs()

	slog.Debug("environment variables loaded",
		"REPORTPIPE_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.ApplicationDBDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDBDSN != "",
		"MESSAGING_PROVIDER", config.Provider,
		"SESSION_STORE", config.SessionStore,
		"SESSION_IDLE_TTL", config.SessionIdleTTL,
		"API_ADDR", config.APIAddr)
	return config
}

// applyDefaultDSNs fills empty DSNs with SQLite files in the state directory.
// A PostgreSQL DATABASE_URL is shared with whatsmeow when WHATSAPP_DB_DSN is unset.
func (c *Config) applyDefaultDSNs() {
	if c.ApplicationDBDSN == "" {
		c.ApplicationDBDSN = filepath.Join(c.StateDir, DefaultAppDBFileName)
	}
	if c.WhatsAppDBDSN == "" {
		if store.DetectDSNType(c.ApplicationDBDSN) == store.DriverPostgres {
			c.WhatsAppDBDSN = c.ApplicationDBDSN
		} else {
			c.WhatsAppDBDSN = "file:" + filepath.Join(c.StateDir, DefaultWhatsAppDBFileName) + "?_foreign_keys=on"
		}
	}
}

// parseCommandLineFlags lets flags override the environment configuration.
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Config, error) {
	cfg := config
	fs.StringVar(&cfg.StateDir, "state-dir", config.StateDir, "state directory for ReportPipe data (overrides $REPORTPIPE_STATE_DIR)")
	fs.StringVar(&cfg.ApplicationDBDSN, "db-dsn", config.ApplicationDBDSN, "report database DSN (overrides $DATABASE_URL)")
	fs.StringVar(&cfg.WhatsAppDBDSN, "wa-db-dsn", config.WhatsAppDBDSN, "whatsmeow database DSN (overrides $WHATSAPP_DB_DSN)")
	fs.StringVar(&cfg.Provider, "provider", config.Provider, "messaging provider: whatsapp or twilio (overrides $MESSAGING_PROVIDER)")
	fs.StringVar(&cfg.APIAddr, "api-addr", config.APIAddr, "API server address (overrides $API_ADDR)")
	fs.StringVar(&cfg.SessionStore, "session-store", config.SessionStore, "session store: memory or redis (overrides $SESSION_STORE)")
	fs.DurationVar(&cfg.SessionIdleTTL, "session-idle-ttl", config.SessionIdleTTL, "evict sessions idle this long, 0 keeps them (overrides $SESSION_IDLE_TTL)")
	fs.StringVar(&cfg.MapBaseURL, "map-base-url", config.MapBaseURL, "base URL of the public report map (overrides $MAP_BASE_URL)")
	fs.StringVar(&cfg.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error (overrides $LOG_LEVEL)")
	fs.StringVar(&cfg.QROutput, "qr-output", config.QROutput, "path to write login QR code")
	fs.BoolVar(&cfg.NumericCode, "numeric-code", config.NumericCode, "print the raw login code instead of a QR block")

	if err := fs.Parse(args); err != nil {
		return config, err
	}

	// DSNs derived from the old state directory follow a -state-dir override.
	if cfg.StateDir != config.StateDir {
		derived := config
		derived.ApplicationDBDSN, derived.WhatsAppDBDSN = "", ""
		derived.applyDefaultDSNs()
		moved := Config{StateDir: cfg.StateDir}
		moved.applyDefaultDSNs()
		if cfg.ApplicationDBDSN == derived.ApplicationDBDSN {
			cfg.ApplicationDBDSN = moved.ApplicationDBDSN
		}
		if cfg.WhatsAppDBDSN == derived.WhatsAppDBDSN {
			cfg.WhatsAppDBDSN = moved.WhatsAppDBDSN
		}
	}
	return cfg, nil
}
