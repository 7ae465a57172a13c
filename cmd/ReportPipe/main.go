// Command ReportPipe runs the WhatsApp disaster report bot and its HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Asia/Pontianak must resolve on minimal images

	"github.com/BTreeMap/ReportPipe/internal/api"
	"github.com/BTreeMap/ReportPipe/internal/flow"
	"github.com/BTreeMap/ReportPipe/internal/lockfile"
	"github.com/BTreeMap/ReportPipe/internal/messaging"
	"github.com/BTreeMap/ReportPipe/internal/scheduler"
	"github.com/BTreeMap/ReportPipe/internal/session"
	"github.com/BTreeMap/ReportPipe/internal/store"
	"github.com/BTreeMap/ReportPipe/internal/twiliowhatsapp"
	"github.com/BTreeMap/ReportPipe/internal/util"
	"github.com/BTreeMap/ReportPipe/internal/whatsapp"
)

func main() {
	// Provisional logger until LOG_LEVEL is known
	initializeLogger("info")

	config, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], loadEnvironmentConfig())
	if err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}
	initializeLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping ReportPipe", "provider", config.Provider, "session_store", config.SessionStore, "api_addr", config.APIAddr)
	if err := run(ctx, config); err != nil {
		slog.Error("ReportPipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ReportPipe exited successfully")
}

// initializeLogger sets up structured logging at the configured level
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: util.ParseLogLevel(level)}))
	slog.SetDefault(logger)
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, config Config) error {
	lock, err := lockfile.Acquire(config.StateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", config.Timezone, err)
	}

	reports, err := openReportStore(ctx, config.ApplicationDBDSN)
	if err != nil {
		return err
	}
	defer reports.Close()

	sessions, closeSessions, err := openSessionStore(ctx, config)
	if err != nil {
		return err
	}
	defer closeSessions()

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if expirer, ok := sessions.(session.Expirer); ok {
		if err := session.NewSweeper(expirer, config.SessionIdleTTL).Schedule(sched, DefaultSweepSchedule); err != nil {
			return err
		}
	}

	engine := flow.NewEngine(sessions, store.NewGateway(reports),
		flow.WithMapBaseURL(config.MapBaseURL),
		flow.WithLocation(loc),
		flow.WithKeepAlive(config.SessionIdleTTL > 0),
	)

	svc, apiOpts, cleanup, err := openMessaging(ctx, config)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := messaging.NewResponseHandler(svc, engine, messaging.WithDedup(reports))
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	handler.Start(ctx)

	apiOpts = append(apiOpts, api.WithAddr(config.APIAddr))
	serveErr := api.NewServer(reports, apiOpts...).Run(ctx)

	// Finish queued conversations while replies can still be sent, then
	// stop the transport before the stores close.
	handler.Wait()
	if stopErr := svc.Stop(); stopErr != nil {
		slog.Warn("Messaging service stop failed", "error", stopErr)
	}
	return serveErr
}

// openReportStore picks PostgreSQL or SQLite from the DSN shape.
func openReportStore(ctx context.Context, dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == store.DriverPostgres {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(ctx, store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// openSessionStore returns the configured session store and its closer.
func openSessionStore(ctx context.Context, config Config) (session.Store, func(), error) {
	switch config.SessionStore {
	case SessionStoreMemory:
		return session.NewMemoryStore(), func() {}, nil
	case SessionStoreRedis:
		rs, err := session.NewRedisStore(ctx,
			session.WithRedisAddr(config.RedisAddr),
			session.WithRedisAuth(config.RedisPassword, config.RedisDB),
			session.WithRedisIdleTTL(config.SessionIdleTTL),
		)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				slog.Warn("Failed to close Redis session store", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q (want %s or %s)", config.SessionStore, SessionStoreMemory, SessionStoreRedis)
	}
}

// openMessaging builds the transport and any API routes it needs.
func openMessaging(ctx context.Context, config Config) (messaging.Service, []api.Option, func(), error) {
	switch config.Provider {
	case ProviderWhatsApp:
		var waOpts []whatsapp.Option
		waOpts = append(waOpts, whatsapp.WithDBDSN(config.WhatsAppDBDSN))
		if config.QROutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(config.QROutput))
		}
		if config.NumericCode {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(ctx, waOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
		return messaging.NewWhatsAppService(client), []api.Option{api.WithQRSource(client)}, client.Disconnect, nil

	case ProviderTwilio:
		client, err := twiliowhatsapp.NewClient(
			twiliowhatsapp.WithAccountSID(config.TwilioSID),
			twiliowhatsapp.WithAuthToken(config.TwilioToken),
			twiliowhatsapp.WithFromWhats(config.TwilioFrom),
		)
		if err != nil {
			return nil, nil, nil, err
		}
		var svcOpts []messaging.TwilioOption
		if config.TwilioWebhookURL != "" {
			svcOpts = append(svcOpts, messaging.WithSignatureValidation(client, config.TwilioWebhookURL))
		} else {
			slog.Warn("TWILIO_WEBHOOK_URL not set; inbound webhook signatures are not checked")
		}
		svc := messaging.NewTwilioService(client, svcOpts...)
		return svc, []api.Option{api.WithTwilioWebhook(svc.TwilioWebhookHandler)}, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown MESSAGING_PROVIDER %q (want %s or %s)", config.Provider, ProviderWhatsApp, ProviderTwilio)
	}
}
