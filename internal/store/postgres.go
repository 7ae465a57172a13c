package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database connection pool configuration constants
const (
	// DefaultMaxConns is the default maximum number of pooled connections
	DefaultMaxConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultConnectTimeout bounds pool creation and the startup ping
	DefaultConnectTimeout = 10 * time.Second
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the shared backend for multi-instance deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(ctx context.Context, opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		slog.Error("Failed to parse pgx config", "error", err)
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = DefaultMaxConns
	poolCfg.MaxConnLifetime = DefaultConnMaxLifetime

	connectCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		slog.Error("Failed to create pgx pool", "error", err)
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	slog.Debug("Running Postgres migrations")
	if _, err := pool.Exec(connectCtx, postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Postgres store ready", "max_conns", poolCfg.MaxConns)

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r models.Report) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.ReporterWA, r.Name, string(r.DisasterType), r.Description, r.Severity, r.HappenedAt,
		r.Address, r.Lat, r.Lon, r.District, r.Village, mediaOrEmpty(r.MediaURLs), string(r.Status), r.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore CreateReport failed", "error", err, "id", r.ID)
		return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
	}
	slog.Debug("PostgresStore CreateReport succeeded", "id", r.ID, "type", r.DisasterType)
	return nil
}

func (s *PostgresStore) ListReports(ctx context.Context, page, size int) ([]models.Report, int, error) {
	page, size = NormalizePage(page, size)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE status <> $1`, string(models.ReportStatusInvalid),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE status <> $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(models.ReportStatusInvalid), size, offset(page, size))
	if err != nil {
		slog.Error("PostgresStore ListReports query failed", "error", err)
		return nil, 0, fmt.Errorf("failed to query reports: %w", err)
	}
	reports, err := collectPostgres(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *PostgresStore) ListMapReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit < 1 || limit > MaxMapReports {
		limit = MaxMapReports
	}
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE status <> $1 AND NOT (lat = 0 AND lon = 0)
		ORDER BY created_at DESC LIMIT $2`,
		string(models.ReportStatusInvalid), limit)
	if err != nil {
		slog.Error("PostgresStore ListMapReports query failed", "error", err)
		return nil, fmt.Errorf("failed to query map reports: %w", err)
	}
	return collectPostgres(rows)
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id::text = $1`, id)
	r, err := scanPostgresReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) DeleteReport(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id::text = $1`, id)
	if err != nil {
		slog.Error("PostgresStore DeleteReport failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrReportNotFound
	}
	slog.Info("PostgresStore DeleteReport succeeded", "id", id)
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres connection pool")
	s.pool.Close()
	return nil
}

func collectPostgres(rows pgx.Rows) ([]models.Report, error) {
	defer rows.Close()
	reports := []models.Report{}
	for rows.Next() {
		r, err := scanPostgresReport(rows)
		if err != nil {
			slog.Error("PostgresStore report scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return reports, nil
}

func scanPostgresReport(row rowScanner) (models.Report, error) {
	var media []string
	r, err := scanReport(row, &media)
	if err != nil {
		return r, err
	}
	r.MediaURLs = mediaOrEmpty(media)
	return r, nil
}

var _ Store = (*PostgresStore)(nil)
