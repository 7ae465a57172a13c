package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/ReportPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is the default single-node backend. Times are stored in UTC so
// the text ordering of created_at matches chronological order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", withParams(dsn, "_busy_timeout=5000&_foreign_keys=on"))
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateReport(ctx context.Context, r models.Report) error {
	media, err := json.Marshal(mediaOrEmpty(r.MediaURLs))
	if err != nil {
		return fmt.Errorf("failed to encode media urls: %w", err)
	}
	var happened interface{}
	if r.HappenedAt != nil {
		happened = r.HappenedAt.UTC()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ReporterWA, r.Name, string(r.DisasterType), r.Description, r.Severity, happened,
		r.Address, r.Lat, r.Lon, r.District, r.Village, string(media), string(r.Status), r.CreatedAt.UTC(),
	)
	if err != nil {
		slog.Error("SQLiteStore CreateReport failed", "error", err, "id", r.ID)
		return fmt.Errorf("failed to insert report %s: %w", r.ID, err)
	}
	slog.Debug("SQLiteStore CreateReport succeeded", "id", r.ID, "type", r.DisasterType)
	return nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, page, size int) ([]models.Report, int, error) {
	page, size = NormalizePage(page, size)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE status <> ?`, string(models.ReportStatusInvalid),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE status <> ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		string(models.ReportStatusInvalid), size, offset(page, size))
	if err != nil {
		slog.Error("SQLiteStore ListReports query failed", "error", err)
		return nil, 0, fmt.Errorf("failed to query reports: %w", err)
	}
	reports, err := s.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *SQLiteStore) ListMapReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit < 1 || limit > MaxMapReports {
		limit = MaxMapReports
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE status <> ? AND NOT (lat = 0 AND lon = 0)
		ORDER BY created_at DESC LIMIT ?`,
		string(models.ReportStatusInvalid), limit)
	if err != nil {
		slog.Error("SQLiteStore ListMapReports query failed", "error", err)
		return nil, fmt.Errorf("failed to query map reports: %w", err)
	}
	return s.collect(rows)
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanSQLiteReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore DeleteReport failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return models.ErrReportNotFound
	}
	slog.Info("SQLiteStore DeleteReport succeeded", "id", id)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) collect(rows *sql.Rows) ([]models.Report, error) {
	defer rows.Close()
	reports := []models.Report{}
	for rows.Next() {
		r, err := scanSQLiteReport(rows)
		if err != nil {
			slog.Error("SQLiteStore report scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return reports, nil
}

func scanSQLiteReport(row rowScanner) (models.Report, error) {
	var media string
	r, err := scanReport(row, &media)
	if err != nil {
		return r, err
	}
	r.MediaURLs = []string{}
	if media != "" {
		if err := json.Unmarshal([]byte(media), &r.MediaURLs); err != nil {
			return r, fmt.Errorf("failed to decode media urls: %w", err)
		}
	}
	return r, nil
}

func mediaOrEmpty(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}

var _ Store = (*SQLiteStore)(nil)
