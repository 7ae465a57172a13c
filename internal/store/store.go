// Package store provides storage backends for ReportPipe.
//
// It persists confirmed disaster reports, serves the query side of the HTTP
// API and records inbound message IDs so redelivered messages are ignored.
// SQLite, PostgreSQL and in-memory backends share the same interfaces.
package store

import (
	"context"
	"strings"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option is a functional option for configuring a store.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Driver names returned by DetectDSNType.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DetectDSNType returns DriverPostgres for URL or key=value PostgreSQL
// connection strings and DriverSQLite for anything else, which is treated as
// a file path.
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") {
		return DriverPostgres
	}
	if strings.Contains(d, "host=") || strings.Contains(d, "dbname=") || strings.Contains(d, "user=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Listing limits shared by all backends.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MaxMapReports   = 1000
)

// ReportStore persists reports and serves the read side of the HTTP API.
// Listings exclude reports with status invalid and are ordered newest first.
type ReportStore interface {
	// CreateReport inserts a report whose ID and CreatedAt are already set.
	CreateReport(ctx context.Context, r models.Report) error
	// ListReports returns one 1-based page and the total number of listable reports.
	ListReports(ctx context.Context, page, size int) ([]models.Report, int, error)
	// ListMapReports returns up to limit reports that carry non-zero coordinates.
	ListMapReports(ctx context.Context, limit int) ([]models.Report, error)
	// GetReport returns models.ErrReportNotFound for unknown IDs.
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// DeleteReport returns models.ErrReportNotFound for unknown IDs.
	DeleteReport(ctx context.Context, id string) error
	Close() error
}

// Store is the full persistence surface a backend provides.
type Store interface {
	ReportStore
	DedupRepo
}

// NormalizePage clamps page and size to the supported range.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
