package store

import (
	"strings"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// reportColumns is the column list shared by every report query.
const reportColumns = `id, reporter_wa, name, disaster_type, description, severity, happened_at,
	address, lat, lon, kecamatan, desa, media_urls, status, created_at`

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReport scans one report row. media receives the backend-specific
// media_urls column so the caller can decode it.
func scanReport(row rowScanner, media interface{}) (models.Report, error) {
	var r models.Report
	err := row.Scan(
		&r.ID, &r.ReporterWA, &r.Name, &r.DisasterType, &r.Description, &r.Severity, &r.HappenedAt,
		&r.Address, &r.Lat, &r.Lon, &r.District, &r.Village, media, &r.Status, &r.CreatedAt,
	)
	return r, err
}

// offset converts a 1-based page into a row offset.
func offset(page, size int) int {
	return (page - 1) * size
}

// withParams appends driver parameters to a DSN that may already carry a query string.
func withParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
