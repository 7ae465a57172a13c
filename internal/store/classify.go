package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ClassifySubmitError wraps err with models.ErrSubmitTransient when the store
// was unreachable or busy or the write was cut short by shutdown, and with
// models.ErrSubmitPermanent otherwise. Errors that are already classified are returned unchanged.
func ClassifySubmitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrSubmitTransient) || errors.Is(err, models.ErrSubmitPermanent) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", models.ErrSubmitTransient, err)
	}
	return fmt.Errorf("%w: %w", models.ErrSubmitPermanent, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrFull:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isTransientPgCode covers connection exceptions (08), insufficient resources
// (53), operator intervention such as admin shutdown (57P) and serialization
// failures or deadlocks that succeed on retry.
func isTransientPgCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"),
		strings.HasPrefix(code, "53"),
		strings.HasPrefix(code, "57P"),
		code == "40001", code == "40P01":
		return true
	}
	return false
}
