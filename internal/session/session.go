// Package session keeps the in-progress report form of each reporter.
//
// Stores hold at most one form per reporter. They do not serialize access on
// their own: callers take the reporter's lock from a KeyedMutex around each
// get/modify/put cycle.
package session

import (
	"context"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// Store maps a reporter identifier to one in-progress form.
type Store interface {
	// Get returns the reporter's form, or nil when there is no session.
	Get(ctx context.Context, reporterID string) (*models.Form, error)
	// Put replaces the reporter's form.
	Put(ctx context.Context, reporterID string, form *models.Form) error
	// Delete removes the reporter's form. Deleting a missing session is not an error.
	Delete(ctx context.Context, reporterID string) error
}

// Expirer is implemented by stores that need an external sweep to drop idle sessions.
type Expirer interface {
	// ExpireIdle removes sessions last updated before cutoff and returns how many were removed.
	ExpireIdle(ctx context.Context, cutoff time.Time) (int, error)
}
