package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Gateway accepts reports from the conversation engine, validates them,
// assigns an ID and writes them to a ReportStore. Every error it returns
// wraps either models.ErrSubmitTransient or models.ErrSubmitPermanent.
type Gateway struct {
	store    ReportStore
	validate *validator.Validate
	newID    func() string
	now      func() time.Time
}

// NewGateway creates a Gateway over store.
func NewGateway(store ReportStore) *Gateway {
	return &Gateway{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// SubmitReport persists r and returns its generated ID.
func (g *Gateway) SubmitReport(ctx context.Context, r models.Report) (string, error) {
	if err := g.validate.Struct(r); err != nil {
		slog.Warn("Gateway.SubmitReport rejected report", "reporter", r.ReporterWA, "error", err)
		return "", fmt.Errorf("%w: invalid report: %w", models.ErrSubmitPermanent, err)
	}

	r.ID = g.newID()
	r.CreatedAt = g.now()
	if r.Status == "" {
		r.Status = models.ReportStatusNew
	}
	r.MediaURLs = mediaOrEmpty(r.MediaURLs)

	if err := g.store.CreateReport(ctx, r); err != nil {
		classified := ClassifySubmitError(err)
		slog.Error("Gateway.SubmitReport failed", "reporter", r.ReporterWA, "error", classified)
		return "", classified
	}
	slog.Info("Report stored", "id", r.ID, "reporter", r.ReporterWA, "type", r.DisasterType)
	return r.ID, nil
}
