// Package flow implements the report conversation: the step-by-step state
// machine that fills a disaster report form from a reporter's replies.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/areas"
	"github.com/BTreeMap/ReportPipe/internal/disaster"
	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/session"
	"github.com/BTreeMap/ReportPipe/internal/timeparse"
)

//go:generate mockgen -source=engine.go -destination=mocks/mock_gateway.go -package=mock_flow

// ReportGateway durably stores a confirmed report and returns its ID.
// Errors wrap models.ErrSubmitTransient or models.ErrSubmitPermanent.
type ReportGateway interface {
	SubmitReport(ctx context.Context, r models.Report) (string, error)
}

// DefaultMapBaseURL is used in the success reply when no map URL is configured.
const DefaultMapBaseURL = "https://map.domain.id"

// coordinatePrecision rounds coordinates to 7 decimal places.
const coordinatePrecision = 1e7

// Engine advances reporter sessions. It is safe for concurrent use: events
// for one reporter are serialized and different reporters run in parallel.
type Engine struct {
	sessions   session.Store
	gateway    ReportGateway
	areas      *areas.Index
	locks      *session.KeyedMutex
	mapBaseURL string
	location   *time.Location
	now        func() time.Time
	keepAlive  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMapBaseURL sets the base of the map link sent after a successful report.
func WithMapBaseURL(url string) Option {
	return func(e *Engine) {
		if url != "" {
			e.mapBaseURL = url
		}
	}
}

// WithAreaIndex replaces the default administrative area index.
func WithAreaIndex(idx *areas.Index) Option {
	return func(e *Engine) { e.areas = idx }
}

// WithLocation sets the time zone used to interpret reported times.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithKeepAlive makes Handle write the session back on re-prompts so its
// idle timer restarts while the reporter is still answering.
func WithKeepAlive(enabled bool) Option {
	return func(e *Engine) { e.keepAlive = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine over a session store and a report gateway.
func NewEngine(sessions session.Store, gateway ReportGateway, opts ...Option) *Engine {
	e := &Engine{
		sessions:   sessions,
		gateway:    gateway,
		areas:      areas.Default(),
		locks:      session.NewKeyedMutex(),
		mapBaseURL: DefaultMapBaseURL,
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one inbound event for its reporter and returns the reply.
// The session is loaded, advanced and written back while holding the
// reporter's lock. If advancing panics the stored session is left as it was
// and an error is returned; callers reply with PromptApology.
func (e *Engine) Handle(ctx context.Context, evt models.InboundEvent) (reply string, err error) {
	if evt.ReporterID == "" {
		return "", errors.New("inbound event has no reporter id")
	}
	unlock := e.locks.Lock(evt.ReporterID)
	defer unlock()

	current, err := e.sessions.Get(ctx, evt.ReporterID)
	if err != nil {
		return "", fmt.Errorf("failed to load session for %s: %w", evt.ReporterID, err)
	}

	next, reply, err := e.advanceSafely(ctx, current, evt)
	if err != nil {
		return "", err
	}

	switch {
	case next == nil && current != nil:
		if err := e.sessions.Delete(ctx, evt.ReporterID); err != nil {
			return "", fmt.Errorf("failed to evict session for %s: %w", evt.ReporterID, err)
		}
	case next != nil && next != current:
		if err := e.sessions.Put(ctx, evt.ReporterID, next); err != nil {
			return "", fmt.Errorf("failed to save session for %s: %w", evt.ReporterID, err)
		}
	case next != nil && e.keepAlive:
		touched := next.Clone()
		touched.UpdatedAt = e.now()
		if err := e.sessions.Put(ctx, evt.ReporterID, touched); err != nil {
			return "", fmt.Errorf("failed to refresh session for %s: %w", evt.ReporterID, err)
		}
	}
	return reply, nil
}

func (e *Engine) advanceSafely(ctx context.Context, current *models.Form, evt models.InboundEvent) (next *models.Form, reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Engine.Advance panicked", "reporter", evt.ReporterID, "panic", r)
			next, reply, err = current, "", fmt.Errorf("advance panicked: %v", r)
		}
	}()
	next, reply = e.Advance(ctx, current, evt)
	return next, reply, nil
}

// Advance computes the next form and the reply for one event. current may be
// nil when the reporter has no session. A nil result means there is no
// session afterwards. When the answer is rejected current itself is
// returned, so callers can detect "unchanged" by pointer.
func (e *Engine) Advance(ctx context.Context, current *models.Form, evt models.InboundEvent) (*models.Form, string) {
	text := strings.TrimSpace(evt.TextBody())
	cmd := strings.ToLower(text)
	now := e.now()

	if cmd == CommandRestart {
		slog.Info("Session restarted", "reporter", evt.ReporterID)
		return models.NewForm(evt.ReporterID, now), PromptRestart
	}
	if current == nil {
		for _, start := range StartCommands {
			if cmd == start {
				slog.Info("Session started", "reporter", evt.ReporterID)
				return models.NewForm(evt.ReporterID, now), PromptStart
			}
		}
		return nil, PromptNoSession
	}
	if !current.Step.IsValid() {
		slog.Warn("Session has unknown step, restarting", "reporter", evt.ReporterID, "step", current.Step)
		return models.NewForm(evt.ReporterID, now), PromptRestart
	}

	next := current.Clone()
	next.UpdatedAt = now

	var reply string
	var accepted bool
	switch current.Step {
	case models.StepName:
		accepted, reply = e.answerName(next, text)
	case models.StepType:
		accepted, reply = e.answerType(next, text)
	case models.StepLocation:
		accepted, reply = e.answerLocation(next, evt, text)
	case models.StepDistrict:
		accepted, reply = e.answerDistrict(next, cmd)
	case models.StepVillage:
		accepted, reply = e.answerVillage(next, cmd)
	case models.StepTime:
		accepted, reply = e.answerTime(next, text, now)
	case models.StepDescription:
		accepted, reply = e.answerDescription(next, text)
	case models.StepSeverity:
		accepted, reply = e.answerSeverity(next, text, cmd)
	case models.StepConfirm:
		return e.confirm(ctx, current, cmd)
	}

	if !accepted {
		return current, reply
	}
	slog.Debug("Session advanced", "reporter", evt.ReporterID, "from", current.Step, "to", next.Step)
	return next, reply
}

func (e *Engine) answerName(f *models.Form, text string) (bool, string) {
	if text == "" {
		return false, PromptNameRequired
	}
	f.Name = text
	f.Step = models.StepType
	return true, promptType()
}

func (e *Engine) answerType(f *models.Form, text string) (bool, string) {
	f.DisasterType = disaster.Classify(text)
	f.Step = models.StepLocation
	return true, PromptLocation
}

func (e *Engine) answerLocation(f *models.Form, evt models.InboundEvent, text string) (bool, string) {
	if evt.Kind == models.EventKindLocation {
		loc := evt.Location
		if loc == nil || !validCoordinates(loc.Latitude, loc.Longitude) {
			return false, PromptLocationBad
		}
		lat, lon := roundCoordinate(*loc.Latitude), roundCoordinate(*loc.Longitude)
		f.Latitude, f.Longitude = &lat, &lon
		f.Address = firstNonEmpty(loc.Name, loc.Address)
		f.AccuracyMeters = loc.AccuracyMeters
		f.IsLiveLocation = loc.IsLive
		f.LiveLocationExpiresAt = loc.ExpiresAt
		f.SourceMessageID = evt.SourceMessageID
		if !evt.SourceTimestamp.IsZero() {
			ts := evt.SourceTimestamp
			f.SourceTimestamp = &ts
		}
		f.Step = models.StepDistrict
		return true, promptDistricts(e.areas)
	}
	if text == "" {
		return false, PromptLocationNeed
	}
	f.Address = text
	f.Step = models.StepDistrict
	return true, "Alamat dicatat. Untuk akurasi, sebaiknya Share Location.\n\n" + promptDistricts(e.areas)
}

func (e *Engine) answerDistrict(f *models.Form, cmd string) (bool, string) {
	if cmd == CommandSkip {
		f.Step = models.StepTime
		return true, promptTime()
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return false, promptDistrictInvalid(e.areas)
	}
	name, ok := e.areas.DistrictAt(n)
	if !ok {
		return false, promptDistrictInvalid(e.areas)
	}
	f.District = name
	f.Step = models.StepVillage
	return true, promptVillages(e.areas, name)
}

func (e *Engine) answerVillage(f *models.Form, cmd string) (bool, string) {
	if cmd == CommandSkip || f.District == "" {
		f.Step = models.StepTime
		return true, promptTime()
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return false, PromptVillageBadNum
	}
	name, ok := e.areas.SettlementAt(f.District, n)
	if !ok {
		return false, PromptVillageMiss
	}
	f.Village = name
	f.Step = models.StepTime
	return true, "Desa/Kelurahan: " + name + "\n\n" + promptTime()
}

func (e *Engine) answerTime(f *models.Form, text string, now time.Time) (bool, string) {
	at, ok := timeparse.Parse(text, now.In(e.location))
	if !ok {
		return false, promptTimeInvalid()
	}
	f.OccurredAt = &at
	f.Step = models.StepDescription
	return true, PromptDescription
}

func (e *Engine) answerDescription(f *models.Form, text string) (bool, string) {
	if text == "" {
		return false, PromptDescriptionRe
	}
	f.Description = models.TruncateDescription(text)
	f.Step = models.StepSeverity
	return true, PromptSeverity
}

func (e *Engine) answerSeverity(f *models.Form, text, cmd string) (bool, string) {
	if cmd != CommandSkip && text != "" {
		f.Severity = text
	}
	f.Step = models.StepConfirm
	return true, summary(f)
}

// confirm handles the last step. The form is only evicted after the gateway
// reports success; both failure classes keep it for a later retry.
func (e *Engine) confirm(ctx context.Context, current *models.Form, cmd string) (*models.Form, string) {
	switch {
	case cmd == CommandSend:
		id, err := e.gateway.SubmitReport(ctx, models.ReportFromForm(current))
		switch {
		case err == nil:
			slog.Info("Report submitted", "reporter", current.ReporterID, "id", id)
			return nil, promptSuccess(e.mapBaseURL, id)
		case errors.Is(err, models.ErrSubmitTransient):
			slog.Warn("Report submission deferred, store unavailable", "reporter", current.ReporterID, "error", err)
			return current, PromptSubmitTransient
		default:
			slog.Error("Report submission rejected", "reporter", current.ReporterID, "error", err)
			return current, PromptSubmitPermanent
		}
	case strings.HasPrefix(cmd, CommandEditPrefix):
		return current, PromptEdit
	default:
		return current, PromptConfirmRe
	}
}

func validCoordinates(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if math.IsNaN(*lat) || math.IsInf(*lat, 0) || math.IsNaN(*lon) || math.IsInf(*lon, 0) {
		return false
	}
	return math.Abs(*lat) <= 90 && math.Abs(*lon) <= 180
}

func roundCoordinate(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
