// Package expiry scans the consent ledger for grants lapsing soon and turns
// the findings into an audit row plus, when recipients are configured, an
// emailed summary for the club's welfare officers.
package expiry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"consentgate/internal/roster"
	"consentgate/pkg/requestcontext"
	"consentgate/pkg/sentinel"
)

// RosterProvider is the hydration boundary the reporter reads through.
type RosterProvider interface {
	Refresh(ctx context.Context, force bool) error
	Snapshot() *roster.Snapshot
}

// AuditRecorder receives the report outcome. Every run writes a row, even an
// empty one, so "ran and found nothing" stays distinguishable from "did not
// run".
type AuditRecorder interface {
	RecordReport(ctx context.Context, action string, findings int, context string, at time.Time) error
}

// Mailer dispatches the rendered summary. Dispatch failures are reported in
// the result, never propagated as report failures.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// Expiring is one grant lapsing within the notice window.
type Expiring struct {
	PlayerID      string             `json:"player_id"`
	PlayerName    string             `json:"player_name"`
	ConsentType   roster.ConsentType `json:"consent_type"`
	ExpiresAt     time.Time          `json:"expires_at"`
	DaysLeft      int                `json:"days_left"`
	GuardianEmail string             `json:"guardian_email,omitempty"`
}

// Report is the outcome of one scan.
type Report struct {
	Expiring    []Expiring `json:"expiring"`
	WindowDays  int        `json:"window_days"`
	EmailSent   bool       `json:"email_sent"`
	EmailError  string     `json:"email_error,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Reporter runs the periodic expiry scan.
type Reporter struct {
	hydrator   RosterProvider
	recorder   AuditRecorder
	mailer     Mailer
	recipients []string
	logger     *slog.Logger
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithMailer enables email dispatch to the given recipients.
func WithMailer(mailer Mailer, recipients []string) Option {
	return func(r *Reporter) {
		r.mailer = mailer
		r.recipients = recipients
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) { r.logger = logger }
}

// New constructs a Reporter.
func New(hydrator RosterProvider, recorder AuditRecorder, opts ...Option) *Reporter {
	r := &Reporter{hydrator: hydrator, recorder: recorder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report scans for grants expiring within the window, writes the audit row,
// and dispatches the summary when recipients are configured.
func (r *Reporter) Report(ctx context.Context, windowDays int) (*Report, error) {
	now := requestcontext.Now(ctx)

	expiring, err := r.scan(ctx, windowDays, now)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Expiring:    expiring,
		WindowDays:  windowDays,
		GeneratedAt: now,
	}

	if err := r.recorder.RecordReport(ctx, "consent_expiry_report", len(expiring), r.contextBlob(report), now); err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "expiry report audit write failed", "error", err)
		}
	}

	r.dispatch(ctx, report)
	return report, nil
}

// CountExpiring supplies the dashboard's expiring-consent count without the
// audit and mail side effects.
func (r *Reporter) CountExpiring(ctx context.Context, windowDays int) (int, error) {
	expiring, err := r.scan(ctx, windowDays, requestcontext.Now(ctx))
	if err != nil {
		return 0, err
	}
	return len(expiring), nil
}

func (r *Reporter) scan(ctx context.Context, windowDays int, now time.Time) ([]Expiring, error) {
	if err := r.hydrator.Refresh(ctx, false); err != nil {
		return nil, fmt.Errorf("refresh roster for expiry scan: %w", err)
	}
	snap := r.hydrator.Snapshot()
	if snap.Failed {
		return nil, fmt.Errorf("expiry scan: roster snapshot %w", sentinel.ErrUnavailable)
	}

	horizon := now.AddDate(0, 0, windowDays)
	var out []Expiring

	for _, profile := range snap.Profiles {
		records := snap.RecordsFor(profile)
		for _, record := range records {
			if record.Status != roster.StatusGranted || record.ExpiresAt == nil {
				continue
			}
			if record.ExpiresAt.Before(now) || record.ExpiresAt.After(horizon) {
				continue
			}
			if revokedForType(records, record.Type, now) {
				continue
			}
			out = append(out, Expiring{
				PlayerID:      profile.PlayerID,
				PlayerName:    profile.FullName,
				ConsentType:   record.Type,
				ExpiresAt:     *record.ExpiresAt,
				DaysLeft:      int(record.ExpiresAt.Sub(now).Hours() / 24),
				GuardianEmail: profile.GuardianEmail,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

// revokedForType reports whether a later revocation covers the given type.
func revokedForType(records []*roster.ConsentRecord, typ roster.ConsentType, now time.Time) bool {
	for _, record := range records {
		if record.Matches(typ) && record.RevocationEffective(now) {
			return true
		}
	}
	return false
}

func (r *Reporter) dispatch(ctx context.Context, report *Report) {
	if r.mailer == nil || len(r.recipients) == 0 {
		return
	}

	body, err := renderHTML(report)
	if err != nil {
		report.EmailError = err.Error()
		if r.logger != nil {
			r.logger.WarnContext(ctx, "expiry report render failed", "error", err)
		}
		return
	}

	subject := fmt.Sprintf("Consent expiry report: %d expiring within %d days",
		len(report.Expiring), report.WindowDays)
	if err := r.mailer.Send(ctx, r.recipients, subject, body); err != nil {
		report.EmailError = err.Error()
		if r.logger != nil {
			r.logger.WarnContext(ctx, "expiry report dispatch failed",
				"recipients", len(r.recipients),
				"error", err,
			)
		}
		return
	}
	report.EmailSent = true
}

func (r *Reporter) contextBlob(report *Report) string {
	blob := map[string]any{
		"window_days": report.WindowDays,
		"expiring":    len(report.Expiring),
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return "{}"
	}
	return string(data)
}
