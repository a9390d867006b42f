package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"consentgate/internal/pii"
)

// Recorder appends decision rows and enforces retention after every write.
type Recorder struct {
	store   Store
	maxRows int
	logger  *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

func WithMaxRows(maxRows int) RecorderOption {
	return func(r *Recorder) { r.maxRows = maxRows }
}

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, maxRows: 2000}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes one row per player evaluated, or a single synthetic row with
// empty player fields when no players were evaluated. Retention is enforced
// after the write.
func (r *Recorder) Record(ctx context.Context, rec DecisionRecord) error {
	decision := DecisionBlocked
	if rec.Allowed {
		decision = DecisionAllowed
	}

	timestamp := rec.EvaluatedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	players := rec.Players
	if len(players) == 0 {
		players = []PlayerOutcome{{Reason: rec.Reason}}
	}

	for _, player := range players {
		entry := Entry{
			ID:         uuid.New(),
			Timestamp:  timestamp,
			PlayerID:   player.PlayerID,
			PlayerName: player.PlayerName,
			Action:     rec.Action,
			MediaType:  rec.MediaType,
			Platform:   rec.Platform,
			Decision:   decision,
			Reason:     firstNonEmpty(player.Reason, rec.Reason),
			Context:    r.contextBlob(rec, player),
			Actor:      rec.Actor,
		}
		if err := r.store.Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit row: %w", err)
		}
	}

	return r.enforceRetention(ctx)
}

// RecordReport writes a single row for a report run. An empty finding set is
// recorded as decision=clear.
func (r *Recorder) RecordReport(ctx context.Context, action string, findings int, context string, at time.Time) error {
	decision := DecisionClear
	reason := "no_findings"
	if findings > 0 {
		decision = DecisionAllowed
		reason = fmt.Sprintf("%d_findings", findings)
	}
	entry := Entry{
		ID:        uuid.New(),
		Timestamp: at,
		Action:    action,
		Decision:  decision,
		Reason:    reason,
		Context:   context,
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append report audit row: %w", err)
	}
	return r.enforceRetention(ctx)
}

// Summarize condenses audit activity over the window for the dashboard.
func (r *Recorder) Summarize(ctx context.Context, windowDays int, now time.Time) (*Summary, error) {
	entries, err := r.store.ListSince(ctx, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, fmt.Errorf("summarize audit window: %w", err)
	}

	summary := &Summary{WindowDays: windowDays, TotalRows: len(entries)}
	for i := range entries {
		if entries[i].Decision == DecisionBlocked {
			summary.BlockedCount++
		}
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		summary.LastDecision = &last
		summary.LastAction = last.Action
		summary.LastOutcome = last.Decision
		ts := last.Timestamp
		summary.LastAt = &ts
	}
	return summary, nil
}

// contextBlob serializes the evaluation context. The player name inside the
// blob goes through the PII masker so exported blobs stay initials-only; the
// dedicated name column remains authoritative for investigations.
func (r *Recorder) contextBlob(rec DecisionRecord, player PlayerOutcome) string {
	blob := map[string]any{
		"module":         rec.Module,
		"event_type":     rec.EventType,
		"match_id":       rec.MatchID,
		"consent_status": player.Status,
		"player_allowed": player.Allowed,
	}
	if player.PlayerName != "" {
		blob["player_name"] = pii.Mask(player.PlayerName, pii.TypeName, pii.StrategyInitials)
	}

	data, err := json.Marshal(blob)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("failed to serialize audit context", "error", err)
		}
		return "{}"
	}
	return string(data)
}

func (r *Recorder) enforceRetention(ctx context.Context) error {
	count, err := r.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count for retention: %w", err)
	}
	excess := count - r.maxRows
	if excess <= 0 {
		return nil
	}
	if err := r.store.DeleteOldest(ctx, excess); err != nil {
		return fmt.Errorf("enforce retention: %w", err)
	}
	if r.logger != nil {
		r.logger.Info("audit log trimmed", "deleted", excess, "max_rows", r.maxRows)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
