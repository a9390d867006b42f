// Package audit owns the durable decision log and its retention. Rows are
// append-only and self-contained so a later investigation can reconstruct
// exactly why a post was allowed or blocked.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Decision labels for audit rows.
const (
	DecisionAllowed = "allowed"
	DecisionBlocked = "blocked"
	// DecisionClear marks a report run that found nothing, so "ran and
	// found nothing" is distinguishable from "did not run".
	DecisionClear = "clear"
)

// Entry is one durable audit row: one per (decision, player) pair.
type Entry struct {
	ID         uuid.UUID
	Timestamp  time.Time
	PlayerID   string
	PlayerName string
	Action     string
	MediaType  string
	Platform   string
	Decision   string
	Reason     string
	// Context is a serialized blob (module, event type, match id, consent
	// status) captured at decision time.
	Context string
	Actor   string
}

// PlayerOutcome is the audit projection of one per-player consent decision.
type PlayerOutcome struct {
	PlayerID   string
	PlayerName string
	Status     string
	Reason     string
	Allowed    bool
}

// DecisionRecord is what the consent gate hands to the recorder for one
// publish attempt.
type DecisionRecord struct {
	Action      string
	Allowed     bool
	Reason      string
	MediaType   string
	Platform    string
	Module      string
	EventType   string
	MatchID     string
	Actor       string
	EvaluatedAt time.Time
	Players     []PlayerOutcome
}

// Summary condenses recent audit activity for dashboards.
type Summary struct {
	WindowDays   int        `json:"window_days"`
	TotalRows    int        `json:"total_rows"`
	BlockedCount int        `json:"blocked_count"`
	LastDecision *Entry     `json:"-"`
	LastAction   string     `json:"last_action,omitempty"`
	LastOutcome  string     `json:"last_outcome,omitempty"`
	LastAt       *time.Time `json:"last_at,omitempty"`
}
