// Package gate is the decision aggregator: it evaluates every player
// referenced by an outbound post, combines the per-player decisions into a
// single allow/deny with merged redaction directives, and writes the audit
// trail. The publishing workflow must honor the decision before dispatching.
package gate

import (
	"strings"
	"time"

	"consentgate/internal/consent"
	"consentgate/internal/roster"
)

// Aggregate reason codes. Per-player reasons live in the consent package;
// these describe the combined outcome.
const (
	ReasonAllConsented = "all_players_consented"
	ReasonNoSubjects   = "no_subjects"
)

// EvaluateRequest describes one outbound post to be checked.
type EvaluateRequest struct {
	Players   []consent.PlayerRef
	MediaType string
	Platform  string
	Module    string
	EventType string
	MatchID   string
	// ConsentType overrides the consent type derived from MediaType.
	ConsentType roster.ConsentType
	Actor       string
}

// consentType maps the outbound media type onto the ledger's consent types
// unless the caller pinned one explicitly.
func (r EvaluateRequest) consentType() roster.ConsentType {
	if r.ConsentType != "" {
		return r.ConsentType
	}
	switch strings.ToLower(r.MediaType) {
	case "video", "video_highlights", "highlights":
		return roster.TypeVideoHighlights
	case "portrait", "headshot":
		return roster.TypePortrait
	case "matchday", "matchday_photo":
		return roster.TypeMatchday
	default:
		return roster.TypeGeneralMedia
	}
}

// seenKey identifies a publish attempt for dedupe purposes.
func (r EvaluateRequest) seenKey() string {
	return strings.Join([]string{r.Module, r.EventType, r.MatchID, r.Platform, r.MediaType}, "|")
}

// AggregateDecision is the combined outcome for one publish attempt.
type AggregateDecision struct {
	Allowed   bool               `json:"allowed"`
	Reason    string             `json:"reason"`
	MediaType string             `json:"media_type"`
	Platform  string             `json:"platform"`
	Module    string             `json:"module"`
	EventType string             `json:"event_type"`
	MatchID   string             `json:"match_id"`
	Players   []consent.Decision `json:"players"`
	Redaction consent.Redaction  `json:"redaction"`
	// Duplicate marks a publish attempt whose seen-key was already marked.
	// The decision is still computed; the caller decides whether to skip.
	Duplicate   bool      `json:"duplicate"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// DashboardSummary condenses engine state for the operator dashboard.
type DashboardSummary struct {
	TotalPlayers             int    `json:"total_players"`
	Minors                   int    `json:"minors"`
	MinorsWithoutActiveGrant int    `json:"minors_without_active_consent"`
	ExpiringConsents         int    `json:"expiring_consents"`
	AuditBlockedCount        int    `json:"audit_blocked_count"`
	AuditTotalRows           int    `json:"audit_total_rows"`
	AuditLastAction          string `json:"audit_last_action,omitempty"`
	AuditLastOutcome         string `json:"audit_last_outcome,omitempty"`
	WindowDays               int    `json:"window_days"`
}
