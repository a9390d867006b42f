package handler

import (
	"time"

	"consentgate/internal/consent"
	"consentgate/internal/gate"
)

// PlayerDecisionResponse is the wire shape of one per-player outcome.
type PlayerDecisionResponse struct {
	PlayerID        string     `json:"player_id,omitempty"`
	PlayerName      string     `json:"player_name,omitempty"`
	Allowed         bool       `json:"allowed"`
	Reason          string     `json:"reason"`
	ConsentStatus   string     `json:"consent_status"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	AnonymiseFaces  bool       `json:"anonymise_faces"`
	UseInitialsOnly bool       `json:"use_initials_only"`
}

// EvaluateResponse is the wire shape of a POST /gate/evaluate result.
type EvaluateResponse struct {
	Allowed         bool                     `json:"allowed"`
	Reason          string                   `json:"reason"`
	MediaType       string                   `json:"media_type"`
	Platform        string                   `json:"platform"`
	Duplicate       bool                     `json:"duplicate"`
	AnonymiseFaces  bool                     `json:"anonymise_faces"`
	UseInitialsOnly bool                     `json:"use_initials_only"`
	Players         []PlayerDecisionResponse `json:"players"`
	EvaluatedAt     time.Time                `json:"evaluated_at"`
}

// FromDecision converts a domain decision into its wire shape.
func FromDecision(decision *gate.AggregateDecision) EvaluateResponse {
	resp := EvaluateResponse{
		Allowed:         decision.Allowed,
		Reason:          decision.Reason,
		MediaType:       decision.MediaType,
		Platform:        decision.Platform,
		Duplicate:       decision.Duplicate,
		AnonymiseFaces:  decision.Redaction.AnonymiseFaces,
		UseInitialsOnly: decision.Redaction.UseInitialsOnly,
		Players:         make([]PlayerDecisionResponse, 0, len(decision.Players)),
		EvaluatedAt:     decision.EvaluatedAt,
	}
	for _, player := range decision.Players {
		resp.Players = append(resp.Players, fromPlayerDecision(player))
	}
	return resp
}

func fromPlayerDecision(d consent.Decision) PlayerDecisionResponse {
	return PlayerDecisionResponse{
		PlayerID:        d.PlayerID,
		PlayerName:      d.PlayerName,
		Allowed:         d.Allowed,
		Reason:          d.Reason,
		ConsentStatus:   string(d.Status),
		ExpiresAt:       d.ExpiresAt,
		AnonymiseFaces:  d.Redaction.AnonymiseFaces,
		UseInitialsOnly: d.Redaction.UseInitialsOnly,
	}
}
