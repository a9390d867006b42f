package handler

import (
	"strconv"

	"consentgate/internal/consent"
	"consentgate/internal/gate"
	"consentgate/internal/roster"
	dErrors "consentgate/pkg/domain-errors"
)

// PlayerRefPayload references a player by id, name, or both.
type PlayerRefPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// EvaluateRequest is the wire shape of POST /gate/evaluate.
type EvaluateRequest struct {
	Players     []PlayerRefPayload `json:"players"`
	MediaType   string             `json:"media_type"`
	Platform    string             `json:"platform"`
	Module      string             `json:"module"`
	EventType   string             `json:"event_type"`
	MatchID     string             `json:"match_id"`
	ConsentType string             `json:"consent_type,omitempty"`
}

// Validate rejects requests the gate cannot meaningfully evaluate. An empty
// player list is valid (nothing to protect); a missing media type is not.
func (r EvaluateRequest) Validate() error {
	if r.MediaType == "" {
		return dErrors.New(dErrors.CodeBadRequest, "media_type is required")
	}
	if r.Platform == "" {
		return dErrors.New(dErrors.CodeBadRequest, "platform is required")
	}
	return nil
}

// ToDomain converts the wire request into the gate's domain request.
func (r EvaluateRequest) ToDomain(actor string) gate.EvaluateRequest {
	req := gate.EvaluateRequest{
		MediaType:   r.MediaType,
		Platform:    r.Platform,
		Module:      r.Module,
		EventType:   r.EventType,
		MatchID:     r.MatchID,
		ConsentType: roster.ConsentType(r.ConsentType),
		Actor:       actor,
	}
	for _, p := range r.Players {
		req.Players = append(req.Players, consent.PlayerRef{ID: p.ID, Name: p.Name})
	}
	return req
}

func parseWindowDays(raw string) (int, error) {
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "window_days must be a positive integer")
	}
	return days, nil
}
