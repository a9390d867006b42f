package gate

import (
	"strings"

	"consentgate/internal/consent"
	"consentgate/internal/pii"
)

// ApplyToPayload merges a decision's redaction directives into an outbound
// payload. The input payload is copied, never mutated, so the caller can
// retry with the original if a later decision differs.
func ApplyToPayload(payload map[string]any, decision *AggregateDecision) map[string]any {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}

	out["consent"] = map[string]any{
		"allowed":      decision.Allowed,
		"reason":       decision.Reason,
		"evaluated_at": decision.EvaluatedAt,
	}
	out["redaction"] = decision.Redaction

	if decision.Redaction.UseInitialsOnly {
		if names, ok := out["player_names"].([]string); ok {
			initials := make([]string, len(names))
			for i, name := range names {
				initials[i] = pii.Initials(name)
			}
			out["player_names"] = initials
		}
		if caption, ok := out["caption"].(string); ok {
			out["caption"] = redactNames(caption, decision.Players)
		}
	}
	return out
}

// redactNames replaces each evaluated player's full name in free text with
// their initials.
func redactNames(text string, players []consent.Decision) string {
	for _, player := range players {
		if player.PlayerName == "" {
			continue
		}
		text = strings.ReplaceAll(text, player.PlayerName, pii.Initials(player.PlayerName))
	}
	return text
}
