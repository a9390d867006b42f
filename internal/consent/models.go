// Package consent implements the per-player resolution rules. Resolution is
// pure: it reads an immutable roster snapshot and a policy snapshot, performs
// no I/O, and always returns a decision, never an error.
package consent

import (
	"strings"
	"time"

	"consentgate/internal/roster"
)

// Reason codes. These are stable strings that end up in audit rows; renaming
// one is a breaking change for compliance reporting.
const (
	ReasonConsentGranted        = "consent_granted"
	ReasonConsentRevoked        = "consent_revoked"
	ReasonConsentExpired        = "consent_expired"
	ReasonConsentPending        = "consent_pending"
	ReasonNoConsentRecord       = "no_consent_record"
	ReasonDefaultConsent        = "default_consent"
	ReasonDefaultConsentExpired = "default_consent_expired"
	ReasonMinorRequiresConsent  = "minor_requires_documented_consent"
	ReasonPlayerNotRegistered   = "player_not_registered"
	ReasonMissingPlayerRef      = "missing_player_reference"

	// ReasonEvaluationErrorPrefix prefixes reasons produced by the
	// fail-closed short circuit when the roster could not be hydrated.
	ReasonEvaluationErrorPrefix = "consent_evaluation_error:"
)

// Redaction carries the directives attached to a decision constraining how an
// individual may still appear in allowed media.
type Redaction struct {
	AnonymiseFaces  bool `json:"anonymise_faces"`
	UseInitialsOnly bool `json:"use_initials_only"`
}

// Or combines two redaction sets. Redaction only ever escalates.
func (r Redaction) Or(other Redaction) Redaction {
	return Redaction{
		AnonymiseFaces:  r.AnonymiseFaces || other.AnonymiseFaces,
		UseInitialsOnly: r.UseInitialsOnly || other.UseInitialsOnly,
	}
}

// Everything is the maximal redaction, applied to every denial.
func Everything() Redaction {
	return Redaction{AnonymiseFaces: true, UseInitialsOnly: true}
}

// Policy is the immutable configuration snapshot one evaluation runs under.
// A runtime toggle produces a new snapshot; concurrent evaluations never
// share mutable flag state.
type Policy struct {
	MinorAgeYears int
	FailClosed    bool
	Global        Redaction
}

// PlayerRef references a player by ID, by name, or both. A bare string from
// a caller is carried in both fields and resolved against either index.
type PlayerRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Ref builds a PlayerRef from a bare identifier or name.
func Ref(idOrName string) PlayerRef {
	return PlayerRef{ID: idOrName, Name: idOrName}
}

// Empty reports whether the reference carries nothing resolvable.
func (r PlayerRef) Empty() bool {
	return strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Name) == ""
}

// Display returns the most specific label available for audit rows.
func (r PlayerRef) Display() string {
	if strings.TrimSpace(r.Name) != "" {
		return strings.TrimSpace(r.Name)
	}
	return strings.TrimSpace(r.ID)
}

// Decision is the outcome of resolving one player for one consent type. It is
// never persisted directly; the audit projection is.
type Decision struct {
	PlayerID   string               `json:"player_id"`
	PlayerName string               `json:"player_name"`
	Allowed    bool                 `json:"allowed"`
	Reason     string               `json:"reason"`
	Status     roster.ConsentStatus `json:"consent_status"`
	ExpiresAt  *time.Time           `json:"expires_at,omitempty"`
	Redaction  Redaction            `json:"redaction"`
	ProofRef   string               `json:"proof_reference,omitempty"`
}
