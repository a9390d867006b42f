// Package roster owns the player registry and consent ledger: defensive row
// parsing from the tabular store, and the TTL-cached in-memory index the
// resolution engine reads from.
package roster

import (
	"strings"
	"time"
)

// ConsentType labels the media use a consent statement covers. Purpose
// binding allows selective revocation without affecting other uses.
type ConsentType string

const (
	TypeGeneralMedia    ConsentType = "general_media"
	TypeMatchday        ConsentType = "matchday"
	TypeVideoHighlights ConsentType = "video_highlights"
	TypePortrait        ConsentType = "portrait"

	// TypeAllMedia is the generic fallback consulted when no type-specific
	// record exists for a player.
	TypeAllMedia ConsentType = "all_media"
)

// ConsentStatus is the state of a consent statement.
type ConsentStatus string

const (
	StatusGranted ConsentStatus = "granted"
	StatusRevoked ConsentStatus = "revoked"
	StatusPending ConsentStatus = "pending"
	StatusExpired ConsentStatus = "expired"
	StatusUnknown ConsentStatus = "unknown"
)

// PlayerPrivacyProfile is the per-individual privacy baseline. Explicit
// consent records take precedence over everything here except the redaction
// defaults, which can only be escalated, never relaxed.
type PlayerPrivacyProfile struct {
	PlayerID    string
	FullName    string
	DateOfBirth *time.Time

	DefaultConsentStatus ConsentStatus
	DefaultConsentExpiry *time.Time

	AnonymiseFaces  bool
	UseInitialsOnly bool

	GuardianName  string
	GuardianEmail string
	GuardianPhone string
	LastReviewed  *time.Time
}

// Key returns the cache key for this profile: the player ID when present,
// otherwise the normalized full name.
func (p *PlayerPrivacyProfile) Key() string {
	if p.PlayerID != "" {
		return NormalizeKey(p.PlayerID)
	}
	return NormalizeKey(p.FullName)
}

// Valid reports whether the profile can be indexed at all. A profile with
// neither an ID nor a name is skipped during hydration.
func (p *PlayerPrivacyProfile) Valid() bool {
	return strings.TrimSpace(p.PlayerID) != "" || strings.TrimSpace(p.FullName) != ""
}

// AgeYears derives the subject's age, or -1 when the date of birth is unknown.
func (p *PlayerPrivacyProfile) AgeYears(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	years := now.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// IsMinor reports whether the subject is below the configured age cutoff.
// Subjects with an unknown date of birth are not treated as minors; minor
// protection requires a recorded date of birth.
func (p *PlayerPrivacyProfile) IsMinor(now time.Time, cutoffYears int) bool {
	age := p.AgeYears(now)
	return age >= 0 && age < cutoffYears
}

// DefaultExpired reports whether the profile's fallback consent has lapsed.
func (p *PlayerPrivacyProfile) DefaultExpired(now time.Time) bool {
	return p.DefaultConsentExpiry != nil && p.DefaultConsentExpiry.Before(now)
}

// ConsentRecord is an immutable, timestamped statement of permission (or its
// absence) for a specific media use. Status transitions are represented as
// new records, never in-place mutation, so history is preserved for audit.
type ConsentRecord struct {
	PlayerID   string
	Type       ConsentType
	Status     ConsentStatus
	CapturedAt time.Time
	ExpiresAt  *time.Time
	RevokedAt  *time.Time

	ProofReference string
	Source         string

	AnonymiseFaces  bool
	UseInitialsOnly bool
}

// Expired reports whether the record's expiry has passed.
func (r *ConsentRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// RevocationEffective reports whether a revoked record's revocation is in
// force. An unset RevokedAt means the revocation applies immediately.
func (r *ConsentRecord) RevocationEffective(now time.Time) bool {
	if r.Status != StatusRevoked {
		return false
	}
	return r.RevokedAt == nil || !r.RevokedAt.After(now)
}

// Matches reports whether the record covers the requested consent type,
// either specifically or through the generic all-media type.
func (r *ConsentRecord) Matches(typ ConsentType) bool {
	return r.Type == typ || r.Type == TypeAllMedia
}

// NormalizeKey canonicalizes identifiers and names for index lookups:
// lowercased, trimmed, inner whitespace collapsed.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
