package roster

import (
	"strings"
	"time"
)

// Row is one tabular-store row: header name to cell value.
type Row map[string]string

// Column aliases. Source sheets have drifted over the years; each canonical
// field lists every header spelling seen in production, resolved once here
// so alias handling never leaks into the resolution rules.
var profileAliases = map[string][]string{
	"player_id":              {"Player ID", "ID", "PlayerID"},
	"full_name":              {"Full Name", "Player Name", "Name"},
	"date_of_birth":          {"Date Of Birth", "Date of Birth", "DOB"},
	"default_consent_status": {"Default Consent Status", "Consent Status"},
	"default_consent_expiry": {"Default Consent Expiry", "Consent Expiry"},
	"anonymise_faces":        {"Anonymise Faces", "Anonymize Faces"},
	"use_initials_only":      {"Use Initials Only", "Initials Only"},
	"guardian_name":          {"Guardian Name"},
	"guardian_email":         {"Guardian Email"},
	"guardian_phone":         {"Guardian Phone"},
	"last_reviewed":          {"Last Reviewed"},
}

var consentAliases = map[string][]string{
	"player_id":         {"Player ID", "PlayerID"},
	"consent_type":      {"Consent Type", "Type"},
	"status":            {"Status"},
	"captured_at":       {"Captured At", "Captured"},
	"expires_at":        {"Expires At", "Expiry"},
	"revoked_at":        {"Revoked At"},
	"proof_reference":   {"Proof Reference", "Proof"},
	"source":            {"Source"},
	"anonymise_faces":   {"Anonymise Faces", "Anonymize Faces"},
	"use_initials_only": {"Use Initials Only", "Initials Only"},
}

// field resolves the first populated alias for a canonical field name.
func field(row Row, aliases map[string][]string, name string) string {
	for _, header := range aliases[name] {
		if v, ok := row[header]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Date layouts accepted from source rows, most common first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07", // postgres timestamptz::text
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// parseTime parses defensively: an unparseable value becomes nil rather than
// failing the row.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseBool parses defensively: anything not recognisably true is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true
	}
	return false
}

func parseStatus(s string) ConsentStatus {
	switch ConsentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusGranted, StatusRevoked, StatusPending, StatusExpired:
		return ConsentStatus(strings.ToLower(strings.TrimSpace(s)))
	case "":
		return StatusUnknown
	default:
		return StatusUnknown
	}
}

func parseConsentType(s string) ConsentType {
	switch t := ConsentType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeGeneralMedia, TypeMatchday, TypeVideoHighlights, TypePortrait, TypeAllMedia:
		return t
	case "":
		return TypeAllMedia
	default:
		// Consent types are extensible; an unrecognised label is carried
		// through so a future type still matches its own records.
		return ConsentType(strings.ToLower(strings.TrimSpace(s)))
	}
}

// ParseProfile converts a raw row into a profile. The second result is false
// when the row is invalid and must be skipped.
func ParseProfile(row Row) (*PlayerPrivacyProfile, bool) {
	p := &PlayerPrivacyProfile{
		PlayerID:             field(row, profileAliases, "player_id"),
		FullName:             field(row, profileAliases, "full_name"),
		DateOfBirth:          parseTime(field(row, profileAliases, "date_of_birth")),
		DefaultConsentStatus: parseStatus(field(row, profileAliases, "default_consent_status")),
		DefaultConsentExpiry: parseTime(field(row, profileAliases, "default_consent_expiry")),
		AnonymiseFaces:       parseBool(field(row, profileAliases, "anonymise_faces")),
		UseInitialsOnly:      parseBool(field(row, profileAliases, "use_initials_only")),
		GuardianName:         field(row, profileAliases, "guardian_name"),
		GuardianEmail:        field(row, profileAliases, "guardian_email"),
		GuardianPhone:        field(row, profileAliases, "guardian_phone"),
		LastReviewed:         parseTime(field(row, profileAliases, "last_reviewed")),
	}
	if !p.Valid() {
		return nil, false
	}
	return p, true
}

// ParseConsentRecord converts a raw row into a consent record. Records
// without a player reference cannot be attributed and are skipped.
func ParseConsentRecord(row Row) (*ConsentRecord, bool) {
	playerID := field(row, consentAliases, "player_id")
	if playerID == "" {
		return nil, false
	}

	r := &ConsentRecord{
		PlayerID:        playerID,
		Type:            parseConsentType(field(row, consentAliases, "consent_type")),
		Status:          parseStatus(field(row, consentAliases, "status")),
		ExpiresAt:       parseTime(field(row, consentAliases, "expires_at")),
		RevokedAt:       parseTime(field(row, consentAliases, "revoked_at")),
		ProofReference:  field(row, consentAliases, "proof_reference"),
		Source:          field(row, consentAliases, "source"),
		AnonymiseFaces:  parseBool(field(row, consentAliases, "anonymise_faces")),
		UseInitialsOnly: parseBool(field(row, consentAliases, "use_initials_only")),
	}
	if captured := parseTime(field(row, consentAliases, "captured_at")); captured != nil {
		r.CapturedAt = *captured
	}
	return r, true
}
