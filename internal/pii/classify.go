// Package pii flags likely personal-data fields in arbitrary records and
// renders masked representations. It is used standalone before anything is
// logged or exported, and by the audit writer when building context blobs.
package pii

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldType labels the kind of personal data detected in a field.
type FieldType string

const (
	TypeEmail   FieldType = "email"
	TypePhone   FieldType = "phone"
	TypeName    FieldType = "name"
	TypeAddress FieldType = "address"
	TypeDOB     FieldType = "dob"
	TypeMedical FieldType = "medical"
	TypeUnknown FieldType = "unknown"
)

// Severity ranks how damaging exposure of a field would be.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very_high"
)

var severityRank = map[Severity]int{
	SeverityMinimal:  0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityVeryHigh: 4,
}

// maxSeverity returns the higher-ranked of two severities.
func maxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// Finding is one flagged field.
type Finding struct {
	Field      string    `json:"field"`
	Type       FieldType `json:"type"`
	Confidence float64   `json:"confidence"`
	Severity   Severity  `json:"severity"`
}

// Classification is the result of inspecting one record.
type Classification struct {
	Fields        []Finding   `json:"fields"`
	RiskLevel     Severity    `json:"risk_level"`
	DetectedTypes []FieldType `json:"detected_types"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s().-]{7,}$`)
	// Two to four capitalized words.
	namePattern = regexp.MustCompile(`^([A-Z][a-z]+\s+){1,3}[A-Z][a-z]+$`)
)

// sensitiveNameFields escalate a name finding to high severity: these fields
// identify protected individuals rather than staff or operators.
var sensitiveNameFields = map[string]bool{
	"player_name":   true,
	"full_name":     true,
	"guardian_name": true,
	"minor_name":    true,
	"child_name":    true,
}

// Classify inspects every field of a record by field name and value and
// reports all personal-data findings plus the overall risk level.
func Classify(record map[string]any) Classification {
	out := Classification{RiskLevel: SeverityMinimal}
	seen := map[FieldType]bool{}

	for name, raw := range record {
		value := stringValue(raw)
		finding, ok := classifyField(name, value)
		if !ok {
			continue
		}
		out.Fields = append(out.Fields, finding)
		out.RiskLevel = maxSeverity(out.RiskLevel, finding.Severity)
		if !seen[finding.Type] {
			seen[finding.Type] = true
			out.DetectedTypes = append(out.DetectedTypes, finding.Type)
		}
	}
	return out
}

func classifyField(name, value string) (Finding, bool) {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "medical"), strings.Contains(lower, "health"):
		return Finding{Field: name, Type: TypeMedical, Confidence: 0.9, Severity: SeverityVeryHigh}, true

	case strings.Contains(lower, "dob"), strings.Contains(lower, "birth"):
		return Finding{Field: name, Type: TypeDOB, Confidence: 0.9, Severity: SeverityHigh}, true

	case strings.Contains(lower, "address"), strings.Contains(lower, "postcode"):
		return Finding{Field: name, Type: TypeAddress, Confidence: 0.8, Severity: SeverityHigh}, true

	case strings.Contains(lower, "email"), emailPattern.MatchString(value):
		return Finding{Field: name, Type: TypeEmail, Confidence: 0.9, Severity: SeverityMedium}, true

	case strings.Contains(lower, "phone"), looksLikePhone(value):
		return Finding{Field: name, Type: TypePhone, Confidence: 0.8, Severity: SeverityMedium}, true

	case strings.Contains(lower, "name") && namePattern.MatchString(value):
		severity := SeverityMedium
		if sensitiveNameFields[lower] {
			severity = SeverityHigh
		}
		return Finding{Field: name, Type: TypeName, Confidence: 0.7, Severity: severity}, true
	}
	return Finding{}, false
}

// looksLikePhone requires a minimum digit count so short numerics (shirt
// numbers, ages) are not flagged.
func looksLikePhone(value string) bool {
	if !phonePattern.MatchString(value) {
		return false
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
