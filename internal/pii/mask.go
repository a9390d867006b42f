package pii

import "strings"

// Strategy selects how a flagged value is rendered.
type Strategy string

const (
	// StrategyFull replaces the whole value with an opaque marker of the
	// matching conceptual type.
	StrategyFull Strategy = "full"
	// StrategyPartial preserves only the boundary characters of each token.
	StrategyPartial Strategy = "partial"
	// StrategyDomain keeps the domain of an email, masking the local part.
	StrategyDomain Strategy = "domain"
	// StrategyLastFour keeps the trailing four digits of a phone number.
	StrategyLastFour Strategy = "last_four"
	// StrategyInitials reduces a name to its initials.
	StrategyInitials Strategy = "initials"
)

// Opaque full-mask markers per conceptual type.
var fullMarkers = map[FieldType]string{
	TypeEmail:   "[email withheld]",
	TypePhone:   "[phone withheld]",
	TypeName:    "[name withheld]",
	TypeAddress: "[address withheld]",
	TypeDOB:     "[date withheld]",
	TypeMedical: "[medical data withheld]",
}

// Mask renders value under the given strategy. Masking never fails open: a
// strategy that cannot be applied to the value degrades to the full marker,
// never to the original value.
func Mask(value string, typ FieldType, strategy Strategy) string {
	if value == "" {
		return ""
	}

	switch strategy {
	case StrategyFull:
		return fullMarker(typ)

	case StrategyPartial:
		return maskTokens(value)

	case StrategyDomain:
		if typ == TypeEmail {
			if at := strings.LastIndexByte(value, '@'); at > 0 {
				return strings.Repeat("*", at) + value[at:]
			}
		}
		return fullMarker(typ)

	case StrategyLastFour:
		if typ == TypePhone {
			digits := digitsOf(value)
			if len(digits) >= 4 {
				return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
			}
		}
		return fullMarker(typ)

	case StrategyInitials:
		if typ == TypeName {
			return initialsOf(value)
		}
		return fullMarker(typ)

	default:
		return genericPartial(value)
	}
}

// MaskRecord returns a copy of record with every flagged field masked under
// the given strategy. The input record is not mutated.
func MaskRecord(record map[string]any, strategy Strategy) map[string]any {
	classification := Classify(record)
	flagged := make(map[string]FieldType, len(classification.Fields))
	for _, finding := range classification.Fields {
		flagged[finding.Field] = finding.Type
	}

	out := make(map[string]any, len(record))
	for name, value := range record {
		if typ, ok := flagged[name]; ok {
			out[name] = Mask(stringValue(value), typ, strategy)
			continue
		}
		out[name] = value
	}
	return out
}

// Initials reduces a full name to initials, e.g. "Alex Smith" -> "A. S.".
func Initials(fullName string) string {
	return initialsOf(fullName)
}

func fullMarker(typ FieldType) string {
	if marker, ok := fullMarkers[typ]; ok {
		return marker
	}
	return "[withheld]"
}

// maskTokens keeps the first and last character of each whitespace token.
func maskTokens(value string) string {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return genericPartial(value)
	}
	masked := make([]string, len(tokens))
	for i, tok := range tokens {
		masked[i] = genericPartial(tok)
	}
	return strings.Join(masked, " ")
}

// genericPartial shows the first and last character of strings longer than
// three characters, otherwise masks fully.
func genericPartial(value string) string {
	runes := []rune(value)
	if len(runes) <= 3 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

func digitsOf(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func initialsOf(fullName string) string {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = strings.ToUpper(string([]rune(tok)[0])) + "."
	}
	return strings.Join(parts, " ")
}
