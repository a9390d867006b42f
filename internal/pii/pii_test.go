package pii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// PII Classification and Masking Suite
// =============================================================================

type PIISuite struct {
	suite.Suite
}

func TestPIISuite(t *testing.T) {
	suite.Run(t, new(PIISuite))
}

func (s *PIISuite) TestClassify() {
	s.Run("field names drive detection", func() {
		c := Classify(map[string]any{
			"medical_notes": "knee rehab",
			"date_of_birth": "2010-03-15",
			"home_address":  "12 High Street",
			"email":         "not even address shaped",
			"phone_number":  "n/a",
		})
		s.Len(c.Fields, 5)
		s.Equal(SeverityVeryHigh, c.RiskLevel)
		s.ElementsMatch([]FieldType{TypeMedical, TypeDOB, TypeAddress, TypeEmail, TypePhone}, c.DetectedTypes)
	})

	s.Run("value patterns drive detection for unnamed fields", func() {
		c := Classify(map[string]any{
			"contact": "coach@club.example",
			"backup":  "+44 7700 900123",
		})
		found := map[string]FieldType{}
		for _, f := range c.Fields {
			found[f.Field] = f.Type
		}
		s.Equal(TypeEmail, found["contact"])
		s.Equal(TypePhone, found["backup"])
	})

	s.Run("short numerics are not phones", func() {
		c := Classify(map[string]any{"shirt": "10", "age": "14"})
		s.Empty(c.Fields)
		s.Equal(SeverityMinimal, c.RiskLevel)
	})

	s.Run("protected name fields escalate to high severity", func() {
		c := Classify(map[string]any{
			"player_name": "Alex Smith",
			"author_name": "Jordan Miles",
		})
		for _, f := range c.Fields {
			switch f.Field {
			case "player_name":
				s.Equal(SeverityHigh, f.Severity)
			case "author_name":
				s.Equal(SeverityMedium, f.Severity)
			}
		}
	})

	s.Run("empty record is minimal risk", func() {
		c := Classify(map[string]any{})
		s.Empty(c.Fields)
		s.Equal(SeverityMinimal, c.RiskLevel)
	})
}

func (s *PIISuite) TestMask() {
	s.Run("full strategy uses typed markers", func() {
		s.Equal("[email withheld]", Mask("a@b.example", TypeEmail, StrategyFull))
		s.Equal("[medical data withheld]", Mask("knee rehab", TypeMedical, StrategyFull))
		s.Equal("[withheld]", Mask("anything", TypeUnknown, StrategyFull))
	})

	s.Run("partial keeps token boundaries", func() {
		s.Equal("A**x S***h", Mask("Alex Smith", TypeName, StrategyPartial))
		s.Equal("***", Mask("abc", TypeName, StrategyPartial))
	})

	s.Run("domain strategy keeps the email domain", func() {
		s.Equal("*****@club.example", Mask("coach@club.example", TypeEmail, StrategyDomain))
	})

	s.Run("domain strategy on a non-email degrades to full marker", func() {
		s.Equal("[phone withheld]", Mask("+44 7700 900123", TypePhone, StrategyDomain))
	})

	s.Run("last four keeps only trailing digits", func() {
		masked := Mask("+44 7700 900123", TypePhone, StrategyLastFour)
		s.True(strings.HasSuffix(masked, "0123"))
		s.NotContains(masked, "7700")
	})

	s.Run("initials strategy", func() {
		s.Equal("A. S.", Mask("Alex Smith", TypeName, StrategyInitials))
		s.Equal("J. A. M.", Mask("Jordan Alex Miles", TypeName, StrategyInitials))
	})

	s.Run("empty value stays empty", func() {
		s.Equal("", Mask("", TypeEmail, StrategyDomain))
	})

	// Masking must never leak the original: no strategy output may contain
	// the unmasked value.
	s.Run("no strategy echoes the original value", func() {
		value := "coach@club.example"
		for _, strategy := range []Strategy{StrategyFull, StrategyPartial, StrategyDomain, StrategyLastFour, StrategyInitials} {
			masked := Mask(value, TypeEmail, strategy)
			s.NotEqual(value, masked, "strategy %s", strategy)
		}
	})
}

func (s *PIISuite) TestMaskRecord() {
	record := map[string]any{
		"player_name": "Alex Smith",
		"email":       "alex@club.example",
		"shirt":       "10",
	}
	masked := MaskRecord(record, StrategyFull)

	s.Equal("[name withheld]", masked["player_name"])
	s.Equal("[email withheld]", masked["email"])
	s.Equal("10", masked["shirt"])

	s.Run("input record is not mutated", func() {
		s.Equal("Alex Smith", record["player_name"])
	})
}
