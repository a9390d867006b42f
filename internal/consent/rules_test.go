package consent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"consentgate/internal/roster"
)

// =============================================================================
// Consent Resolution Suite
// =============================================================================
// Resolution is a pure function over an immutable snapshot, so every precedence
// rule and edge case can be pinned down without I/O.

type ResolveSuite struct {
	suite.Suite
	now    time.Time
	policy Policy
}

func TestResolveSuite(t *testing.T) {
	suite.Run(t, new(ResolveSuite))
}

func (s *ResolveSuite) SetupTest() {
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.policy = Policy{MinorAgeYears: 16, FailClosed: true}
}

func (s *ResolveSuite) snapshot(profiles []*roster.PlayerPrivacyProfile, records []*roster.ConsentRecord) *roster.Snapshot {
	snap := roster.EmptySnapshot()
	snap.HydratedAt = s.now
	for _, p := range profiles {
		snap.Profiles[p.Key()] = p
		if name := roster.NormalizeKey(p.FullName); name != "" {
			if _, exists := snap.NameIndex[name]; !exists {
				snap.NameIndex[name] = p.Key()
			}
		}
	}
	for _, r := range records {
		key := roster.NormalizeKey(r.PlayerID)
		snap.Records[key] = append(snap.Records[key], r)
	}
	return snap
}

func (s *ResolveSuite) adult(id, name string) *roster.PlayerPrivacyProfile {
	dob := s.now.AddDate(-25, 0, 0)
	return &roster.PlayerPrivacyProfile{PlayerID: id, FullName: name, DateOfBirth: &dob}
}

func (s *ResolveSuite) minor(id, name string) *roster.PlayerPrivacyProfile {
	dob := s.now.AddDate(-14, 0, 0)
	return &roster.PlayerPrivacyProfile{PlayerID: id, FullName: name, DateOfBirth: &dob}
}

func (s *ResolveSuite) granted(playerID string, typ roster.ConsentType, capturedAt time.Time) *roster.ConsentRecord {
	return &roster.ConsentRecord{
		PlayerID:   playerID,
		Type:       typ,
		Status:     roster.StatusGranted,
		CapturedAt: capturedAt,
	}
}

// =============================================================================
// Fail-Closed and Reference Resolution
// =============================================================================

func (s *ResolveSuite) TestRosterUnavailable() {
	s.Run("nil snapshot denies with evaluation error", func() {
		d := Resolve(nil, Ref("p1"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonEvaluationErrorPrefix+"roster_unavailable", d.Reason)
		s.Equal(Everything(), d.Redaction)
	})

	s.Run("failed snapshot denies under fail-closed", func() {
		snap := roster.EmptySnapshot()
		snap.Failed = true
		d := Resolve(snap, Ref("p1"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonEvaluationErrorPrefix+"roster_unavailable", d.Reason)
	})

	s.Run("failed snapshot falls through when fail-closed disabled", func() {
		snap := roster.EmptySnapshot()
		snap.Failed = true
		policy := s.policy
		policy.FailClosed = false
		d := Resolve(snap, Ref("p1"), roster.TypeGeneralMedia, policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonPlayerNotRegistered, d.Reason)
	})
}

func (s *ResolveSuite) TestReferenceResolution() {
	profile := s.adult("P001", "Alex Smith")
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		s.granted("P001", roster.TypeGeneralMedia, s.now.AddDate(0, -1, 0)),
	})

	s.Run("empty reference denied", func() {
		d := Resolve(snap, PlayerRef{}, roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonMissingPlayerRef, d.Reason)
	})

	s.Run("whitespace-only reference denied", func() {
		d := Resolve(snap, Ref("   "), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonMissingPlayerRef, d.Reason)
	})

	s.Run("unknown player denied", func() {
		d := Resolve(snap, Ref("P999"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonPlayerNotRegistered, d.Reason)
		s.Equal(Everything(), d.Redaction)
	})

	s.Run("lookup by id", func() {
		d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal("Alex Smith", d.PlayerName)
	})

	s.Run("lookup by name is case and whitespace insensitive", func() {
		d := Resolve(snap, Ref("  alex   SMITH "), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal("P001", d.PlayerID)
	})
}

// =============================================================================
// Precedence Rules
// =============================================================================

func (s *ResolveSuite) TestRevocationWinsAbsolutely() {
	profile := s.adult("P001", "Alex Smith")
	revokedAt := s.now.AddDate(0, 0, -1)
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		// Grant is newer than the revocation; revocation still wins.
		s.granted("P001", roster.TypeGeneralMedia, s.now.Add(-time.Hour)),
		{
			PlayerID:   "P001",
			Type:       roster.TypeGeneralMedia,
			Status:     roster.StatusRevoked,
			CapturedAt: s.now.AddDate(0, -2, 0),
			RevokedAt:  &revokedAt,
		},
	})

	d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
	s.False(d.Allowed)
	s.Equal(ReasonConsentRevoked, d.Reason)
	s.Equal(roster.StatusRevoked, d.Status)
	s.Equal(Everything(), d.Redaction)
}

func (s *ResolveSuite) TestFutureRevocationNotYetEffective() {
	profile := s.adult("P001", "Alex Smith")
	revokedAt := s.now.Add(time.Hour)
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		s.granted("P001", roster.TypeGeneralMedia, s.now.AddDate(0, -1, 0)),
		{
			PlayerID:   "P001",
			Type:       roster.TypeGeneralMedia,
			Status:     roster.StatusRevoked,
			CapturedAt: s.now.Add(-time.Minute),
			RevokedAt:  &revokedAt,
		},
	})

	d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
	s.True(d.Allowed)
	s.Equal(ReasonConsentGranted, d.Reason)
}

func (s *ResolveSuite) TestExpiredGrant() {
	profile := s.adult("P001", "Alex Smith")
	expired := s.now.AddDate(0, 0, -2)
	record := s.granted("P001", roster.TypeGeneralMedia, s.now.AddDate(0, -6, 0))
	record.ExpiresAt = &expired
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{record})

	d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
	s.False(d.Allowed)
	s.Equal(ReasonConsentExpired, d.Reason)
	s.Equal(roster.StatusExpired, d.Status)
	s.Equal(Everything(), d.Redaction)
	s.Equal(&expired, d.ExpiresAt)
}

func (s *ResolveSuite) TestPendingBlocks() {
	profile := s.adult("P001", "Alex Smith")
	profile.DefaultConsentStatus = roster.StatusGranted
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		{
			PlayerID:   "P001",
			Type:       roster.TypeGeneralMedia,
			Status:     roster.StatusPending,
			CapturedAt: s.now.AddDate(0, 0, -3),
		},
	})

	d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
	s.False(d.Allowed)
	s.Equal(ReasonConsentPending, d.Reason)
}

func (s *ResolveSuite) TestTypeSpecificBeatsAllMedia() {
	profile := s.adult("P001", "Alex Smith")
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		s.granted("P001", roster.TypeAllMedia, s.now.AddDate(0, -1, 0)),
		{
			PlayerID:   "P001",
			Type:       roster.TypeVideoHighlights,
			Status:     roster.StatusRevoked,
			CapturedAt: s.now.AddDate(0, -2, 0),
		},
	})

	s.Run("specific revocation overrides generic grant", func() {
		d := Resolve(snap, Ref("P001"), roster.TypeVideoHighlights, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonConsentRevoked, d.Reason)
	})

	s.Run("generic grant still covers other types", func() {
		d := Resolve(snap, Ref("P001"), roster.TypeMatchday, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal(ReasonConsentGranted, d.Reason)
	})
}

// =============================================================================
// Profile Defaults and the Minor Override
// =============================================================================

func (s *ResolveSuite) TestProfileDefaults() {
	s.Run("no record and no default denies", func() {
		profile := s.adult("P001", "Alex Smith")
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, nil)
		d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonNoConsentRecord, d.Reason)
		s.Equal(roster.StatusUnknown, d.Status)
	})

	s.Run("granted default allows adult", func() {
		profile := s.adult("P001", "Alex Smith")
		profile.DefaultConsentStatus = roster.StatusGranted
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, nil)
		d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal(ReasonDefaultConsent, d.Reason)
	})

	s.Run("expired default denies", func() {
		profile := s.adult("P001", "Alex Smith")
		profile.DefaultConsentStatus = roster.StatusGranted
		expiry := s.now.AddDate(0, 0, -1)
		profile.DefaultConsentExpiry = &expiry
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, nil)
		d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonDefaultConsentExpired, d.Reason)
	})

	s.Run("granted default never authorizes a minor", func() {
		profile := s.minor("P002", "Billie Jones")
		profile.DefaultConsentStatus = roster.StatusGranted
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, nil)
		d := Resolve(snap, Ref("P002"), roster.TypeGeneralMedia, s.policy, s.now)
		s.False(d.Allowed)
		s.Equal(ReasonMinorRequiresConsent, d.Reason)
		s.Equal(Everything(), d.Redaction)
	})

	s.Run("documented grant authorizes a minor", func() {
		profile := s.minor("P002", "Billie Jones")
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
			s.granted("P002", roster.TypeGeneralMedia, s.now.AddDate(0, -1, 0)),
		})
		d := Resolve(snap, Ref("P002"), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal(ReasonConsentGranted, d.Reason)
	})

	s.Run("unknown date of birth is not treated as minor", func() {
		profile := &roster.PlayerPrivacyProfile{PlayerID: "P003", FullName: "Casey Doe", DefaultConsentStatus: roster.StatusGranted}
		snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, nil)
		d := Resolve(snap, Ref("P003"), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.Equal(ReasonDefaultConsent, d.Reason)
	})
}

// =============================================================================
// Redaction Merging
// =============================================================================

func (s *ResolveSuite) TestRedactionEscalatesOnly() {
	profile := s.adult("P001", "Alex Smith")
	profile.AnonymiseFaces = true
	record := s.granted("P001", roster.TypeGeneralMedia, s.now.AddDate(0, -1, 0))
	record.UseInitialsOnly = true
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{record})

	s.Run("profile and record flags are unioned", func() {
		d := Resolve(snap, Ref("P001"), roster.TypeGeneralMedia, s.policy, s.now)
		s.True(d.Allowed)
		s.True(d.Redaction.AnonymiseFaces)
		s.True(d.Redaction.UseInitialsOnly)
	})

	s.Run("global policy flags join the union", func() {
		plain := s.adult("P004", "Dana Reyes")
		snapPlain := s.snapshot([]*roster.PlayerPrivacyProfile{plain}, []*roster.ConsentRecord{
			s.granted("P004", roster.TypeGeneralMedia, s.now.AddDate(0, -1, 0)),
		})
		policy := s.policy
		policy.Global = Redaction{AnonymiseFaces: true}
		d := Resolve(snapPlain, Ref("P004"), roster.TypeGeneralMedia, policy, s.now)
		s.True(d.Allowed)
		s.True(d.Redaction.AnonymiseFaces)
		s.False(d.Redaction.UseInitialsOnly)
	})
}

func (s *ResolveSuite) TestResolutionIsIdempotent() {
	profile := s.minor("P002", "Billie Jones")
	profile.DefaultConsentStatus = roster.StatusGranted
	snap := s.snapshot([]*roster.PlayerPrivacyProfile{profile}, []*roster.ConsentRecord{
		s.granted("P002", roster.TypeMatchday, s.now.AddDate(0, -1, 0)),
	})

	first := Resolve(snap, Ref("P002"), roster.TypeMatchday, s.policy, s.now)
	for i := 0; i < 5; i++ {
		s.Equal(first, Resolve(snap, Ref("P002"), roster.TypeMatchday, s.policy, s.now))
	}
}
