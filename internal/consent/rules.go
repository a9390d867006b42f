package consent

import (
	"time"

	"consentgate/internal/roster"
)

// Resolve applies the precedence rules for one player and one consent type.
// Rule priority (fail-fast):
//  1. Fail-closed short circuit when the roster could not be hydrated
//  2. Reference resolution (missing reference, unregistered player)
//  3. Revocation - wins absolutely over any other record
//  4. Explicit grant (expiry checked)
//  5. Pending record
//  6. Profile default, with the minor override: defaults alone never
//     authorize media for a minor
func Resolve(snap *roster.Snapshot, ref PlayerRef, typ roster.ConsentType, policy Policy, now time.Time) Decision {
	if snap == nil || (snap.Failed && policy.FailClosed) {
		return Decision{
			PlayerID:   ref.ID,
			PlayerName: ref.Display(),
			Allowed:    false,
			Reason:     ReasonEvaluationErrorPrefix + "roster_unavailable",
			Status:     roster.StatusUnknown,
			Redaction:  Everything(),
		}
	}

	if ref.Empty() {
		return Decision{
			Allowed:   false,
			Reason:    ReasonMissingPlayerRef,
			Status:    roster.StatusUnknown,
			Redaction: Everything(),
		}
	}

	profile, ok := lookup(snap, ref)
	if !ok {
		return Decision{
			PlayerID:   ref.ID,
			PlayerName: ref.Display(),
			Allowed:    false,
			Reason:     ReasonPlayerNotRegistered,
			Status:     roster.StatusUnknown,
			Redaction:  Everything(),
		}
	}

	base := Decision{
		PlayerID:   profile.PlayerID,
		PlayerName: profile.FullName,
	}
	isMinor := profile.IsMinor(now, policy.MinorAgeYears)
	records := applicableRecords(snap.RecordsFor(profile), typ)

	// Rule 3: revocation wins absolutely, regardless of recency or any
	// other record's status.
	for _, record := range records {
		if record.RevocationEffective(now) {
			base.Allowed = false
			base.Reason = ReasonConsentRevoked
			base.Status = roster.StatusRevoked
			base.Redaction = Everything()
			base.ProofRef = record.ProofReference
			return base
		}
	}

	// Rule 4: explicit grant. Records are newest-first, so the first
	// granted record is the operative statement.
	for _, record := range records {
		if record.Status != roster.StatusGranted {
			continue
		}
		base.ExpiresAt = record.ExpiresAt
		base.ProofRef = record.ProofReference
		if record.Expired(now) {
			base.Allowed = false
			base.Reason = ReasonConsentExpired
			base.Status = roster.StatusExpired
			base.Redaction = Everything()
			return base
		}
		base.Allowed = true
		base.Reason = ReasonConsentGranted
		base.Status = roster.StatusGranted
		base.Redaction = policy.Global.
			Or(Redaction{AnonymiseFaces: profile.AnonymiseFaces, UseInitialsOnly: profile.UseInitialsOnly}).
			Or(Redaction{AnonymiseFaces: record.AnonymiseFaces, UseInitialsOnly: record.UseInitialsOnly})
		return base
	}

	// Rule 5: pending blocks until resolved.
	for _, record := range records {
		if record.Status == roster.StatusPending {
			base.Allowed = false
			base.Reason = ReasonConsentPending
			base.Status = roster.StatusPending
			base.Redaction = Everything()
			base.ProofRef = record.ProofReference
			return base
		}
	}

	// Rule 6: no applicable record, fall back to the profile default.
	return resolveDefault(profile, isMinor, policy, now, base)
}

// lookup resolves the reference against the ID index first, then names.
func lookup(snap *roster.Snapshot, ref PlayerRef) (*roster.PlayerPrivacyProfile, bool) {
	if ref.ID != "" {
		if p, ok := snap.Lookup(ref.ID); ok {
			return p, true
		}
	}
	if ref.Name != "" && ref.Name != ref.ID {
		if p, ok := snap.Lookup(ref.Name); ok {
			return p, true
		}
	}
	return nil, false
}

// applicableRecords filters to the requested type, falling back to the
// generic all-media type only when no type-specific record exists.
func applicableRecords(records []*roster.ConsentRecord, typ roster.ConsentType) []*roster.ConsentRecord {
	var specific, generic []*roster.ConsentRecord
	for _, record := range records {
		switch record.Type {
		case typ:
			specific = append(specific, record)
		case roster.TypeAllMedia:
			generic = append(generic, record)
		}
	}
	if len(specific) > 0 {
		return specific
	}
	return generic
}

func resolveDefault(profile *roster.PlayerPrivacyProfile, isMinor bool, policy Policy, now time.Time, base Decision) Decision {
	if profile.DefaultConsentStatus != roster.StatusGranted {
		base.Allowed = false
		base.Reason = ReasonNoConsentRecord
		base.Status = profile.DefaultConsentStatus
		if base.Status == "" {
			base.Status = roster.StatusUnknown
		}
		base.Redaction = Everything()
		return base
	}

	if profile.DefaultExpired(now) {
		base.Allowed = false
		base.Reason = ReasonDefaultConsentExpired
		base.Status = roster.StatusExpired
		base.ExpiresAt = profile.DefaultConsentExpiry
		base.Redaction = Everything()
		return base
	}

	// Minor override: a profile default never authorizes media for a minor;
	// only a documented, still-valid record does, and that path was already
	// taken above.
	if isMinor {
		base.Allowed = false
		base.Reason = ReasonMinorRequiresConsent
		base.Status = roster.StatusGranted
		base.Redaction = Everything()
		return base
	}

	base.Allowed = true
	base.Reason = ReasonDefaultConsent
	base.Status = roster.StatusGranted
	base.ExpiresAt = profile.DefaultConsentExpiry
	base.Redaction = policy.Global.
		Or(Redaction{AnonymiseFaces: profile.AnonymiseFaces, UseInitialsOnly: profile.UseInitialsOnly})
	return base
}
