package gate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"consentgate/internal/roster"
	"consentgate/pkg/requestcontext"
)

// DashboardSummary gathers roster statistics, the expiring-consent count, and
// the audit summary for the operator dashboard. Store reads run concurrently
// with shared cancellation.
func (s *Service) DashboardSummary(ctx context.Context, windowDays int) (*DashboardSummary, error) {
	now := requestcontext.Now(ctx)

	if err := s.hydrator.Refresh(ctx, false); err != nil {
		return nil, fmt.Errorf("refresh roster for dashboard: %w", err)
	}
	snap := s.hydrator.Snapshot()

	summary := &DashboardSummary{WindowDays: windowDays}
	summary.TotalPlayers = len(snap.Profiles)
	summary.Minors, summary.MinorsWithoutActiveGrant = s.minorStats(snap, now)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		auditSummary, err := s.recorder.Summarize(ctx, windowDays, now)
		if err != nil {
			return fmt.Errorf("audit summary: %w", err)
		}
		summary.AuditBlockedCount = auditSummary.BlockedCount
		summary.AuditTotalRows = auditSummary.TotalRows
		summary.AuditLastAction = auditSummary.LastAction
		summary.AuditLastOutcome = auditSummary.LastOutcome
		return nil
	})

	if s.expiry != nil {
		g.Go(func() error {
			count, err := s.expiry.CountExpiring(ctx, windowDays)
			if err != nil {
				return fmt.Errorf("expiring consents: %w", err)
			}
			summary.ExpiringConsents = count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

// minorStats counts minors, and minors lacking any still-valid documented
// grant for any media type.
func (s *Service) minorStats(snap *roster.Snapshot, now time.Time) (minors, withoutGrant int) {
	for _, profile := range snap.Profiles {
		if !profile.IsMinor(now, s.policy.MinorAgeYears) {
			continue
		}
		minors++
		if !hasActiveGrant(snap.RecordsFor(profile), now) {
			withoutGrant++
		}
	}
	return minors, withoutGrant
}

func hasActiveGrant(records []*roster.ConsentRecord, now time.Time) bool {
	for _, record := range records {
		if record.RevocationEffective(now) {
			return false
		}
	}
	for _, record := range records {
		if record.Status == roster.StatusGranted && !record.Expired(now) {
			return true
		}
	}
	return false
}
