package gate

import (
	"context"
	"log/slog"
	"time"

	"consentgate/internal/audit"
	"consentgate/internal/consent"
	"consentgate/internal/gate/metrics"
	"consentgate/internal/idempotency"
	"consentgate/internal/roster"
	"consentgate/pkg/requestcontext"
)

// RosterProvider is the hydration boundary the gate reads through.
type RosterProvider interface {
	Refresh(ctx context.Context, force bool) error
	Snapshot() *roster.Snapshot
}

// AuditRecorder persists decision rows. Write failures never block a caller
// from receiving its decision.
type AuditRecorder interface {
	Record(ctx context.Context, rec audit.DecisionRecord) error
	Summarize(ctx context.Context, windowDays int, now time.Time) (*audit.Summary, error)
}

// ExpiryScanner supplies the dashboard's expiring-consent count.
type ExpiryScanner interface {
	CountExpiring(ctx context.Context, windowDays int) (int, error)
}

// Service aggregates per-player consent decisions for outbound posts.
type Service struct {
	hydrator RosterProvider
	recorder AuditRecorder
	seen     idempotency.SeenStore
	expiry   ExpiryScanner
	policy   consent.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSeenStore enables publish-attempt dedupe.
func WithSeenStore(seen idempotency.SeenStore) Option {
	return func(s *Service) { s.seen = seen }
}

// WithExpiryScanner supplies the dashboard's expiring-consent source.
func WithExpiryScanner(scanner ExpiryScanner) Option {
	return func(s *Service) { s.expiry = scanner }
}

// New constructs a gate service. The policy is an immutable snapshot; a
// runtime toggle builds a new Service rather than mutating shared state.
func New(hydrator RosterProvider, recorder AuditRecorder, policy consent.Policy, opts ...Option) *Service {
	s := &Service{
		hydrator: hydrator,
		recorder: recorder,
		policy:   policy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the service's policy snapshot.
func (s *Service) Policy() consent.Policy {
	return s.policy
}

// Evaluate decides one publish attempt. It always returns a decision; any
// internal failure resolves to deny via the fail-closed resolution rules.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) *AggregateDecision {
	start := time.Now()
	now := requestcontext.Now(ctx)

	decision := &AggregateDecision{
		MediaType:   req.MediaType,
		Platform:    req.Platform,
		Module:      req.Module,
		EventType:   req.EventType,
		MatchID:     req.MatchID,
		EvaluatedAt: now,
	}

	decision.Duplicate = s.alreadySeen(ctx, req)

	if err := s.hydrator.Refresh(ctx, false); err != nil {
		// The snapshot is now cleared (fail-closed) or stale; resolution
		// handles either. Flag it and keep going.
		s.metrics.IncrementHydrationFailure()
		if s.logger != nil {
			s.logger.WarnContext(ctx, "roster refresh failed before evaluation",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
	snap := s.hydrator.Snapshot()

	typ := req.consentType()
	decision.Allowed = true
	decision.Reason = ReasonAllConsented
	if len(req.Players) == 0 {
		decision.Reason = ReasonNoSubjects
	}

	for _, ref := range req.Players {
		player := consent.Resolve(snap, ref, typ, s.policy, now)
		decision.Players = append(decision.Players, player)
		decision.Redaction = decision.Redaction.Or(player.Redaction)
		if !player.Allowed {
			s.metrics.IncrementBlocked(player.Reason)
			if decision.Allowed {
				decision.Allowed = false
				decision.Reason = player.Reason
			}
		}
	}

	s.writeAudit(ctx, req, decision)
	s.markSeen(ctx, req)

	outcome := audit.DecisionBlocked
	if decision.Allowed {
		outcome = audit.DecisionAllowed
	}
	s.metrics.IncrementOutcome(outcome, req.MediaType)
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	if s.logger != nil {
		s.logger.InfoContext(ctx, "publish attempt evaluated",
			"request_id", requestcontext.RequestID(ctx),
			"media_type", req.MediaType,
			"platform", req.Platform,
			"players", len(req.Players),
			"allowed", decision.Allowed,
			"reason", decision.Reason,
			"duplicate", decision.Duplicate,
		)
	}
	return decision
}

func (s *Service) alreadySeen(ctx context.Context, req EvaluateRequest) bool {
	if s.seen == nil {
		return false
	}
	seen, err := s.seen.Seen(ctx, req.seenKey())
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "seen-key lookup failed", "error", err)
		}
		return false
	}
	return seen
}

func (s *Service) markSeen(ctx context.Context, req EvaluateRequest) {
	if s.seen == nil {
		return
	}
	if err := s.seen.Mark(ctx, req.seenKey()); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "seen-key mark failed", "error", err)
	}
}

// writeAudit converts the aggregate into audit rows. Failures are logged and
// swallowed: the caller still receives its decision.
func (s *Service) writeAudit(ctx context.Context, req EvaluateRequest, decision *AggregateDecision) {
	rec := audit.DecisionRecord{
		Action:      "publish_media",
		Allowed:     decision.Allowed,
		Reason:      decision.Reason,
		MediaType:   req.MediaType,
		Platform:    req.Platform,
		Module:      req.Module,
		EventType:   req.EventType,
		MatchID:     req.MatchID,
		Actor:       firstNonEmpty(req.Actor, requestcontext.Actor(ctx)),
		EvaluatedAt: decision.EvaluatedAt,
	}
	for _, player := range decision.Players {
		rec.Players = append(rec.Players, audit.PlayerOutcome{
			PlayerID:   player.PlayerID,
			PlayerName: player.PlayerName,
			Status:     string(player.Status),
			Reason:     player.Reason,
			Allowed:    player.Allowed,
		})
	}
	if err := s.recorder.Record(ctx, rec); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit write failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
