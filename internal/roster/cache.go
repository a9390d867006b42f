package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"consentgate/pkg/requestcontext"
)

// Snapshot is the immutable in-memory index of profiles and consent records.
// A snapshot is built wholesale and swapped in only on success; readers never
// observe a half-built index.
type Snapshot struct {
	// Profiles maps normalized player key to profile.
	Profiles map[string]*PlayerPrivacyProfile
	// NameIndex maps normalized full name to player key. First seen wins on
	// collision.
	NameIndex map[string]string
	// Records maps player key to consent records, CapturedAt descending.
	Records map[string][]*ConsentRecord

	HydratedAt time.Time
	// Failed marks a snapshot produced by a fail-closed cache clear. Every
	// decision taken against it resolves to the safe unknown branch.
	Failed bool
}

// EmptySnapshot is the state before the first successful hydration.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Profiles:  map[string]*PlayerPrivacyProfile{},
		NameIndex: map[string]string{},
		Records:   map[string][]*ConsentRecord{},
	}
}

// Lookup resolves a player reference (id or full name) to a profile.
func (s *Snapshot) Lookup(ref string) (*PlayerPrivacyProfile, bool) {
	key := NormalizeKey(ref)
	if key == "" {
		return nil, false
	}
	if p, ok := s.Profiles[key]; ok {
		return p, true
	}
	if mapped, ok := s.NameIndex[key]; ok {
		if p, ok := s.Profiles[mapped]; ok {
			return p, true
		}
	}
	return nil, false
}

// RecordsFor returns the consent records for a profile, newest first.
func (s *Snapshot) RecordsFor(p *PlayerPrivacyProfile) []*ConsentRecord {
	return s.Records[p.Key()]
}

// Hydrator owns the cache lifecycle: it loads both tables from the tabular
// store, builds a fresh snapshot, and swaps it in atomically.
type Hydrator struct {
	store      Store
	ttl        time.Duration
	failClosed bool
	logger     *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// Option configures a Hydrator.
type Option func(*Hydrator)

func WithTTL(ttl time.Duration) Option {
	return func(h *Hydrator) { h.ttl = ttl }
}

// WithFailClosed controls whether a load error clears the cache entirely.
// Default true; disabling it keeps serving the previous snapshot on error.
func WithFailClosed(failClosed bool) Option {
	return func(h *Hydrator) { h.failClosed = failClosed }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hydrator) { h.logger = logger }
}

// NewHydrator constructs a Hydrator over the given store.
func NewHydrator(store Store, opts ...Option) *Hydrator {
	h := &Hydrator{
		store:      store,
		ttl:        5 * time.Minute,
		failClosed: true,
		snap:       EmptySnapshot(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Snapshot returns the current index. The result must be treated as
// read-only; it may be shared by concurrent evaluations.
func (h *Hydrator) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Refresh rebuilds the snapshot from the tabular store. The rebuild is
// skipped while the current snapshot is fresh, unless force is set. On load
// error with fail-closed active the cache is cleared rather than left stale.
func (h *Hydrator) Refresh(ctx context.Context, force bool) error {
	now := requestcontext.Now(ctx)

	h.mu.RLock()
	fresh := !h.snap.Failed && !h.snap.HydratedAt.IsZero() && now.Sub(h.snap.HydratedAt) < h.ttl
	h.mu.RUnlock()
	if fresh && !force {
		return nil
	}

	snap, err := h.build(ctx, now)
	if err != nil {
		if h.logger != nil {
			h.logger.WarnContext(ctx, "roster hydration failed",
				"fail_closed", h.failClosed,
				"error", err,
			)
		}
		if h.failClosed {
			failed := EmptySnapshot()
			failed.Failed = true
			h.mu.Lock()
			h.snap = failed
			h.mu.Unlock()
		}
		return fmt.Errorf("hydrate roster: %w", err)
	}

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.InfoContext(ctx, "roster hydrated",
			"profiles", len(snap.Profiles),
			"players_with_records", len(snap.Records),
		)
	}
	return nil
}

func (h *Hydrator) build(ctx context.Context, now time.Time) (*Snapshot, error) {
	profileRows, err := h.store.ReadProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	consentRows, err := h.store.ReadConsents(ctx)
	if err != nil {
		return nil, fmt.Errorf("read consents: %w", err)
	}

	snap := EmptySnapshot()
	snap.HydratedAt = now

	for _, row := range profileRows {
		profile, ok := ParseProfile(row)
		if !ok {
			continue
		}
		key := profile.Key()
		if _, exists := snap.Profiles[key]; exists {
			continue
		}
		snap.Profiles[key] = profile

		if name := NormalizeKey(profile.FullName); name != "" {
			if _, exists := snap.NameIndex[name]; !exists {
				snap.NameIndex[name] = key
			}
		}
	}

	for _, row := range consentRows {
		record, ok := ParseConsentRecord(row)
		if !ok {
			continue
		}
		key := NormalizeKey(record.PlayerID)
		snap.Records[key] = append(snap.Records[key], record)
	}

	for key := range snap.Records {
		records := snap.Records[key]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CapturedAt.After(records[j].CapturedAt)
		})
	}

	return snap, nil
}
