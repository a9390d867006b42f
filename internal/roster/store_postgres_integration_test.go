//go:build integration

package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentgate/internal/platform/migrate"
	"consentgate/pkg/testutil/containers"
)

func TestPostgresStore_ReadRows(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, migrate.Apply(ctx, pg.DB))

	_, err := pg.Exec(ctx, `
		INSERT INTO player_profiles (player_id, full_name, date_of_birth, default_consent_status, anonymise_faces, guardian_email)
		VALUES ('P001', 'Alex Smith', '2010-03-15', 'granted', true, 'guardian@club.example'),
		       ('P002', 'Billie Jones', NULL, NULL, NULL, NULL)
	`)
	require.NoError(t, err)

	_, err = pg.Exec(ctx, `
		INSERT INTO consent_records (player_id, consent_type, status, captured_at, expires_at, proof_reference)
		VALUES ('P001', 'matchday', 'granted', '2026-01-10T09:00:00Z', '2026-12-31T00:00:00Z', 'FORM-2026-017')
	`)
	require.NoError(t, err)

	store := NewPostgres(pg.DB)

	profiles, err := store.ReadProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	t.Run("rows flow through the standard parser", func(t *testing.T) {
		var byID = map[string]*PlayerPrivacyProfile{}
		for _, row := range profiles {
			p, ok := ParseProfile(row)
			require.True(t, ok)
			byID[p.PlayerID] = p
		}
		require.Contains(t, byID, "P001")
		assert.Equal(t, "Alex Smith", byID["P001"].FullName)
		assert.Equal(t, StatusGranted, byID["P001"].DefaultConsentStatus)
		assert.True(t, byID["P001"].AnonymiseFaces)
		assert.Equal(t, "guardian@club.example", byID["P001"].GuardianEmail)

		// NULL columns surface as empty strings and parse to zero values.
		require.Contains(t, byID, "P002")
		assert.Nil(t, byID["P002"].DateOfBirth)
		assert.Equal(t, StatusUnknown, byID["P002"].DefaultConsentStatus)
	})

	consents, err := store.ReadConsents(ctx)
	require.NoError(t, err)
	require.Len(t, consents, 1)

	record, ok := ParseConsentRecord(consents[0])
	require.True(t, ok)
	assert.Equal(t, TypeMatchday, record.Type)
	assert.Equal(t, StatusGranted, record.Status)
	assert.Equal(t, "FORM-2026-017", record.ProofReference)
	require.NotNil(t, record.ExpiresAt)
}

func TestPostgresStore_HydratorEndToEnd(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, migrate.Apply(ctx, pg.DB))

	_, err := pg.Exec(ctx, `
		INSERT INTO player_profiles (player_id, full_name) VALUES ('P001', 'Alex Smith')
	`)
	require.NoError(t, err)

	h := NewHydrator(NewPostgres(pg.DB))
	require.NoError(t, h.Refresh(ctx, true))

	snap := h.Snapshot()
	assert.False(t, snap.Failed)
	_, ok := snap.Lookup("P001")
	assert.True(t, ok)
	_, ok = snap.Lookup("alex smith")
	assert.True(t, ok)
}
