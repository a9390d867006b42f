package roster

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore reads the player registry and consent ledger tables. Values
// come back as text and flow through the same defensive row parsing as any
// other tabular source, so a malformed cell never aborts hydration.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed roster store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ReadProfiles(ctx context.Context) ([]Row, error) {
	query := `
		SELECT player_id, full_name,
		       COALESCE(date_of_birth::text, ''),
		       COALESCE(default_consent_status, ''),
		       COALESCE(default_consent_expiry::text, ''),
		       COALESCE(anonymise_faces::text, ''),
		       COALESCE(use_initials_only::text, ''),
		       COALESCE(guardian_name, ''),
		       COALESCE(guardian_email, ''),
		       COALESCE(guardian_phone, ''),
		       COALESCE(last_reviewed::text, '')
		FROM player_profiles
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read player profiles: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id, name, dob, status, expiry, faces, initials, gName, gEmail, gPhone, reviewed string
		if err := rows.Scan(&id, &name, &dob, &status, &expiry, &faces, &initials, &gName, &gEmail, &gPhone, &reviewed); err != nil {
			return nil, fmt.Errorf("scan player profile: %w", err)
		}
		out = append(out, Row{
			"Player ID":              id,
			"Full Name":              name,
			"Date Of Birth":          dob,
			"Default Consent Status": status,
			"Default Consent Expiry": expiry,
			"Anonymise Faces":        faces,
			"Use Initials Only":      initials,
			"Guardian Name":          gName,
			"Guardian Email":         gEmail,
			"Guardian Phone":         gPhone,
			"Last Reviewed":          reviewed,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ReadConsents(ctx context.Context) ([]Row, error) {
	query := `
		SELECT player_id,
		       COALESCE(consent_type, ''),
		       COALESCE(status, ''),
		       COALESCE(captured_at::text, ''),
		       COALESCE(expires_at::text, ''),
		       COALESCE(revoked_at::text, ''),
		       COALESCE(proof_reference, ''),
		       COALESCE(source, ''),
		       COALESCE(anonymise_faces::text, ''),
		       COALESCE(use_initials_only::text, '')
		FROM consent_records
		ORDER BY captured_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read consent records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id, typ, status, captured, expires, revoked, proof, source, faces, initials string
		if err := rows.Scan(&id, &typ, &status, &captured, &expires, &revoked, &proof, &source, &faces, &initials); err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		out = append(out, Row{
			"Player ID":         id,
			"Consent Type":      typ,
			"Status":            status,
			"Captured At":       captured,
			"Expires At":        expires,
			"Revoked At":        revoked,
			"Proof Reference":   proof,
			"Source":            source,
			"Anonymise Faces":   faces,
			"Use Initials Only": initials,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent records: %w", err)
	}
	return out, nil
}
