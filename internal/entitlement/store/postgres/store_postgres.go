// Package postgres persists entitlement records in PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"entgate/internal/catalog"
	"entgate/internal/entitlement/models"
	id "entgate/pkg/domain"
	"entgate/pkg/platform/sentinel"
	"entgate/pkg/requestcontext"
)

// Schema creates the entitlements table. Column names are the stable
// external format; readers across schema version bumps depend on them.
const Schema = `
CREATE TABLE IF NOT EXISTS entitlements (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL,
	feature    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	version    INT  NOT NULL,
	config     JSONB NOT NULL,
	granted_at TIMESTAMPTZ NOT NULL,
	revoked_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS entitlements_user_idx ON entitlements (user_id, feature);
CREATE INDEX IF NOT EXISTS entitlements_active_early_access_idx
	ON entitlements (feature) WHERE revoked_at IS NULL;
`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the table definition. Intended for tests and small
// deployments; production migrations run out of band.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply entitlements schema: %w", err)
	}
	return nil
}

// Insert appends a record. Append-only by construction: the primary key is
// the record ID, so concurrent grants for the same (user, feature) both land.
func (s *Store) Insert(ctx context.Context, record *models.EntitlementRecord) error {
	query := `
		INSERT INTO entitlements (id, user_id, feature, kind, version, config, granted_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.UserID),
		string(record.Feature),
		string(record.Kind),
		record.Version,
		[]byte(record.Config),
		record.GrantedAt,
		record.RevokedAt,
	)
	if err != nil {
		return storeErr("insert entitlement", err)
	}
	return nil
}

// ListByUser returns the user's records, optionally filtered by kind.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID, kinds ...catalog.Kind) ([]models.EntitlementRecord, error) {
	query := `
		SELECT id, user_id, feature, kind, version, config, granted_at, revoked_at
		FROM entitlements
		WHERE user_id = $1
	`
	args := []any{uuid.UUID(userID)}
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		query += ` AND kind = ANY($2)`
		args = append(args, pq.Array(names))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list entitlements", err)
	}
	defer rows.Close()

	var out []models.EntitlementRecord
	for rows.Next() {
		var (
			rec        models.EntitlementRecord
			recID, uid uuid.UUID
			feature    string
			kind       string
			config     []byte
			revokedAt  sql.NullTime
		)
		if err := rows.Scan(&recID, &uid, &feature, &kind, &rec.Version, &config, &rec.GrantedAt, &revokedAt); err != nil {
			return nil, storeErr("scan entitlement", err)
		}
		rec.ID = id.RecordID(recID)
		rec.UserID = id.UserID(uid)
		rec.Feature = catalog.FeatureName(feature)
		rec.Kind = catalog.Kind(kind)
		rec.Config = config
		if revokedAt.Valid {
			t := revokedAt.Time
			rec.RevokedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list entitlements", err)
	}
	return out, nil
}

// DeleteActive tombstones every active record for (user, feature). Returns
// false when no active grant existed.
func (s *Store) DeleteActive(ctx context.Context, userID id.UserID, feature catalog.FeatureName) (bool, error) {
	query := `
		UPDATE entitlements SET revoked_at = $3
		WHERE user_id = $1 AND feature = $2 AND revoked_at IS NULL
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(userID), string(feature), requestcontext.Now(ctx))
	if err != nil {
		return false, storeErr("revoke entitlement", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("revoke entitlement", err)
	}
	return affected > 0, nil
}

// ListEarlyAccessUsers returns the distinct users holding an active
// early-access grant.
func (s *Store) ListEarlyAccessUsers(ctx context.Context) ([]id.UserID, error) {
	query := `
		SELECT DISTINCT user_id FROM entitlements
		WHERE feature = $1 AND revoked_at IS NULL
		ORDER BY user_id
	`
	rows, err := s.db.QueryContext(ctx, query, string(catalog.FeatureEarlyAccess))
	if err != nil {
		return nil, storeErr("list early access users", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			return nil, storeErr("scan early access user", err)
		}
		out = append(out, id.UserID(uid))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list early access users", err)
	}
	return out, nil
}

// storeErr classifies driver failures. Connection-level problems surface as
// ErrUnavailable so services degrade instead of reporting internal errors;
// unique violations surface as ErrConflict.
func storeErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity constraint violation
			return fmt.Errorf("%s: %w: %v", op, sentinel.ErrConflict, err)
		case "08", "53", "57": // connection, resources, operator intervention
			return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
