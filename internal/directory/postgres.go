package directory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	id "entgate/pkg/domain"
	derrors "entgate/pkg/domain-errors"
	"entgate/pkg/platform/sentinel"
)

// Schema for the users table this directory reads. In deployments where an
// account service owns the table, EnsureSchema is skipped.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id    UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE
);
`

// PostgresDirectory reads users from the shared Postgres database.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, Schema)
	return err
}

func (d *PostgresDirectory) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID.String()).Scan(&exists)
	if err != nil {
		return false, derrors.Wrap(err, derrors.CodeUnavailable, "user lookup failed")
	}
	return exists, nil
}

func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (id.UserID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var raw string
	err := d.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = $1`, email).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return id.UserID{}, derrors.Wrap(sentinel.ErrNotFound, derrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return id.UserID{}, derrors.Wrap(err, derrors.CodeUnavailable, "user lookup failed")
	}
	return id.ParseUserID(raw)
}
