// Package pgstore implements authcore.IdentityStore over PostgreSQL.
//
// The pgx pool is owned by the caller; this store never closes it. Unique
// violations on email or phone map to authcore.ErrIdentifierTaken, missing
// rows to authcore.ErrIdentityNotFound.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hallgard/authcore"
)

// Schema is the DDL for the identities table. Apply it with [Migrate] or
// through the deployment's own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
    id                  TEXT PRIMARY KEY,
    email               TEXT UNIQUE,
    phone               TEXT UNIQUE,
    password_hash       TEXT NOT NULL,
    first_name          TEXT NOT NULL DEFAULT '',
    last_name           TEXT NOT NULL DEFAULT '',
    role                TEXT NOT NULL,
    active              BOOLEAN NOT NULL DEFAULT TRUE,
    verified            BOOLEAN NOT NULL DEFAULT FALSE,
    email_verified_at   TIMESTAMPTZ,
    phone_verified_at   TIMESTAMPTZ,
    registration_status TEXT NOT NULL DEFAULT 'pending',
    approved_by         TEXT NOT NULL DEFAULT '',
    approved_at         TIMESTAMPTZ,
    rejection_reason    TEXT NOT NULL DEFAULT '',
    failed_attempts     INTEGER NOT NULL DEFAULT 0,
    lockout_until       TIMESTAMPTZ,
    last_login_at       TIMESTAMPTZ,
    last_login_origin   TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL
);
`

const identityColumns = `id, email, phone, password_hash, first_name, last_name, role,
	active, verified, email_verified_at, phone_verified_at,
	registration_status, approved_by, approved_at, rejection_reason,
	failed_attempts, lockout_until, last_login_at, last_login_origin,
	created_at, updated_at`

// Store persists identities in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pgstore: nil pool")
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the identities schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

// FindByIdentifier resolves an email address or phone number.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*authcore.Identity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = $1 OR phone = $1`,
		identifier)
	return scanIdentity(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (*authcore.Identity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`,
		id)
	return scanIdentity(row)
}

func (s *Store) Create(ctx context.Context, identity *authcore.Identity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7,
		        $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		identity.ID, identity.Email, identity.Phone, identity.PasswordHash,
		identity.FirstName, identity.LastName, string(identity.Role),
		identity.Active, identity.Verified,
		identity.EmailVerifiedAt, identity.PhoneVerifiedAt,
		string(identity.RegistrationStatus), identity.ApprovedBy, identity.ApprovedAt,
		identity.RejectionReason,
		identity.FailedAttempts, identity.LockoutUntil,
		identity.LastLoginAt, identity.LastLoginOrigin,
		identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.ErrIdentifierTaken
		}
		return fmt.Errorf("pgstore: create: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, identity *authcore.Identity) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE identities SET
			email = NULLIF($2, ''), phone = NULLIF($3, ''),
			password_hash = $4, first_name = $5, last_name = $6, role = $7,
			active = $8, verified = $9,
			email_verified_at = $10, phone_verified_at = $11,
			registration_status = $12, approved_by = $13, approved_at = $14,
			rejection_reason = $15,
			failed_attempts = $16, lockout_until = $17,
			last_login_at = $18, last_login_origin = $19,
			updated_at = $20
		WHERE id = $1`,
		identity.ID, identity.Email, identity.Phone, identity.PasswordHash,
		identity.FirstName, identity.LastName, string(identity.Role),
		identity.Active, identity.Verified,
		identity.EmailVerifiedAt, identity.PhoneVerifiedAt,
		string(identity.RegistrationStatus), identity.ApprovedBy, identity.ApprovedAt,
		identity.RejectionReason,
		identity.FailedAttempts, identity.LockoutUntil,
		identity.LastLoginAt, identity.LastLoginOrigin,
		identity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.ErrIdentifierTaken
		}
		return fmt.Errorf("pgstore: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrIdentityNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (*authcore.Identity, error) {
	var (
		identity authcore.Identity
		email    *string
		phone    *string
		role     string
		status   string
	)
	err := row.Scan(
		&identity.ID, &email, &phone, &identity.PasswordHash,
		&identity.FirstName, &identity.LastName, &role,
		&identity.Active, &identity.Verified,
		&identity.EmailVerifiedAt, &identity.PhoneVerifiedAt,
		&status, &identity.ApprovedBy, &identity.ApprovedAt,
		&identity.RejectionReason,
		&identity.FailedAttempts, &identity.LockoutUntil,
		&identity.LastLoginAt, &identity.LastLoginOrigin,
		&identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("pgstore: scan: %w", err)
	}
	if email != nil {
		identity.Email = *email
	}
	if phone != nil {
		identity.Phone = *phone
	}
	identity.Role = authcore.Role(role)
	identity.RegistrationStatus = authcore.RegistrationStatus(status)
	return &identity, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
