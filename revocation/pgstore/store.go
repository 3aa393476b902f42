// Package pgstore is a PostgreSQL-backed revocation.Store over the
// revoked_credentials table.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/taskauth/internal/dbx"
	"github.com/MrEthical07/taskauth/revocation"
)

// Store implements revocation.Store with plain SQL.
type Store struct {
	db dbx.DBTX
}

// New returns a store bound to db, which may be a *sql.DB or *sql.Tx.
func New(db dbx.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) InsertRevocation(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	query :=
		`INSERT INTO revoked_credentials (fingerprint, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (fingerprint) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, fingerprint, expiresAt.UTC())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return revocation.ErrDuplicate
		}
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	if n == 0 {
		return revocation.ErrDuplicate
	}
	return nil
}

func (s *Store) FindRevocation(ctx context.Context, fingerprint string) (revocation.Entry, error) {
	query :=
		`SELECT fingerprint, expires_at FROM revoked_credentials
		 WHERE fingerprint = $1`

	var entry revocation.Entry
	err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(&entry.Fingerprint, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return revocation.Entry{}, revocation.ErrNotFound
		}
		return revocation.Entry{}, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	entry.ExpiresAt = entry.ExpiresAt.UTC()
	return entry, nil
}

func (s *Store) DeleteRevocation(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM revoked_credentials WHERE fingerprint = $1`, fingerprint)
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_credentials WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	return n, nil
}
