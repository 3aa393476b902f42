package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/MrEthical07/taskauth/jwt"
)

var (
	// ErrNotFound is returned by [Store.FindRevocation] when no entry exists.
	ErrNotFound = errors.New("revocation entry not found")
	// ErrDuplicate is returned by [Store.InsertRevocation] when the fingerprint is already recorded.
	ErrDuplicate = errors.New("revocation entry already exists")
	// ErrUnavailable wraps backend failures (network, driver, timeouts).
	ErrUnavailable = errors.New("revocation store unavailable")
)

// Entry is one persisted revocation. An entry whose ExpiresAt is not after
// now carries no meaning and may be removed at any time.
type Entry struct {
	Fingerprint string
	ExpiresAt   time.Time
}

// Store is the persistence contract of the ledger. Implementations must make
// InsertRevocation atomic per fingerprint and tolerate deletes of missing rows.
type Store interface {
	InsertRevocation(ctx context.Context, fingerprint string, expiresAt time.Time) error
	FindRevocation(ctx context.Context, fingerprint string) (Entry, error)
	DeleteRevocation(ctx context.Context, fingerprint string) error
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryDecoder recovers the expiry of a credential of any kind.
// AcceptedUntil must cover every instant at which the credential still
// decodes, leeway included. [*jwt.Codec] satisfies it.
type ExpiryDecoder interface {
	DecodeAny(token string, now time.Time) (*jwt.Claims, error)
	AcceptedUntil(claims *jwt.Claims) time.Time
}

// Outcome reports what [Ledger.Revoke] did.
type Outcome int

const (
	// OutcomeRecorded means a new entry was written.
	OutcomeRecorded Outcome = iota
	// OutcomeAlreadyRevoked means a live entry existed or a concurrent writer won the insert.
	OutcomeAlreadyRevoked
	// OutcomeSkipped means the token could not be decoded and nothing was written.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeAlreadyRevoked:
		return "already_revoked"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Ledger records revoked credentials by fingerprint and answers membership
// queries. It keeps no in-process state; every guarantee comes from the Store.
type Ledger struct {
	store   Store
	decoder ExpiryDecoder
	now     func() time.Time
}

// NewLedger wires a ledger. A nil clock defaults to time.Now.
func NewLedger(store Store, decoder ExpiryDecoder, now func() time.Time) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("revocation store required")
	}
	if decoder == nil {
		return nil, errors.New("expiry decoder required")
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, decoder: decoder, now: now}, nil
}

// Fingerprint returns the lowercase hex SHA-256 of the full token string.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Revoke records token until the codec would stop accepting it.
//
// Revoking twice is a no-op. Tokens that cannot be decoded under either
// secret (including already expired ones) are skipped without error. Only
// backend failures are returned.
func (l *Ledger) Revoke(ctx context.Context, token string) (Outcome, error) {
	fp := Fingerprint(token)
	now := l.now().UTC()

	entry, err := l.store.FindRevocation(ctx, fp)
	switch {
	case err == nil && entry.ExpiresAt.After(now):
		return OutcomeAlreadyRevoked, nil
	case err == nil:
		_ = l.store.DeleteRevocation(ctx, fp)
	case !errors.Is(err, ErrNotFound):
		return OutcomeSkipped, err
	}

	claims, err := l.decoder.DecodeAny(token, now)
	if err != nil {
		return OutcomeSkipped, nil
	}

	if err := l.store.InsertRevocation(ctx, fp, l.decoder.AcceptedUntil(claims)); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return OutcomeAlreadyRevoked, nil
		}
		return OutcomeSkipped, err
	}

	return OutcomeRecorded, nil
}

// IsRevoked reports whether a live entry exists for token. A stale entry is
// deleted on the way out; failures of that delete are ignored.
func (l *Ledger) IsRevoked(ctx context.Context, token string) (bool, error) {
	fp := Fingerprint(token)

	entry, err := l.store.FindRevocation(ctx, fp)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if !entry.ExpiresAt.After(l.now().UTC()) {
		_ = l.store.DeleteRevocation(ctx, fp)
		return false, nil
	}

	return true, nil
}

// Sweep deletes every entry whose expiry is not after now and returns how
// many were removed. Overlapping sweeps are safe.
func (l *Ledger) Sweep(ctx context.Context) (int64, error) {
	return l.store.DeleteExpiredRevocations(ctx, l.now().UTC())
}
