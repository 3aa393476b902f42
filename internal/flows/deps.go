package flows

import (
	"context"

	"github.com/MrEthical07/taskauth/jwt"
	"github.com/MrEthical07/taskauth/revocation"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates each request method to the matching flow.
type Deps struct {
	Issue        IssueDeps
	Refresh      RefreshDeps
	Authenticate AuthenticateDeps
	Logout       LogoutDeps
}

// RevocationChecker answers ledger membership queries.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Revoker writes ledger entries.
type Revoker interface {
	Revoke(ctx context.Context, token string) (revocation.Outcome, error)
}

// DecodeFunc verifies a token of a fixed kind at the current instant.
type DecodeFunc func(token string) (*jwt.Claims, error)

// EncodeFunc signs a credential of kind for subject at the current instant.
type EncodeFunc func(subject string, kind jwt.Kind) (string, error)
