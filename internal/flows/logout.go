package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/taskauth/revocation"
)

// LogoutDeps captures session termination dependencies.
type LogoutDeps struct {
	Ledger Revoker
}

// LogoutResult reports what happened to each credential.
type LogoutResult struct {
	AccessOutcome  revocation.Outcome
	RefreshOutcome revocation.Outcome
	Err            error
}

// RunLogout revokes both credentials independently. A failure on one does
// not prevent the attempt on the other. No identity check is made.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) LogoutResult {
	accessOutcome, accessErr := deps.Ledger.Revoke(ctx, accessToken)
	refreshOutcome, refreshErr := deps.Ledger.Revoke(ctx, refreshToken)

	return LogoutResult{
		AccessOutcome:  accessOutcome,
		RefreshOutcome: refreshOutcome,
		Err:            errors.Join(accessErr, refreshErr),
	}
}
