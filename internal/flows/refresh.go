package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/taskauth/jwt"
)

// RefreshFailureKind classifies refresh failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureLedger
	RefreshFailureRevoked
	RefreshFailureMalformed
	RefreshFailureExpired
	RefreshFailureInvalid
	RefreshFailureIssueAccess
)

// RefreshResult carries the new access credential or failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	SubjectID   int64
	AccessToken string
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	Ledger        RevocationChecker
	DecodeRefresh DecodeFunc
	Encode        EncodeFunc
}

// RunRefresh validates a refresh credential and mints a fresh access
// credential for its subject. The refresh credential itself is not rotated.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	revoked, err := deps.Ledger.IsRevoked(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureLedger, Err: err}
	}
	if revoked {
		return RefreshResult{Failure: RefreshFailureRevoked}
	}

	claims, err := deps.DecodeRefresh(refreshToken)
	if err != nil {
		kind := RefreshFailureInvalid
		switch {
		case errors.Is(err, jwt.ErrExpired):
			kind = RefreshFailureExpired
		case errors.Is(err, jwt.ErrMalformed):
			kind = RefreshFailureMalformed
		}
		return RefreshResult{Failure: kind, Err: err}
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}

	access, err := deps.Encode(claims.Subject, jwt.KindAccess)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, SubjectID: subjectID}
	}

	return RefreshResult{SubjectID: subjectID, AccessToken: access}
}
