package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/taskauth/jwt"
)

// AuthenticateFailureKind classifies gate rejections for root-level mapping.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureMissing
	AuthenticateFailureMalformedHeader
	AuthenticateFailureLedger
	AuthenticateFailureRevoked
	AuthenticateFailureMalformed
	AuthenticateFailureExpired
	AuthenticateFailureInvalid
)

// AuthenticateResult carries the authenticated subject or failure metadata.
type AuthenticateResult struct {
	Failure   AuthenticateFailureKind
	Err       error
	SubjectID int64
	Claims    *jwt.Claims
}

// AuthenticateDeps captures gate dependencies.
type AuthenticateDeps struct {
	Ledger       RevocationChecker
	DecodeAccess DecodeFunc
}

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization value of exactly
// "Bearer <token>". The token must be non-empty and contain no spaces.
func ParseBearer(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	token := value[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RunAuthenticate resolves an Authorization header value to a subject.
// The ledger is consulted before the token is decoded.
func RunAuthenticate(ctx context.Context, authorization string, deps AuthenticateDeps) AuthenticateResult {
	if authorization == "" {
		return AuthenticateResult{Failure: AuthenticateFailureMissing}
	}
	token, ok := ParseBearer(authorization)
	if !ok {
		return AuthenticateResult{Failure: AuthenticateFailureMalformedHeader}
	}

	revoked, err := deps.Ledger.IsRevoked(ctx, token)
	if err != nil {
		return AuthenticateResult{Failure: AuthenticateFailureLedger, Err: err}
	}
	if revoked {
		return AuthenticateResult{Failure: AuthenticateFailureRevoked}
	}

	claims, err := deps.DecodeAccess(token)
	if err != nil {
		return AuthenticateResult{Failure: decodeFailure(err), Err: err}
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		return AuthenticateResult{Failure: AuthenticateFailureInvalid, Err: err}
	}

	return AuthenticateResult{SubjectID: subjectID, Claims: claims}
}

func decodeFailure(err error) AuthenticateFailureKind {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return AuthenticateFailureExpired
	case errors.Is(err, jwt.ErrMalformed):
		return AuthenticateFailureMalformed
	default:
		return AuthenticateFailureInvalid
	}
}
