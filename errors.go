package taskauth

import "errors"

var (
	// ErrMissingCredential is returned when no Authorization header was sent.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential is returned for a header that is not exactly
	// "Bearer <token>" or a token that is not a compact JWS.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidCredential covers bad signatures, kind confusion, bad claims
	// and revoked credentials. Callers cannot tell these apart.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned for a correctly signed credential past its exp.
	ErrExpiredCredential = errors.New("expired credential")
	// ErrLedgerUnavailable is returned when the revocation store cannot be
	// reached. The gate fails closed.
	ErrLedgerUnavailable = errors.New("revocation ledger unavailable")
	// ErrInvalidSubject is returned by IssuePair for a non-positive subject id.
	ErrInvalidSubject = errors.New("invalid subject")
	// ErrEngineNotReady is returned when a method is called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RejectionReason tags why a credential was refused.
type RejectionReason string

const (
	ReasonNone        RejectionReason = ""
	ReasonMissing     RejectionReason = "missing"
	ReasonMalformed   RejectionReason = "malformed"
	ReasonInvalid     RejectionReason = "invalid"
	ReasonExpired     RejectionReason = "expired"
	ReasonUnavailable RejectionReason = "unavailable"
)

// ReasonOf maps an error returned by the Engine onto its RejectionReason.
// Errors outside the credential taxonomy yield ReasonNone.
func ReasonOf(err error) RejectionReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrMissingCredential):
		return ReasonMissing
	case errors.Is(err, ErrMalformedCredential):
		return ReasonMalformed
	case errors.Is(err, ErrExpiredCredential):
		return ReasonExpired
	case errors.Is(err, ErrInvalidCredential):
		return ReasonInvalid
	case errors.Is(err, ErrLedgerUnavailable):
		return ReasonUnavailable
	default:
		return ReasonNone
	}
}

// Message is the client-facing text for a rejection. Only expiry is
// distinguishable; every other credential failure reads "Unauthorized".
func (r RejectionReason) Message() string {
	switch r {
	case ReasonExpired:
		return "Token expired, please login again."
	case ReasonUnavailable:
		return "Service Unavailable"
	default:
		return "Unauthorized"
	}
}
