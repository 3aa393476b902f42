package taskauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/taskauth/internal/audit"
	"github.com/MrEthical07/taskauth/internal/flows"
	"github.com/MrEthical07/taskauth/jwt"
	"github.com/MrEthical07/taskauth/revocation"
)

// Engine issues, verifies and revokes bearer credentials. It is safe for
// concurrent use; all shared state lives in the revocation store.
type Engine struct {
	config  Config
	codec   *jwt.Codec
	ledger  *revocation.Ledger
	flows   flows.Deps
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func (e *Engine) buildFlowDeps() flows.Deps {
	encode := func(subject string, kind jwt.Kind) (string, error) {
		return e.codec.Encode(subject, kind, e.now())
	}
	decodeAs := func(kind jwt.Kind) flows.DecodeFunc {
		return func(token string) (*jwt.Claims, error) {
			return e.codec.Decode(token, kind, e.now())
		}
	}

	return flows.Deps{
		Issue: flows.IssueDeps{Encode: encode},
		Refresh: flows.RefreshDeps{
			Ledger:        e.ledger,
			DecodeRefresh: decodeAs(jwt.KindRefresh),
			Encode:        encode,
		},
		Authenticate: flows.AuthenticateDeps{
			Ledger:       e.ledger,
			DecodeAccess: decodeAs(jwt.KindAccess),
		},
		Logout: flows.LogoutDeps{Ledger: e.ledger},
	}
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports events discarded because the audit buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// IssuePair mints an access and a refresh credential for subjectID. Both
// carry the same subject and issue instant.
func (e *Engine) IssuePair(ctx context.Context, subjectID int64) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := flows.RunIssuePair(subjectID, e.flows.Issue)
	if res.Failure != flows.IssueFailureNone {
		e.metricInc(MetricIssueFailure)
		err := res.Err
		if res.Failure == flows.IssueFailureSubject {
			err = fmt.Errorf("%w: %v", ErrInvalidSubject, res.Err)
		}
		e.emitAudit(ctx, auditEventIssue, false, subjectID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssue, true, subjectID, nil, nil)

	return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// RefreshAccess exchanges a live refresh credential for a new access
// credential. The refresh credential is not rotated. A revoked refresh
// credential is reported as ErrInvalidCredential.
func (e *Engine) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefresh, true, res.SubjectID, nil, nil)
		return res.AccessToken, nil
	case flows.RefreshFailureLedger:
		err = e.ledgerFailure(ctx, "refresh", res.Err)
	case flows.RefreshFailureRevoked:
		e.metricInc(MetricRefreshRevoked)
		err = ErrInvalidCredential
	case flows.RefreshFailureMalformed:
		err = fmt.Errorf("%w: %v", ErrMalformedCredential, res.Err)
	case flows.RefreshFailureExpired:
		err = fmt.Errorf("%w: %v", ErrExpiredCredential, res.Err)
	case flows.RefreshFailureInvalid:
		err = fmt.Errorf("%w: %v", ErrInvalidCredential, res.Err)
	default:
		err = res.Err
	}

	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshDeny, false, res.SubjectID, err, nil)
	return "", err
}

// Authenticate runs the gate over a raw Authorization header value.
//
//	""                          -> ErrMissingCredential
//	not "Bearer <token>"        -> ErrMalformedCredential
//	fingerprint revoked         -> ErrInvalidCredential
//	exp <= now                  -> ErrExpiredCredential
//	not a compact JWS           -> ErrMalformedCredential
//	bad signature, kind, claims -> ErrInvalidCredential
//	store unreachable           -> ErrLedgerUnavailable
func (e *Engine) Authenticate(ctx context.Context, authorization string) (*AuthenticatedSubject, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	res := flows.RunAuthenticate(ctx, authorization, e.flows.Authenticate)

	var err error
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		e.metricInc(MetricAuthenticateSuccess)
		return &AuthenticatedSubject{
			SubjectID: res.SubjectID,
			IssuedAt:  res.Claims.IssuedAtTime(),
			ExpiresAt: res.Claims.ExpiresAtTime(),
		}, nil
	case flows.AuthenticateFailureMissing:
		e.metricInc(MetricAuthenticateMissing)
		err = ErrMissingCredential
	case flows.AuthenticateFailureMalformedHeader:
		e.metricInc(MetricAuthenticateMalformed)
		err = ErrMalformedCredential
	case flows.AuthenticateFailureLedger:
		return nil, e.ledgerFailure(ctx, "authenticate", res.Err)
	case flows.AuthenticateFailureRevoked:
		e.metricInc(MetricAuthenticateRevoked)
		err = ErrInvalidCredential
	case flows.AuthenticateFailureMalformed:
		e.metricInc(MetricAuthenticateMalformed)
		err = fmt.Errorf("%w: %v", ErrMalformedCredential, res.Err)
	case flows.AuthenticateFailureExpired:
		e.metricInc(MetricAuthenticateExpired)
		err = fmt.Errorf("%w: %v", ErrExpiredCredential, res.Err)
	default:
		e.metricInc(MetricAuthenticateInvalid)
		err = fmt.Errorf("%w: %v", ErrInvalidCredential, res.Err)
	}

	e.emitAudit(ctx, auditEventGateReject, false, 0, err, nil)
	return nil, err
}

// AuthenticateToken runs the gate over a bare token, as if it had been
// presented as "Bearer <token>".
func (e *Engine) AuthenticateToken(ctx context.Context, token string) (*AuthenticatedSubject, error) {
	if token == "" {
		return e.Authenticate(ctx, "")
	}
	return e.Authenticate(ctx, "Bearer "+token)
}

// Logout revokes both credentials. Malformed or already expired tokens
// are skipped silently. No check is made that the two tokens belong to the
// same subject. Only ErrLedgerUnavailable is returned.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, accessToken, refreshToken, e.flows.Logout)
	if res.Err != nil {
		return e.ledgerFailure(ctx, "logout", res.Err)
	}
	e.countRevoke(res.AccessOutcome)
	e.countRevoke(res.RefreshOutcome)

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, 0, nil, func() map[string]string {
		return map[string]string{
			"access":  res.AccessOutcome.String(),
			"refresh": res.RefreshOutcome.String(),
		}
	})
	return nil
}

// Revoke records a single credential in the ledger until its natural expiry.
func (e *Engine) Revoke(ctx context.Context, token string) (revocation.Outcome, error) {
	if e == nil {
		return revocation.OutcomeSkipped, ErrEngineNotReady
	}

	outcome, err := e.ledger.Revoke(ctx, token)
	if err != nil {
		return outcome, e.ledgerFailure(ctx, "revoke", err)
	}
	e.countRevoke(outcome)
	e.emitAudit(ctx, auditEventRevoke, true, 0, nil, func() map[string]string {
		return map[string]string{"outcome": outcome.String()}
	})
	return outcome, nil
}

// IsRevoked reports whether a live ledger entry exists for token.
func (e *Engine) IsRevoked(ctx context.Context, token string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	revoked, err := e.ledger.IsRevoked(ctx, token)
	if err != nil {
		return false, e.ledgerFailure(ctx, "is_revoked", err)
	}
	return revoked, nil
}

// Sweep removes stale ledger entries and returns how many were deleted.
func (e *Engine) Sweep(ctx context.Context) (int64, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	removed, err := e.ledger.Sweep(ctx)
	if err != nil {
		return 0, e.ledgerFailure(ctx, "sweep", err)
	}
	e.metrics.Add(MetricSweepRemoved, removed)
	if removed > 0 {
		e.emitAudit(ctx, auditEventSweep, true, 0, nil, func() map[string]string {
			return map[string]string{"removed": fmt.Sprint(removed)}
		})
	}
	return removed, nil
}

// RunSweeper blocks, sweeping on Revocation.SweepInterval until ctx is
// done. It returns immediately when the interval is zero.
func (e *Engine) RunSweeper(ctx context.Context) {
	if e == nil || e.config.Revocation.SweepInterval <= 0 {
		return
	}
	revocation.NewSweeper(e.Sweep, e.config.Revocation.SweepInterval, e.logger).Run(ctx)
}

func (e *Engine) countRevoke(outcome revocation.Outcome) {
	switch outcome {
	case revocation.OutcomeRecorded:
		e.metricInc(MetricRevokeRecorded)
	case revocation.OutcomeAlreadyRevoked:
		e.metricInc(MetricRevokeAlreadyRevoked)
	case revocation.OutcomeSkipped:
		e.metricInc(MetricRevokeSkipped)
	}
}

func (e *Engine) ledgerFailure(ctx context.Context, op string, err error) error {
	e.metricInc(MetricLedgerUnavailable)
	if !errors.Is(err, context.Canceled) {
		e.logger.ErrorContext(ctx, "revocation ledger unavailable", "op", op, "error", err)
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
}
