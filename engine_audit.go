package taskauth

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/taskauth/internal/audit"
)

const (
	auditEventIssue        = "credential_issued"
	auditEventRefresh      = "credential_refreshed"
	auditEventRefreshDeny  = "refresh_rejected"
	auditEventGateReject   = "gate_rejected"
	auditEventRevoke       = "credential_revoked"
	auditEventLogout       = "logout"
	auditEventSweep        = "revocation_sweep"
	auditEventRateLimitHit = "rate_limit_triggered"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, e.now())
	event.SubjectID = subjectID
	event.Success = success
	event.IP = ClientIPFromContext(ctx)
	event.RequestID = requestIDFromContext(ctx)
	if err != nil {
		event.Reason = auditReason(err)
	}
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}

	e.audit.Emit(ctx, event)
}

// RecordRateLimit counts and audits a request refused by a rate limiter
// sitting in front of the Engine.
func (e *Engine) RecordRateLimit(ctx context.Context, scope string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitHit, false, 0, nil, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditReason(err error) string {
	if reason := ReasonOf(err); reason != ReasonNone {
		return string(reason)
	}
	if errors.Is(err, ErrInvalidSubject) {
		return "invalid_subject"
	}
	return "internal_error"
}
