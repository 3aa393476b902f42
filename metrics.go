package taskauth

import internalmetrics "github.com/MrEthical07/taskauth/internal/metrics"

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricIssueSuccess          = internalmetrics.MetricIssueSuccess
	MetricIssueFailure          = internalmetrics.MetricIssueFailure
	MetricRefreshSuccess        = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure        = internalmetrics.MetricRefreshFailure
	MetricRefreshRevoked        = internalmetrics.MetricRefreshRevoked
	MetricAuthenticateSuccess   = internalmetrics.MetricAuthenticateSuccess
	MetricAuthenticateMissing   = internalmetrics.MetricAuthenticateMissing
	MetricAuthenticateMalformed = internalmetrics.MetricAuthenticateMalformed
	MetricAuthenticateInvalid   = internalmetrics.MetricAuthenticateInvalid
	MetricAuthenticateRevoked   = internalmetrics.MetricAuthenticateRevoked
	MetricAuthenticateExpired   = internalmetrics.MetricAuthenticateExpired
	MetricLedgerUnavailable     = internalmetrics.MetricLedgerUnavailable
	MetricRevokeRecorded        = internalmetrics.MetricRevokeRecorded
	MetricRevokeAlreadyRevoked  = internalmetrics.MetricRevokeAlreadyRevoked
	MetricRevokeSkipped         = internalmetrics.MetricRevokeSkipped
	MetricLogout                = internalmetrics.MetricLogout
	MetricSweepRemoved          = internalmetrics.MetricSweepRemoved
	MetricRateLimitHit          = internalmetrics.MetricRateLimitHit
	MetricAuthenticateLatency   = internalmetrics.MetricAuthenticateLatency
)

// Metrics holds atomic counters and the optional authenticate latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
