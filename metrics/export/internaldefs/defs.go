package internaldefs

import "github.com/MrEthical07/taskauth"

// CounterDef maps one in-process counter onto an exported series. Defs that
// share a Name form one family and differ by a single label.
type CounterDef struct {
	ID         taskauth.MetricID
	Name       string
	Help       string
	LabelKey   string
	LabelValue string
}

type HistogramDef struct {
	ID   taskauth.MetricID
	Name string
	Help string
}

// CounterDefs is ordered so members of a family are adjacent.
var CounterDefs = []CounterDef{
	{ID: taskauth.MetricIssueSuccess, Name: "taskauth_credentials_issued_total", Help: "Credential pair issuance attempts.", LabelKey: "result", LabelValue: "success"},
	{ID: taskauth.MetricIssueFailure, Name: "taskauth_credentials_issued_total", Help: "Credential pair issuance attempts.", LabelKey: "result", LabelValue: "failure"},

	{ID: taskauth.MetricRefreshSuccess, Name: "taskauth_refresh_total", Help: "Access credential refresh attempts.", LabelKey: "result", LabelValue: "success"},
	{ID: taskauth.MetricRefreshFailure, Name: "taskauth_refresh_total", Help: "Access credential refresh attempts.", LabelKey: "result", LabelValue: "failure"},
	{ID: taskauth.MetricRefreshRevoked, Name: "taskauth_refresh_revoked_total", Help: "Refresh attempts with a revoked refresh credential."},

	{ID: taskauth.MetricAuthenticateSuccess, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "success"},
	{ID: taskauth.MetricAuthenticateMissing, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "missing"},
	{ID: taskauth.MetricAuthenticateMalformed, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "malformed"},
	{ID: taskauth.MetricAuthenticateInvalid, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "invalid"},
	{ID: taskauth.MetricAuthenticateRevoked, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "revoked"},
	{ID: taskauth.MetricAuthenticateExpired, Name: "taskauth_authenticate_total", Help: "Gate decisions by outcome.", LabelKey: "result", LabelValue: "expired"},

	{ID: taskauth.MetricLedgerUnavailable, Name: "taskauth_ledger_unavailable_total", Help: "Operations failed closed because the revocation store was unreachable."},

	{ID: taskauth.MetricRevokeRecorded, Name: "taskauth_revocations_total", Help: "Revocation attempts by outcome.", LabelKey: "outcome", LabelValue: "recorded"},
	{ID: taskauth.MetricRevokeAlreadyRevoked, Name: "taskauth_revocations_total", Help: "Revocation attempts by outcome.", LabelKey: "outcome", LabelValue: "already_revoked"},
	{ID: taskauth.MetricRevokeSkipped, Name: "taskauth_revocations_total", Help: "Revocation attempts by outcome.", LabelKey: "outcome", LabelValue: "skipped"},

	{ID: taskauth.MetricLogout, Name: "taskauth_logout_total", Help: "Completed logouts."},
	{ID: taskauth.MetricSweepRemoved, Name: "taskauth_sweep_removed_total", Help: "Stale ledger entries removed by sweeps."},
	{ID: taskauth.MetricRateLimitHit, Name: "taskauth_rate_limited_total", Help: "Requests refused by a rate limiter."},
}

var HistogramDefs = []HistogramDef{
	{ID: taskauth.MetricAuthenticateLatency, Name: "taskauth_authenticate_latency_seconds", Help: "Gate latency."},
}

// AuditDroppedName is the series for audit events lost to backpressure.
const AuditDroppedName = "taskauth_audit_dropped_total"

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as instrument-name-safe text.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// Family groups adjacent CounterDefs sharing a name.
type Family struct {
	Name    string
	Help    string
	Members []CounterDef
}

// Families returns CounterDefs grouped by name, preserving order.
func Families() []Family {
	var out []Family
	for _, def := range CounterDefs {
		if n := len(out); n > 0 && out[n-1].Name == def.Name {
			out[n-1].Members = append(out[n-1].Members, def)
			continue
		}
		out = append(out, Family{Name: def.Name, Help: def.Help, Members: []CounterDef{def}})
	}
	return out
}

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to Prometheus le semantics.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
