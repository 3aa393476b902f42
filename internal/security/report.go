package security

import (
	"log/slog"
	"time"
)

// Posture thresholds that produce warnings.
const (
	maxAccessTTL  = time.Hour
	maxRefreshTTL = 90 * 24 * time.Hour
	minSecretLen  = 32
)

type Report struct {
	SigningAlgorithm   string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	Leeway             time.Duration
	IssuerPinned       bool
	RefreshRotation    bool
	SweepEnabled       bool
	SweepInterval      time.Duration
	AuditEnabled       bool
	AuditDropsWhenFull bool
	MetricsEnabled     bool
	LatencyHistograms  bool
	WeakSecrets        bool
	Warnings           []string
}

type ReportInput struct {
	SigningAlgorithm  string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	Leeway            time.Duration
	Issuer            string
	AccessSecretLen   int
	RefreshSecretLen  int
	SweepInterval     time.Duration
	AuditEnabled      bool
	AuditDropIfFull   bool
	MetricsEnabled    bool
	LatencyHistograms bool
}

func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm:   input.SigningAlgorithm,
		AccessTTL:          input.AccessTTL,
		RefreshTTL:         input.RefreshTTL,
		Leeway:             input.Leeway,
		IssuerPinned:       input.Issuer != "",
		SweepEnabled:       input.SweepInterval > 0,
		SweepInterval:      input.SweepInterval,
		AuditEnabled:       input.AuditEnabled,
		AuditDropsWhenFull: input.AuditEnabled && input.AuditDropIfFull,
		MetricsEnabled:     input.MetricsEnabled,
		LatencyHistograms:  input.MetricsEnabled && input.LatencyHistograms,
		WeakSecrets:        input.AccessSecretLen < minSecretLen || input.RefreshSecretLen < minSecretLen,
	}

	if r.WeakSecrets {
		r.Warnings = append(r.Warnings, "signing secrets shorter than 32 bytes")
	}
	if r.AccessTTL > maxAccessTTL {
		r.Warnings = append(r.Warnings, "access credential lifetime exceeds 1h")
	}
	if r.RefreshTTL > maxRefreshTTL {
		r.Warnings = append(r.Warnings, "refresh credential lifetime exceeds 90d")
	}
	if !r.SweepEnabled {
		r.Warnings = append(r.Warnings, "revocation sweep disabled; ledger grows until swept manually")
	}
	if r.AuditDropsWhenFull {
		r.Warnings = append(r.Warnings, "audit events are dropped when the buffer is full")
	}
	return r
}

// LogValue renders the report as a structured group.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("alg", r.SigningAlgorithm),
		slog.Duration("access_ttl", r.AccessTTL),
		slog.Duration("refresh_ttl", r.RefreshTTL),
		slog.Duration("leeway", r.Leeway),
		slog.Bool("issuer_pinned", r.IssuerPinned),
		slog.Bool("refresh_rotation", r.RefreshRotation),
		slog.Bool("sweep", r.SweepEnabled),
		slog.Bool("audit", r.AuditEnabled),
		slog.Bool("metrics", r.MetricsEnabled),
		slog.Any("warnings", r.Warnings),
	)
}
