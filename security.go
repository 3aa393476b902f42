package taskauth

import (
	"github.com/MrEthical07/taskauth/internal/security"
	"github.com/MrEthical07/taskauth/jwt"
)

// SecurityReport summarises the engine's configured security posture.
// It never carries secret material.
type SecurityReport = security.Report

// SecurityReport builds a report from the engine's configuration.
func (e *Engine) SecurityReport() SecurityReport {
	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm:  jwt.Algorithm,
		AccessTTL:         cfg.JWT.AccessTTL,
		RefreshTTL:        cfg.JWT.RefreshTTL,
		Leeway:            cfg.JWT.Leeway,
		Issuer:            cfg.JWT.Issuer,
		AccessSecretLen:   len(cfg.JWT.AccessSecret),
		RefreshSecretLen:  len(cfg.JWT.RefreshSecret),
		SweepInterval:     cfg.Revocation.SweepInterval,
		AuditEnabled:      cfg.Audit.Enabled,
		AuditDropIfFull:   cfg.Audit.DropIfFull,
		MetricsEnabled:    cfg.Metrics.Enabled,
		LatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})
}
