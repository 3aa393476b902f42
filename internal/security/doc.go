// Package security summarises the security-relevant posture of a configured
// engine so it can be logged at startup and checked in tests.
//
// The report is derived from configuration only. It performs no I/O and
// never includes secret material.
package security
