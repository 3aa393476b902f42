// Package rate provides Redis-backed fixed-window request budgets.
//
// # Window semantics
//
// INCR plus an expiry set on the first hit of each window. Keys are
// "<prefix>:<rule>:<subject-or-ip>". A request over budget learns how long
// the window has left through Decision.RetryAfter.
//
// [Lockout] reuses the same counter for failed logins per email.
//
// Route policy (which rule applies where) lives in internal/httpapi.
package rate
