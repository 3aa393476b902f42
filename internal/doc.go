// Package internal groups the packages that are private to taskauth and its
// server binary.
//
// # Sub-packages
//
//   - accounts: user registration, credential checks and account deletion
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: layered server configuration (defaults, YAML, .env, env, flags)
//   - dbx: the query interface shared by database/sql and transactions
//   - flows: pure-function flow orchestrators for every Engine operation
//   - httpapi: JSON routes for accounts and tasks
//   - logging: structured logger interface over log/slog
//   - metrics: lock-free counters and latency histograms
//   - migrations: embedded goose migrations for Postgres
//   - rate: Redis-backed fixed-window limits and login lockout
//   - security: startup security posture report
//   - tasks: per-owner task records with paging
//
// # What this package must NOT do
//
//   - Export types that appear in the public taskauth API.
//   - Be imported by any package outside the taskauth module.
package internal
