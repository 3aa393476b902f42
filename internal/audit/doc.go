// Package audit implements async delivery of security events.
//
// # Components
//
//   - [Sink]: event consumer (no-op, channel, JSON lines, slog).
//   - [Dispatcher]: bounded async relay that either drops or blocks when full.
//   - [Event]: one record with a uuid id, UTC timestamp, subject and metadata.
//
// This package owns buffering and delivery. The Engine decides which events
// to emit.
//
// # What this package must NOT do
//
//   - Filter events based on business rules.
//   - Import taskauth or any sibling internal package.
package audit
