// Package taskauth is the authentication and session-revocation core of the
// task tracker: HS256 access and refresh credentials, a bearer gate, and a
// revocation ledger that invalidates credentials before their natural expiry.
//
// Engine methods are safe to call from multiple goroutines after
// construction through [Builder.Build].
//
// # Architecture boundaries
//
// taskauth is the public surface. It exposes [Engine], [Builder], [Config],
// the credential errors and value types. Flow orchestration, metric storage
// and audit dispatch live under internal/. Signing lives in jwt, the ledger
// and its stores in revocation.
//
// # What this package must NOT do
//
//   - Consult the user store while authenticating a request.
//   - Keep revocation state in process memory; the Store is the only shared state.
//   - Read secrets from the environment; they arrive through [Config].
//
// # Failure contract
//
// Every gate failure maps to one of [ErrMissingCredential],
// [ErrMalformedCredential], [ErrInvalidCredential] or [ErrExpiredCredential].
// Only expiry is distinguishable to clients. A ledger outage yields
// [ErrLedgerUnavailable] and the gate fails closed.
package taskauth
