// Package flows contains the pure orchestration behind every Engine credential
// operation: issuing a pair, refreshing an access credential, authenticating
// a bearer header, and terminating a session.
//
// Each Run* function takes a typed dependency struct and returns a result
// carrying either the payload or a failure kind. The root package maps those
// kinds onto public errors, metrics and audit events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root taskauth package.
//   - Read the wall clock; time arrives through the decode closures.
package flows
