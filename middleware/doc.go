// Package middleware adapts the taskauth gate to net/http.
//
// [Guard] reads the Authorization header, calls Engine.Authenticate and
// injects the authenticated subject into the request context. Handlers read
// it back with [SubjectID].
//
// # What this package must NOT do
//
//   - Parse or verify credentials itself (the Engine does).
//   - Touch the revocation store directly.
//   - Distinguish revoked from forged credentials in responses.
package middleware
