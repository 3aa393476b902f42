// Package revocation implements the credential revocation ledger: a set of
// SHA-256 fingerprints of revoked tokens, each kept only until the token
// would have expired anyway.
//
// # Storage
//
// The [Store] interface is the only place shared state lives. Backends:
//
//   - memstore: process-local map, for tests and single-instance setups.
//   - redisstore: Redis keys plus a sorted-set expiry index.
//   - pgstore: PostgreSQL table with a unique fingerprint column.
//
// # Garbage collection
//
// Stale entries disappear two ways: lazily when [Ledger.IsRevoked] reads one,
// and in bulk through [Ledger.Sweep], usually driven by a [Sweeper].
package revocation
