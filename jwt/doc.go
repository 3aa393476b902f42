// Package jwt signs and verifies the access and refresh credentials handed to
// clients. It is pure: no I/O, no clock reads (the caller passes now), and no
// shared state beyond the immutable secrets.
//
// # Failure classes
//
//   - [ErrMalformed] - input is not a compact JWS.
//   - [ErrInvalid] - bad signature, wrong algorithm, wrong kind, bad subject.
//   - [ErrExpired] - authentic credential whose exp is not after now.
package jwt
