// Package session provides the persisted token pair model and the durable
// token store used by the authflow client.
//
// # Record format
//
// The token pair is stored as one JSON record (default key "auth_tokens")
// with the fields accessToken, refreshToken, expiresIn and issuedAtMs. An
// absent, unreadable or malformed record is equivalent to the sentinel pair.
//
// # Storage backends
//
//   - [MemoryStorage]: process-local map, used by default and in tests.
//   - [FileStorage]: one file per key, replaced atomically via rename,
//     optionally sealed at rest with a [Sealer].
//   - [RedisStorage]: shared storage for clients that run behind a
//     load balancer and must agree on one session.
//
// # Architecture boundaries
//
// This package owns the [TokenPair] model, its codec and the [Store]. It does
// NOT refresh tokens, talk to the backend or interpret token claims; those
// responsibilities belong to the authflow Client and the jwt package.
//
// # What this package must NOT do
//
//   - Import authflow, api, or jwt (no upward imports).
//   - Return an error from [Store.Load].
//   - Log token material.
package session
