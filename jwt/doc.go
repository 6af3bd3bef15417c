// Package jwt reads routing hints from access tokens issued by the identity
// provider: realm roles and the expiry claim.
//
// # Trust model
//
// Tokens are decoded without signature verification. The values read here
// only drive client-side role gating and refresh scheduling; the backend
// remains the authority for every access decision. Only the payload segment
// is decoded; the header is never inspected.
//
// # What this package must NOT do
//
//   - Verify signatures or hold key material.
//   - Return errors for malformed tokens from [RolesFromToken].
//   - Import authflow or session.
package jwt
