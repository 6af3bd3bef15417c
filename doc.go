// Package authflow is the client side of the e-banking authentication
// journeys: the access/refresh token lifecycle, OTP challenges, the step
// wizards of activation, forgot-password, registration and login, and the
// classification of backend errors into presentation outcomes.
//
// A [Client] is assembled with [New] and [Builder.Build]. It restores the
// persisted session, decorates every backend request with the session's
// bearer token, and hands out journeys that report progress through
// subscribable cells.
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Client], [Builder], [Config]
// and value aliases ([TokenPair], [User]). The journeys live in flow, the
// OTP state machine in otp, the wire client in api and the token record in
// session. Login/refresh/logout orchestration and audit dispatch live under
// internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Log or audit token material.
//   - Verify token signatures. Roles read from the access token are a
//     presentation hint; the backend is authoritative.
//   - Retry or cancel in-flight requests. The last response wins.
//   - Import any sub-package that re-imports authflow (no import cycles).
package authflow
