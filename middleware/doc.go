// Package middleware exposes HTTP guards for pages served behind a portal
// session: [RequireAuth] admits any authenticated session and [RequireRoles]
// additionally checks the token's realm roles.
//
// A rejected request is redirected to the login page. Admitted requests carry
// the session's roles in the request context; see [RolesFromContext].
//
// # Architecture boundaries
//
// Guards translate HTTP semantics into [Session] calls. Session state and
// role extraction belong to the session implementation (normally
// *authflow.Client); role matching belongs to permission.
//
// # What this package must NOT do
//
//   - Refresh or clear the session.
//   - Decode tokens directly.
//   - Make authorization decisions beyond pass/redirect.
package middleware
