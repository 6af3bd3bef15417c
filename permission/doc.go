// Package permission gates portal features on the realm roles carried by the
// access token.
//
// Role names are mapped to bits of a [Mask64] by a frozen [Registry]. A
// [Requirement] is compiled once from the roles a feature needs and then
// checked against each user's roles with a single AND. The CHECKER role is an
// alias for every checker level.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. Roles are
// read from the token by jwt and handed in as strings.
//
// # What this package must NOT do
//
//   - Decode tokens or read the session.
//   - Import authflow, jwt, or session.
//   - Treat a missing or empty role list as anything other than "no roles".
package permission
