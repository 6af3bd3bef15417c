// Package password implements the password rules shown on the set-password
// and reset-password steps.
//
// # Rules
//
// A [Policy] checks, in display order: minimum length, an uppercase
// letter, a lowercase letter, a digit, a special character, no forbidden
// word, no run of identical characters and no run of sequential
// characters. [Policy.Check] returns the status of every rule so the
// presentation layer can tick them off while the user types.
//
// # Architecture boundaries
//
// The backend stays authoritative. A password that passes locally can still
// be rejected (for example REPEATED_PASSWORD); the flows handle that.
//
// # What this package must NOT do
//
//   - Hash, store or transmit passwords.
//   - Import any other authflow package.
//   - Log plaintext passwords.
package password
