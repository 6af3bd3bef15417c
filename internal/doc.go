// Package internal holds the pieces of authflow that are private to the
// module.
//
// # Sub-packages
//
//   - audit: async audit event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestration of login, refresh and logout
//
// # What this package must NOT do
//
//   - Export types that appear in the public authflow API.
//   - Be imported by any package outside the authflow module.
package internal
