// Package flows contains pure-function orchestrators for the client's token
// operations.
//
// Each flow function (RunLogin, RunRefresh, RunLogout) accepts a typed
// dependency struct and returns a result without side effects beyond those
// dependencies. The root client keeps ownership of the token state, the
// backend client, audit and metrics.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authflow.
//   - Perform I/O directly. All I/O goes through dependency functions.
package flows
