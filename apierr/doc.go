// Package apierr models backend error payloads and classifies them into the
// handling strategies shown to the user: inline field error, blocking
// dialog, redirect to the login entry point, or a timed lockout.
//
// # Architecture boundaries
//
// Classification is data-driven. Each flow passes its own [Mapping] of codes
// to title/message pairs when it builds a [Classifier]; nothing here branches
// on the calling flow.
//
// # What this package must NOT do
//
//   - Perform navigation or I/O (it returns an [Outcome]; callers act on it).
//   - Produce an outcome with blank user-visible text.
package apierr
