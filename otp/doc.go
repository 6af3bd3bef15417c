// Package otp implements the one-time-passcode challenge shared by the
// activation, forgot-password and registration flows: live input
// validation, verification, resend throttling, the resend countdown and
// timed lockouts.
//
// # State machine
//
//	required → incomplete ⇄ valid → {valid, invalid, expired, maxAttempts, locked, attempts}
//
// Every transition is driven by an explicit event: SetValue, Submit,
// Resend, Tick, or a classified backend error. invalid, expired and
// maxAttempts clear the entered value; a LOCKED_TEMPORARILY lockout keeps
// it. maxAttempts and locked are sticky until a successful resend.
//
// # Concurrency
//
// Submit and Resend block for the duration of their backend call and may
// overlap. They are not coordinated and nothing is cancelled: whichever
// response completes last determines the final status.
//
// # What this package must NOT do
//
//   - Navigate or render; outcomes are handed to Handlers.OnFailure.
//   - Auto-clear maxAttempts when a countdown elapses.
package otp
