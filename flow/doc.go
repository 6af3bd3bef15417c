// Package flow sequences the multi-step authentication journeys: account
// activation, forgot-password, registration and login.
//
// Each journey is an object created when the user enters it and discarded
// when they leave. It owns a [Wizard] (1-based step counter and loading
// flag), its journey data (username, flow tokens, masked contact details,
// attempts), the OTP challenge of its OTP step and the last classified
// failure. Everything the presentation layer renders is published through
// signal cells.
//
// # Architecture boundaries
//
// Backend calls go through small per-journey interfaces satisfied by
// *api.Client. Errors are classified by an apierr.Classifier built from the
// journey's own mapping; redirects are handed to a [Navigator].
//
// # What this package must NOT do
//
//   - Return backend errors to the presentation layer. They become state.
//   - Hold token state. Login delegates to an [Authenticator].
//   - Move a journey backwards. Steps only advance from completion handlers.
package flow
