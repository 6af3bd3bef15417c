// Package api is the HTTP client for the e-banking authentication backend.
//
// Every endpoint under /api/authentication has one typed method on
// [Client]. Failed calls return an *apierr.APIError decoded from the
// response body, or a SERVER_ERROR / BAD_GATEWAY error when the body is not
// an error document. Transport errors are wrapped with [ErrTransport].
//
// Cross-cutting request handling (base URL, language, bearer token, request
// IDs, query cleanup, 401 handling) is done by the http.RoundTripper
// middlewares in transport.go, composed with [Chain].
//
// # What this package must NOT do
//
//   - Hold token state. The bearer token is read through a callback.
//   - Classify errors into presentation strategies (see package apierr).
//   - Log request or response bodies.
package api
