package authflow

import "errors"

var (
	// ErrNoRefreshToken is returned by Refresh when the session has no
	// refresh token. No request is sent.
	ErrNoRefreshToken = errors.New("No refresh token available")
	// ErrRefreshFailed wraps a refresh the backend rejected or answered
	// without an access token.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrLoginFailed wraps a login the backend answered without an access
	// token.
	ErrLoginFailed = errors.New("login failed")
	// ErrInvalidCredentials is returned for a blank username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned by calls that need an access token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTokenPersist wraps storage failures while saving or clearing the
	// token record. In-memory state is still updated.
	ErrTokenPersist = errors.New("token persistence failed")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrBuilderUsed is returned by a second Build on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
)
