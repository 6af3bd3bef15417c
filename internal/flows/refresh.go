package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authflow/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoToken
	RefreshFailureBackend
	RefreshFailureEmptyAccess
)

// RefreshResponse is the backend answer to a refresh call. RefreshToken is
// empty when the backend does not rotate it.
type RefreshResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RefreshResult carries either the merged token pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Tokens  session.TokenPair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Current      func() session.TokenPair
	Request      func(ctx context.Context, refreshToken string) (RefreshResponse, error)
	Now          func() time.Time
	ErrNoToken   error
	ErrBadAnswer error
}

// RunRefresh exchanges the current refresh token for a new access token.
// It performs no I/O when there is no refresh token. The caller persists
// Tokens on success and clears state on any other outcome except
// RefreshFailureNoToken.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	current := deps.Current()
	if current.RefreshToken == "" {
		return RefreshResult{Failure: RefreshFailureNoToken, Err: deps.ErrNoToken}
	}

	resp, err := deps.Request(ctx, current.RefreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureBackend, Err: err}
	}
	if resp.AccessToken == "" {
		return RefreshResult{Failure: RefreshFailureEmptyAccess, Err: deps.ErrBadAnswer}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	return RefreshResult{
		Failure: RefreshFailureNone,
		Tokens:  current.WithRefreshed(resp.AccessToken, resp.ExpiresIn, resp.RefreshToken, now()),
	}
}
