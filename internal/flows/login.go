package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/authflow/session"
)

// LoginRequest is the credential form submitted by the login page.
type LoginRequest struct {
	Username     string
	Password     string
	CaptchaToken string
	CaptchaKey   string
}

// LoginResponse is the backend answer to a successful login.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginFailureKind classifies login flow failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidInput
	LoginFailureBackend
	LoginFailureEmptyAccess
)

// LoginResult carries the issued token pair or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Tokens  session.TokenPair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Request         func(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Now             func() time.Time
	ErrInvalidInput error
	ErrBadAnswer    error
}

// RunLogin submits credentials and stamps the issued pair with the local
// issuance time. Blank username or password is rejected without I/O.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) LoginResult {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return LoginResult{Failure: LoginFailureInvalidInput, Err: deps.ErrInvalidInput}
	}

	resp, err := deps.Request(ctx, req)
	if err != nil {
		return LoginResult{Failure: LoginFailureBackend, Err: err}
	}
	if resp.AccessToken == "" {
		return LoginResult{Failure: LoginFailureEmptyAccess, Err: deps.ErrBadAnswer}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	return LoginResult{
		Tokens: session.TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresIn:    resp.ExpiresIn,
			IssuedAtMs:   now().UnixMilli(),
		},
	}
}
