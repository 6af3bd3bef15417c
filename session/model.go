package session

import "time"

// DefaultKey is the storage key of the persisted token record.
const DefaultKey = "auth_tokens"

// TokenPair is the access/refresh credential bundle of one authenticated
// session. The zero value is the unauthenticated sentinel.
//
// TokenPair values are replaced wholesale and never mutated in place once
// handed to a Store or Client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	IssuedAtMs   int64  `json:"issuedAtMs"`
}

// Sentinel returns the canonical "no session" pair.
func Sentinel() TokenPair {
	return TokenPair{}
}

// IsSentinel reports whether p equals the unauthenticated sentinel.
func (p TokenPair) IsSentinel() bool {
	return p == TokenPair{}
}

// Authenticated reports whether p carries an access token.
func (p TokenPair) Authenticated() bool {
	return p.AccessToken != ""
}

// ExpiresAt returns the absolute expiry instant (issuedAtMs + expiresIn).
// The boolean is false when the pair has no issuance time or lifetime.
func (p TokenPair) ExpiresAt() (time.Time, bool) {
	if p.IssuedAtMs <= 0 || p.ExpiresIn <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(p.IssuedAtMs + p.ExpiresIn*1000), true
}

// Expired reports whether the access token is expired at now, treating the
// last skew of its lifetime as already expired. Pairs without an expiry are
// never reported expired.
func (p TokenPair) Expired(now time.Time, skew time.Duration) bool {
	exp, ok := p.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Add(skew).Before(exp)
}

// WithRefreshed merges a refresh response into p: the access token and
// lifetime are replaced, the refresh token only when a new one is supplied,
// and the issuance time is reset to issuedAt.
func (p TokenPair) WithRefreshed(accessToken string, expiresIn int64, refreshToken string, issuedAt time.Time) TokenPair {
	next := p
	next.AccessToken = accessToken
	next.ExpiresIn = expiresIn
	if refreshToken != "" {
		next.RefreshToken = refreshToken
	}
	next.IssuedAtMs = issuedAt.UnixMilli()
	return next
}
