package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	realmAccessClaim = "realm_access"
	rolesField       = "roles"
)

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// unverifiedClaims decodes the payload segment only. The header and
// signature are never read, so tokens with any header shape are accepted.
func unverifiedClaims(token string) (jwt.MapClaims, bool) {
	segments := strings.Split(token, ".")
	if token == "" || len(segments) != 3 {
		return nil, false
	}
	payload, ok := decodeSegment(segments[1])
	if !ok {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// decodeSegment accepts base64url as issued by identity providers and
// standard base64 with or without padding.
func decodeSegment(seg string) ([]byte, bool) {
	if b, err := parser.DecodeSegment(seg); err == nil {
		return b, true
	}
	if b, err := base64.StdEncoding.DecodeString(seg); err == nil {
		return b, true
	}
	if b, err := base64.RawStdEncoding.DecodeString(seg); err == nil {
		return b, true
	}
	return nil, false
}

// RolesFromToken returns realm_access.roles from the token payload.
//
// It returns an empty, non-nil slice when the token is empty, does not have
// three segments, the payload is not decodable JSON, the claim is missing, or
// roles is null. Non-string entries are skipped.
func RolesFromToken(token string) []string {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return []string{}
	}

	realm, ok := claims[realmAccessClaim].(map[string]any)
	if !ok {
		return []string{}
	}
	raw, ok := realm[rolesField].([]any)
	if !ok {
		return []string{}
	}

	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// ExpiresAt returns the exp claim of the token, if present and readable.
func ExpiresAt(token string) (time.Time, bool) {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subject returns the preferred_username claim, falling back to sub.
func Subject(token string) string {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return ""
	}
	if name, ok := claims["preferred_username"].(string); ok && name != "" {
		return name
	}
	sub, _ := claims.GetSubject()
	return sub
}
