package flow

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrTokenStructure is logged for entry tokens with fewer than three fields.
var ErrTokenStructure = errors.New("invalid token structure")

// EntryToken is the payload of the token carried by an activation link.
type EntryToken struct {
	Email      string
	Mobile     string
	Expiration string
}

// ExtractTokenData decodes a standard base64 "email:mobile:expiration"
// token. It returns nil and logs for tokens that are not base64 or have
// fewer than three fields; it never fails otherwise.
func ExtractTokenData(token string, logger *slog.Logger) *EntryToken {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		logger.Error("Error decoding token:", slog.String("error", err.Error()))
		return nil
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) < 3 {
		logger.Error("Error decoding token:", slog.String("error", fmt.Sprintf("%v: %d fields", ErrTokenStructure, len(parts))))
		return nil
	}
	return &EntryToken{
		Email:      parts[0],
		Mobile:     parts[1],
		Expiration: parts[2],
	}
}

// PhoneDigits returns the last three characters of a (masked) phone
// number, the part shown in "sent to a number ending in ...".
func PhoneDigits(phone string) string {
	r := []rune(phone)
	if len(r) <= 3 {
		return phone
	}
	return string(r[len(r)-3:])
}
