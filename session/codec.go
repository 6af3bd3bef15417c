package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned by Decode when the record is not a JSON
	// token pair.
	ErrMalformedRecord = errors.New("malformed token record")
)

// Encode serializes pair into the persisted JSON layout.
func Encode(pair TokenPair) ([]byte, error) {
	return json.Marshal(pair)
}

// Decode parses a persisted record. Unknown fields are ignored; a JSON null
// decodes to the sentinel.
func Decode(data []byte) (TokenPair, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Sentinel(), fmt.Errorf("%w: empty record", ErrMalformedRecord)
	}
	if data[0] != '{' && !bytes.Equal(data, []byte("null")) {
		return Sentinel(), fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return Sentinel(), fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if pair.ExpiresIn < 0 || pair.IssuedAtMs < 0 {
		return Sentinel(), fmt.Errorf("%w: negative lifetime", ErrMalformedRecord)
	}
	return pair, nil
}
