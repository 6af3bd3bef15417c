package jwt

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func unsignedToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestRolesFromToken(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  []string
	}{
		{"valid roles", unsignedToken(`{"realm_access":{"roles":["MAKER","VIEWER"]}}`), []string{"MAKER", "VIEWER"}},
		{"opaque header padded std payload", "header." + base64.StdEncoding.EncodeToString([]byte(`{"realm_access":{"roles":["admin","user"]}}`)) + ".signature", []string{"admin", "user"}},
		{"std alphabet payload", "header." + base64.StdEncoding.EncodeToString([]byte(`{"realm_access":{"roles":["MAKER"]},"note":"ü?>"}`)) + ".signature", []string{"MAKER"}},
		{"header without alg", base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT"}`)) + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"realm_access":{"roles":["VIEWER"]}}`)) + ".sig", []string{"VIEWER"}},
		{"empty payload", "header..sig", []string{}},
		{"empty token", "", []string{}},
		{"two segments", "header.payload", []string{}},
		{"four segments", "a.b.c.d", []string{}},
		{"undecodable payload", "eyJhbGciOiJub25lIn0.%%%.sig", []string{}},
		{"payload not json", "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString([]byte("not-json")) + ".sig", []string{}},
		{"missing realm_access", unsignedToken(`{"sub":"u1"}`), []string{}},
		{"realm_access null", unsignedToken(`{"realm_access":null}`), []string{}},
		{"roles missing", unsignedToken(`{"realm_access":{}}`), []string{}},
		{"roles null", unsignedToken(`{"realm_access":{"roles":null}}`), []string{}},
		{"roles wrong type", unsignedToken(`{"realm_access":{"roles":"MAKER"}}`), []string{}},
		{"mixed entries", unsignedToken(`{"realm_access":{"roles":["MAKER",1,null,"CHECKER_LEVEL_1"]}}`), []string{"MAKER", "CHECKER_LEVEL_1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RolesFromToken(tc.token)
			assert.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpiresAt(t *testing.T) {
	exp, ok := ExpiresAt(unsignedToken(`{"exp":1739460000}`))
	assert.True(t, ok)
	assert.Equal(t, time.Unix(1739460000, 0).Unix(), exp.Unix())

	_, ok = ExpiresAt(unsignedToken(`{"sub":"u1"}`))
	assert.False(t, ok)

	_, ok = ExpiresAt("")
	assert.False(t, ok)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "scb", Subject(unsignedToken(`{"sub":"u1","preferred_username":"scb"}`)))
	assert.Equal(t, "u1", Subject(unsignedToken(`{"sub":"u1"}`)))
	assert.Equal(t, "", Subject("broken"))
}
