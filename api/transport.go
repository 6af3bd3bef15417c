package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// Chain wraps base with mws. The first middleware sees the request first.
// A nil base is http.DefaultTransport.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

func isAPIPath(u *url.URL) bool {
	return u.Path == "/api" || strings.HasPrefix(u.Path, "/api/")
}

func orDefault(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		return http.DefaultTransport
	}
	return next
}

// APIPrefix resolves relative /api requests against baseURL. Absolute URLs
// and other paths pass through untouched.
func APIPrefix(baseURL string) Middleware {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if err != nil || req.URL.Host != "" || !isAPIPath(req.URL) {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.URL.Scheme = base.Scheme
			req.URL.Host = base.Host
			req.URL.Path = base.Path + req.URL.Path
			req.Host = base.Host
			return next.RoundTrip(req)
		})
	}
}

// Language sets Accept-Language on API requests from lang, normalised to
// EN or AR. Unknown languages fall back to EN.
func Language(lang func() string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !isAPIPath(req.URL) || lang == nil {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Accept-Language", NormalizeLanguage(lang()))
			return next.RoundTrip(req)
		})
	}
}

// NormalizeLanguage maps a UI language to the header value the backend
// understands.
func NormalizeLanguage(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), "ar") {
		return "AR"
	}
	return "EN"
}

// CleanQuery drops query parameters whose value is empty, "null" or
// "undefined". "0" and "false" are kept.
func CleanQuery() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.RawQuery == "" {
				return next.RoundTrip(req)
			}
			q := req.URL.Query()
			changed := false
			for key, values := range q {
				kept := values[:0]
				for _, v := range values {
					if v == "" || v == "null" || v == "undefined" {
						changed = true
						continue
					}
					kept = append(kept, v)
				}
				if len(kept) == 0 {
					delete(q, key)
				} else {
					q[key] = kept
				}
			}
			if !changed {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.URL.RawQuery = q.Encode()
			return next.RoundTrip(req)
		})
	}
}

// RequestID stamps every request without one with a random UUID.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set(HeaderRequestID, uuid.NewString())
			return next.RoundTrip(req)
		})
	}
}

// Bearer adds "Authorization: Bearer <token>" when token returns a
// non-empty value and the request has no Authorization header.
func Bearer(token func() string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "" || token == nil {
				return next.RoundTrip(req)
			}
			t := token()
			if t == "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+t)
			return next.RoundTrip(req)
		})
	}
}

// Unauthorized calls onUnauthorized after any 401 response. The response
// is still returned to the caller.
func Unauthorized(onUnauthorized func()) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		next = orDefault(next)
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err == nil && resp.StatusCode == http.StatusUnauthorized && onUnauthorized != nil {
				onUnauthorized()
			}
			return resp, err
		})
	}
}
