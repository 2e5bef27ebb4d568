package httpkit

import (
	"compress/flate"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/net/middleware"
)

// TokenFunc checks a bearer token and returns the caller and an optional pinned session
type TokenFunc func(token string) (userID, sessionID string, err error)

// Port reads the Authorization header and hands the bearer token to a TokenFunc
type Port struct{ check TokenFunc }

// NewPort wraps fn
func NewPort(fn TokenFunc) *Port { return &Port{check: fn} }

// StaticToken accepts exactly token and reports the caller as user; sessions stay client chosen
func StaticToken(token, user string) *Port {
	want := []byte(token)
	return NewPort(func(got string) (string, string, error) {
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			return "", "", perr.Unauthorizedf("invalid bearer token")
		}
		return user, "", nil
	})
}

// Parse implements middleware.AuthPort
func (p *Port) Parse(r *http.Request) (string, string, error) {
	scheme, raw, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	raw = strings.TrimSpace(raw)
	if !strings.EqualFold(scheme, "bearer") || raw == "" {
		return "", "", perr.Unauthorizedf("missing bearer token")
	}
	if p == nil || p.check == nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	uid, sid, err := p.check(raw)
	if err != nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	return uid, sid, nil
}

// Protected mounts fn's routes behind bearer auth checked by p
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(middleware.Auth(p))
		fn(g)
	})
}

// CommonStack is the middleware every API route runs through
// origins feeds CORS; none means any origin
func CommonStack(origins ...string) []func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.Recover,
		middleware.NoCache(),
		middleware.AccessLog(500 * time.Millisecond),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}
