package httpkit

import (
	"net/http"
	"strings"

	perrs "insightboard/internal/platform/errors"
	pnet "insightboard/internal/platform/net"
	phttp "insightboard/internal/platform/net/http"
)

const (
	// SessionHeader names the dashboard session a request works on
	SessionHeader = "X-Session-ID"
	// SessionQuery is the query fallback for clients that cannot set headers (websocket)
	SessionQuery = "session"
	// TokenHeader carries a bearer token to forward to the data API for the session
	TokenHeader = "X-Data-Token"
	// DefaultSession is used when a request names no session
	DefaultSession = "default"

	maxSessionLen = 64
)

// Sessions puts the session id and the forwarded data token on the request context
// a session id already set by the auth middleware wins
func Sessions() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if pnet.SessionID(ctx) == "" {
				sid := strings.TrimSpace(r.Header.Get(SessionHeader))
				if sid == "" {
					sid = strings.TrimSpace(r.URL.Query().Get(SessionQuery))
				}
				if sid == "" {
					sid = DefaultSession
				}
				if err := checkSession(sid); err != nil {
					phttp.RespondError(w, r, err)
					return
				}
				ctx = pnet.WithSession(ctx, sid)
			}
			ctx = pnet.WithToken(ctx, strings.TrimSpace(r.Header.Get(TokenHeader)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// checkSession accepts ids made of letters, digits, '-' and '_'
func checkSession(sid string) error {
	if len(sid) > maxSessionLen {
		return perrs.WithField(perrs.Validationf("session id is longer than %d characters", maxSessionLen), "session")
	}
	for _, c := range sid {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return perrs.WithField(perrs.Validationf("session id may only hold letters, digits, '-' and '_'"), "session")
		}
	}
	return nil
}

// Session returns the dashboard session of the request, DefaultSession when none was bound
func Session(r *http.Request) string {
	if sid := pnet.SessionID(r.Context()); sid != "" {
		return sid
	}
	return DefaultSession
}
