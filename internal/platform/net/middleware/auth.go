package middleware

import (
	"net/http"

	pnet "insightboard/internal/platform/net"
	phttp "insightboard/internal/platform/net/http"
)

// AuthPort decides who is calling
type AuthPort interface {
	// Parse returns the caller and, when the credential pins one, a session id
	Parse(r *http.Request) (userID, sessionID string, err error)
}

// Auth rejects requests p refuses; a nil port lets everything through
// a session pinned by the credential replaces whatever the client asked for
func Auth(p AuthPort) Middleware {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, sid, err := p.Parse(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			ctx := pnet.WithSession(pnet.WithUser(r.Context(), uid), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
