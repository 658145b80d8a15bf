package handlers

import (
	"net/http"
	"strings"
)

// LoadSession resolves the session cookie into an identity on the request context.
// A valid session has its expiry slid forward and its cookie re-issued; a cookie that
// no longer resolves to an authenticated session is cleared. Anonymous requests pass
// through untouched.
func (h *Handlers) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := h.sessionID(r)
		if sid == "" {
			next.ServeHTTP(w, r)
			return
		}

		ident, err := h.sessions.Resolve(r.Context(), sid)
		if err != nil {
			h.fail(w, r, err, "")
			return
		}
		if ident == nil {
			h.clearSessionCookie(w, r)
			next.ServeHTTP(w, r)
			return
		}

		h.setSessionCookie(w, r, sid)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

// RequireAuth rejects requests without an authenticated identity.
// It must run after LoadSession.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			writeJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithCORS allows credentialed cross-origin requests from a single origin.
// An empty origin disables CORS handling.
func WithCORS(origin string) func(http.Handler) http.Handler {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if r.Header.Get("Origin") != origin {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
