package middleware

import (
	"net/http"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/store"
)

const sessionCookieName = "sahaay_session"

// sessionToken pulls the session token from the cookie or, for app clients
// that cannot set cookies, the Authorization bearer header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// RequireAuth validates the session and populates AuthContext. Sessions may
// belong to a guardian or a senior; the role is derived from which ID is set.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ac := auth.AuthContext{SessionID: sess.ID}
			switch {
			case sess.GuardianID != nil:
				ac.GuardianID = *sess.GuardianID
				ac.Role = auth.RoleGuardian
			case sess.SeniorID != nil:
				ac.SeniorID = *sess.SeniorID
				ac.Role = auth.RoleSenior
			default:
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireGuardian checks that the authenticated session belongs to a guardian.
func RequireGuardian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsGuardian(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
