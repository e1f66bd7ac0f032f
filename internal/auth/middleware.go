package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const adminKey contextKey = "is_admin"

// IsAdmin reports whether the request context carries a verified admin
// token.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminKey).(bool)
	return v
}

func withAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminKey, true)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Optional marks the context as admin when a valid token is present but
// never rejects the request. Visitor routes use it so the admin bypass
// applies anywhere.
func (m *Manager) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if _, err := m.Verify(token); err == nil {
				r = r.WithContext(withAdmin(r.Context()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid admin token.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w, "missing_token")
			return
		}
		if _, err := m.Verify(token); err != nil {
			unauthorized(w, "invalid_token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAdmin(r.Context())))
	})
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + code + `"}`))
}
