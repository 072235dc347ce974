package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/isdelr/userchat-be/internal/models"
)

type contextKey string

// UserSnapshotKey is the context key for the session's user snapshot.
const UserSnapshotKey = contextKey("userSnapshot")

// FromContext returns the snapshot placed by Middleware, if any.
func FromContext(ctx context.Context) (models.UserSnapshot, bool) {
	snap, ok := ctx.Value(UserSnapshotKey).(models.UserSnapshot)
	return snap, ok
}

// Middleware loads the session snapshot into the request context when one
// exists. Requests without a session pass through untouched.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if snap, err := m.Current(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), UserSnapshotKey, snap))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests that Middleware did not authenticate.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode("Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
