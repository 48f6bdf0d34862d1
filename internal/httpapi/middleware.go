package httpapi

import (
	"context"
	"net/http"

	"clobrub/internal/models"
	"clobrub/internal/users"
)

type ctxKey int

const userCtxKey ctxKey = 0

// withAuth resolves the X-Api-Key header into a models.User and stores it
// in the request context, rejecting with 401 on any failure.
func (s *Services) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		u, err := s.Users.ByAPIKey(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, u)
		next(w, r.WithContext(ctx))
	}
}

// withAdmin rejects any request whose authenticated principal is not an
// ADMIN. Must be wrapped inside withAuth.
func (s *Services) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFromContext(r)
		if u.Role != models.RoleAdmin {
			writeError(w, users.ErrForbidden)
			return
		}
		next(w, r)
	}
}

func userFromContext(r *http.Request) models.User {
	u, _ := r.Context().Value(userCtxKey).(models.User)
	return u
}
