package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/mpetrovs/filevault/internal/common"
	"github.com/mpetrovs/filevault/internal/server/auth"
	"github.com/mpetrovs/filevault/internal/server/services"
)

type ctxKey string

const identityKey ctxKey = "identity"

// withAuth verifies the bearer token and stores the caller's Identity in
// the request context. Missing or invalid tokens get 401.
func (s *Server) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}

		id := services.Identity{UserID: claims.UserID, Username: claims.Username}
		ctx := context.WithValue(r.Context(), identityKey, id)

		next(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) services.Identity {
	id, _ := r.Context().Value(identityKey).(services.Identity)
	return id
}
