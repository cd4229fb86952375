package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get(common.AuthorizationHeaderName))
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return ""
	}
	return parts[1]
}

// authenticator resolves the bearer token to a user and stores both in the
// request context.
func (s *HTTPServer) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		user, err := s.services.Sessions.Resolve(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func currentToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}
