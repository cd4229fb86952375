// Package rest is the HTTP boundary of the roleplay server. It decodes
// requests, authenticates bearer tokens and maps service errors to statuses.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type UserRegistry interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Update(ctx context.Context, actorID, userID string, in services.UpdateInput) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, email, password string) (*models.User, string, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	Revoke(ctx context.Context, token string) error
}

type PasswordResetter interface {
	RequestReset(ctx context.Context, in services.ForgotPasswordInput) error
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
}

type GroupRegistry interface {
	Create(ctx context.Context, in services.CreateGroupInput) (*models.Group, error)
	Get(ctx context.Context, groupID string) (*models.Group, error)
}

type GroupRequestWorkflow interface {
	Submit(ctx context.Context, userID, groupID string) (*models.GroupRequest, error)
	List(ctx context.Context, groupID, status string) ([]models.GroupRequest, error)
}

type AvatarUploader interface {
	PresignUpload(ctx context.Context, actorID, userID, contentType string) (*services.AvatarUpload, error)
}

// Services groups the collaborators the handlers call.
type Services struct {
	Users         UserRegistry
	Sessions      SessionManager
	Passwords     PasswordResetter
	Groups        GroupRegistry
	GroupRequests GroupRequestWorkflow
	Avatars       AvatarUploader
}

type HTTPServer struct {
	address  string
	services Services
	logger   logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, s Services) *HTTPServer {
	return &HTTPServer{
		address:  a,
		services: s,
		logger:   l.With("module", "http_server"),
	}
}

// Router builds the chi router with every route mounted.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.ping)

	r.Post("/users", s.registerUser)
	r.Post("/sessions", s.createSession)
	r.Post("/forgot-password", s.forgotPassword)
	r.Post("/reset-password", s.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator)

		r.Delete("/sessions", s.deleteSession)

		r.Get("/users/{id}", s.getUser)
		r.Put("/users/{id}", s.updateUser)
		r.Post("/users/{id}/avatar", s.presignAvatar)

		r.Post("/groups", s.createGroup)
		r.Get("/groups/{id}", s.getGroup)
		r.Post("/groups/{id}/requests", s.submitGroupRequest)
		r.Get("/groups/{id}/requests", s.listGroupRequests)
	})

	return r
}

// Run serves HTTP on the configured address until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "err", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
