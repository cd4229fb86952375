package rest

import (
	"net/http"

	"github.com/dmitrijs2005/roleplay/internal/common"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type bearer struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

func (s *HTTPServer) createSession(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !s.decode(w, r, &in) {
		return
	}

	user, token, err := s.services.Sessions.Create(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": bearer{Type: "bearer", Token: token},
	})
}

func (s *HTTPServer) deleteSession(w http.ResponseWriter, r *http.Request) {
	token := currentToken(r.Context())
	if token == "" {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}
	if err := s.services.Sessions.Revoke(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
