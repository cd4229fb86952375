package rest

import (
	"net/http"

	"github.com/dmitrijs2005/roleplay/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) registerUser(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !s.decode(w, r, &in) {
		return
	}

	user, err := s.services.Users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateInput
	if !s.decode(w, r, &in) {
		return
	}

	actor := currentUser(r.Context())
	user, err := s.services.Users.Update(r.Context(), actor.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type avatarRequest struct {
	ContentType string `json:"contentType"`
}

func (s *HTTPServer) presignAvatar(w http.ResponseWriter, r *http.Request) {
	var in avatarRequest
	if !s.decode(w, r, &in) {
		return
	}

	actor := currentUser(r.Context())
	upload, err := s.services.Avatars.PresignUpload(r.Context(), actor.ID, chi.URLParam(r, "id"), in.ContentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"upload": upload})
}
