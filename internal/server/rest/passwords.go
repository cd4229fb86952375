package rest

import (
	"net/http"

	"github.com/dmitrijs2005/roleplay/internal/server/services"
)

func (s *HTTPServer) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ForgotPasswordInput
	if !s.decode(w, r, &in) {
		return
	}

	if err := s.services.Passwords.RequestReset(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ResetPasswordInput
	if !s.decode(w, r, &in) {
		return
	}

	if err := s.services.Passwords.ResetPassword(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
