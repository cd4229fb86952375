package rest

import (
	"net/http"

	"github.com/dmitrijs2005/roleplay/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) createGroup(w http.ResponseWriter, r *http.Request) {
	var in services.CreateGroupInput
	if !s.decode(w, r, &in) {
		return
	}

	group, err := s.services.Groups.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"group": group})
}

func (s *HTTPServer) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.services.Groups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group})
}

// submitGroupRequest files a join request for the authenticated user.
func (s *HTTPServer) submitGroupRequest(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	gr, err := s.services.GroupRequests.Submit(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"groupRequest": gr})
}

func (s *HTTPServer) listGroupRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.GroupRequests.List(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groupRequests": list})
}
