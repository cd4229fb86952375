package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/roleplay/internal/common"
)

type errorBody struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Status: status, Message: message})
}

// statusOf maps an error from the services vocabulary to an HTTP status and
// the code reported in the body.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, "BAD_REQUEST"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "BAD_REQUEST"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "BAD_REQUEST"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusGone, "TOKEN_EXPIRED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		msg = common.ErrorInternal.Error()
	}
	writeErrorBody(w, status, code, msg)
}

// decode reads a JSON body into v. A malformed body is reported as a
// validation failure.
func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "BAD_REQUEST", "malformed request body")
		return false
	}
	return true
}
