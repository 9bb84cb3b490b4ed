package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/auditdays/internal/apperr"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) logError(r *http.Request, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

// writeError writes err as a JSON error body.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	writeJSON(w, apperr.HTTPStatus(err), errorResponse{
		Error:   apperr.ErrorCode(err),
		Message: apperr.ErrorMessage(err),
		Fields:  apperr.FieldMessages(err),
	})
}

// fail reports err in the format the caller expects: JSON for the API, an error page otherwise.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isAPIRequest(r) {
		s.writeError(w, r, err)
		return
	}
	s.logError(r, err)

	status := apperr.HTTPStatus(err)
	data := errorView{pageData: page(r), Status: http.StatusText(status)}
	data.Error = apperr.ErrorMessage(err)
	data.Errors = apperr.FieldMessages(err)
	s.render(w, r, status, "error.html", data)
}

func calculationID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("calculation.get", "calculation", raw)
	}
	return id, nil
}

func redirectWithSuccess(w http.ResponseWriter, r *http.Request, target, message string) {
	http.Redirect(w, r, target+"?success="+url.QueryEscape(message), http.StatusSeeOther)
}
