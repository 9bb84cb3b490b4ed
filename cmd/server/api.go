package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

const maxBodyBytes = 1 << 20

// calculationRequest is the body of create and update requests: the engine input plus
// descriptive fields.
type calculationRequest struct {
	Organization string `json:"organization"`
	Notes        string `json:"notes"`
	mandays.Input
}

type calculationResponse struct {
	ID            int64          `json:"id"`
	PublicID      string         `json:"publicId"`
	Organization  string         `json:"organization"`
	Notes         string         `json:"notes"`
	CreatedBy     string         `json:"createdBy"`
	Input         mandays.Input  `json:"input"`
	Result        mandays.Result `json:"result"`
	ConfigVersion int            `json:"configVersion"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     *time.Time     `json:"deletedAt,omitempty"`
}

type calculateResponse struct {
	Result        mandays.Result `json:"result"`
	ConfigVersion int            `json:"configVersion"`
}

func newCalculationResponse(c store.Calculation) calculationResponse {
	return calculationResponse{
		ID:            c.ID,
		PublicID:      c.PublicID,
		Organization:  c.Organization,
		Notes:         c.Notes,
		CreatedBy:     c.CreatedBy,
		Input:         c.Input,
		Result:        c.Result,
		ConfigVersion: c.ConfigVersion,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		DeletedAt:     c.DeletedAt,
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperr.Invalid(op, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		}
		return apperr.Invalid(op, "request body is not valid JSON: "+err.Error())
	}
	return nil
}

func decodeCalculationRequest(r *http.Request, op string) (calculationRequest, error) {
	req := calculationRequest{Input: mandays.NewInput()}
	if err := decodeJSON(r, op, &req); err != nil {
		return calculationRequest{}, err
	}
	req.Organization = strings.TrimSpace(req.Organization)
	req.Notes = strings.TrimSpace(req.Notes)
	req.Input.Normalize()
	return req, nil
}

func (s *server) apiCalculate(w http.ResponseWriter, r *http.Request) {
	input := mandays.NewInput()
	if err := decodeJSON(r, "calculation.compute", &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, version, err := s.calculate(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{Result: result, ConfigVersion: version})
}

func (s *server) apiListCalculations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	calculations, err := s.store.Calculations.List(r.Context(), store.ListFilter{
		Query:   q.Get("q"),
		Trashed: q.Get("trashed") == "true",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]calculationResponse, 0, len(calculations))
	for _, c := range calculations {
		out = append(out, newCalculationResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) apiCreateCalculation(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCalculationRequest(r, "calculation.create")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, version, err := s.calculate(r.Context(), req.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, _ := userFromContext(r.Context())
	calc := store.Calculation{
		Organization:  req.Organization,
		Notes:         req.Notes,
		CreatedBy:     user.Email,
		Input:         req.Input,
		Result:        result,
		ConfigVersion: version,
	}
	if err := s.store.Calculations.Create(r.Context(), &calc); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("calculation created", "id", calc.ID, "standard", calc.Input.Standard, "total", result.TotalManDays)
	w.Header().Set("Location", fmt.Sprintf("/api/calculations/%d", calc.ID))
	writeJSON(w, http.StatusCreated, newCalculationResponse(calc))
}

func (s *server) apiGetCalculation(w http.ResponseWriter, r *http.Request) {
	id, err := calculationID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	calc, err := s.store.Calculations.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(calc))
}

// apiUpdateCalculation replaces the input and recomputes it with the active configuration.
func (s *server) apiUpdateCalculation(w http.ResponseWriter, r *http.Request) {
	id, err := calculationID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	calc, err := s.store.Calculations.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if calc.Trashed() {
		s.writeError(w, r, apperr.Conflict("calculation.update", "trashed calculations cannot be edited"))
		return
	}

	req, err := decodeCalculationRequest(r, "calculation.update")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, version, err := s.calculate(r.Context(), req.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	calc.Organization = req.Organization
	calc.Notes = req.Notes
	calc.Input = req.Input
	calc.Result = result
	calc.ConfigVersion = version
	if err := s.store.Calculations.Update(r.Context(), &calc); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("calculation updated", "id", calc.ID, "total", result.TotalManDays)
	writeJSON(w, http.StatusOK, newCalculationResponse(calc))
}

func (s *server) apiTrashCalculation(w http.ResponseWriter, r *http.Request) {
	s.apiChangeState(w, r, func(id int64) error { return s.store.Calculations.Trash(r.Context(), id) })
}

func (s *server) apiPurgeCalculation(w http.ResponseWriter, r *http.Request) {
	s.apiChangeState(w, r, func(id int64) error { return s.store.Calculations.Delete(r.Context(), id) })
}

func (s *server) apiChangeState(w http.ResponseWriter, r *http.Request, apply func(id int64) error) {
	id, err := calculationID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := apply(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) apiRestoreCalculation(w http.ResponseWriter, r *http.Request) {
	id, err := calculationID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Calculations.Restore(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	calc, err := s.store.Calculations.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(calc))
}

func (s *server) apiGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) apiPutConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperr.Invalid("config.save", "request body could not be read"))
		return
	}
	saved, err := s.saveConfig(r, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
