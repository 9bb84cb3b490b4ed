package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/export"
	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/metrics"
	"github.com/Simplici0/auditdays/internal/store"
)

func (s *server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	s.renderCalculator(w, r, http.StatusOK, newCalculationForm(), nil)
}

func (s *server) renderCalculator(w http.ResponseWriter, r *http.Request, status int, form calculationForm, problems []string) {
	cfg, err := s.configs.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if form.Standard == "" {
		if codes := cfg.StandardCodes(); len(codes) > 0 {
			form.Standard = codes[0]
		}
	}

	data := calculatorView{
		pageData:      page(r),
		Form:          form,
		Options:       newFormOptions(cfg),
		ConfigVersion: cfg.Version,
	}
	data.Errors = problems
	s.render(w, r, status, "calculator.html", data)
}

func (s *server) handleCalculationCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := parseCalculationForm(r)
	input, fieldErrs := form.input()
	if len(fieldErrs) > 0 {
		cfg, err := s.configs.Get(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		input.Normalize()
		metrics.ObserveCalculation(input.Standard, string(input.AuditType), metrics.OutcomeInvalid, 0, false)
		s.renderCalculator(w, r, http.StatusUnprocessableEntity, form, fieldErrs.merge(mandays.ValidateInput(input, cfg)))
		return
	}

	result, version, err := s.calculate(r.Context(), input)
	if err != nil {
		s.rejectForm(w, r, form, err)
		return
	}

	user, _ := userFromContext(r.Context())
	input.Normalize()
	calc := store.Calculation{
		Organization:  form.Organization,
		Notes:         form.Notes,
		CreatedBy:     user.Email,
		Input:         input,
		Result:        result,
		ConfigVersion: version,
	}
	if err := s.store.Calculations.Create(r.Context(), &calc); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("calculation created", "id", calc.ID, "standard", input.Standard, "total", result.TotalManDays)
	redirectWithSuccess(w, r, fmt.Sprintf("/calculations/%d", calc.ID), "Calculation saved.")
}

// rejectForm shows the calculator again for input errors and the error page for anything else.
func (s *server) rejectForm(w http.ResponseWriter, r *http.Request, form calculationForm, err error) {
	switch apperr.ErrorCode(err) {
	case apperr.EINVALID:
		problems := apperr.FieldMessages(err)
		if len(problems) == 0 {
			problems = []string{apperr.ErrorMessage(err)}
		}
		s.renderCalculator(w, r, apperr.HTTPStatus(err), form, problems)
	case apperr.EINVALIDCOMBINATION:
		s.renderCalculator(w, r, apperr.HTTPStatus(err), form, []string{apperr.ErrorMessage(err)})
	default:
		s.fail(w, r, err)
	}
}

func (s *server) handleCalculationsList(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, store.ListFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))})
}

func (s *server) handleTrashList(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, store.ListFilter{Trashed: true})
}

func (s *server) renderList(w http.ResponseWriter, r *http.Request, filter store.ListFilter) {
	calculations, err := s.store.Calculations.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "calculations.html", calculationsView{
		pageData:     page(r),
		Query:        filter.Query,
		Trashed:      filter.Trashed,
		Calculations: calculations,
	})
}

func (s *server) loadCalculation(w http.ResponseWriter, r *http.Request) (store.Calculation, bool) {
	id, err := calculationID(r)
	if err != nil {
		s.fail(w, r, err)
		return store.Calculation{}, false
	}
	calc, err := s.store.Calculations.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return store.Calculation{}, false
	}
	return calc, true
}

func (s *server) handleCalculationDetail(w http.ResponseWriter, r *http.Request) {
	calc, ok := s.loadCalculation(w, r)
	if !ok {
		return
	}

	// The stored snapshot is shown as computed; only the display name comes from the live tables.
	standardName := calc.Input.Standard
	if cfg, err := s.configs.Get(r.Context()); err == nil {
		standardName = cfg.StandardName(calc.Input.Standard)
	}

	s.render(w, r, http.StatusOK, "calculation_detail.html", calculationView{
		pageData:     page(r),
		Calculation:  calc,
		StandardName: standardName,
	})
}

func (s *server) handleCalculationTrash(w http.ResponseWriter, r *http.Request) {
	s.changeState(w, r, s.store.Calculations.Trash, "/calculations", "Calculation moved to the trash.")
}

func (s *server) handleCalculationRestore(w http.ResponseWriter, r *http.Request) {
	s.changeState(w, r, s.store.Calculations.Restore, "/trash", "Calculation restored.")
}

func (s *server) handleCalculationDelete(w http.ResponseWriter, r *http.Request) {
	s.changeState(w, r, s.store.Calculations.Delete, "/trash", "Calculation deleted permanently.")
}

func (s *server) handleTrashEmpty(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Calculations.EmptyTrash(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("trash emptied", "deleted", n)
	redirectWithSuccess(w, r, "/trash", fmt.Sprintf("%d calculations deleted permanently.", n))
}

func (s *server) changeState(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64) error, target, message string) {
	id, err := calculationID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apply(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("calculation state changed", "id", id, "path", r.URL.Path)
	redirectWithSuccess(w, r, target, message)
}

func (s *server) handleCalculationText(w http.ResponseWriter, r *http.Request) {
	calc, ok := s.loadCalculation(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WriteText(w, calc); err != nil {
		s.logger.Error("write text export", "id", calc.ID, "error", err)
		return
	}
	metrics.ExportsTotal.WithLabelValues(export.FormatText).Inc()
}

func (s *server) handleCalculationPDF(w http.ResponseWriter, r *http.Request) {
	calc, ok := s.loadCalculation(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := s.pdf.Generate(calc, &buf); err != nil {
		s.fail(w, r, apperr.Internal(err, "export.pdf", "generate pdf"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(calc, "pdf")))
	_, _ = buf.WriteTo(w)
	metrics.ExportsTotal.WithLabelValues(export.FormatPDF).Inc()
}

func (s *server) handleCalculationsCSV(w http.ResponseWriter, r *http.Request) {
	calculations, err := s.store.Calculations.List(r.Context(), store.ListFilter{Query: r.URL.Query().Get("q")})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calculations.csv"`)
	if err := export.WriteCSV(w, calculations); err != nil {
		s.logger.Error("write csv export", "error", err)
		return
	}
	metrics.ExportsTotal.WithLabelValues(export.FormatCSV).Inc()
}
