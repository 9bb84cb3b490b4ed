package main

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/Simplici0/auditdays/internal/mandays"
)

// calculationForm keeps the raw submitted values so a rejected form can be shown again.
type calculationForm struct {
	Organization        string
	Notes               string
	Standard            string
	Category            string
	AuditType           string
	Employees           string
	Sites               string
	HACCPStudies        string
	RiskLevel           string
	IntegratedStandards []string
}

func newCalculationForm() calculationForm {
	in := mandays.NewInput()
	return calculationForm{
		AuditType:    string(in.AuditType),
		Sites:        strconv.Itoa(in.Sites),
		HACCPStudies: "0",
		RiskLevel:    in.RiskLevel,
	}
}

func parseCalculationForm(r *http.Request) calculationForm {
	return calculationForm{
		Organization:        strings.TrimSpace(r.FormValue("organization")),
		Notes:               strings.TrimSpace(r.FormValue("notes")),
		Standard:            strings.TrimSpace(r.FormValue("standard")),
		Category:            strings.TrimSpace(r.FormValue("category")),
		AuditType:           strings.TrimSpace(r.FormValue("audit_type")),
		Employees:           strings.TrimSpace(r.FormValue("employees")),
		Sites:               strings.TrimSpace(r.FormValue("sites")),
		HACCPStudies:        strings.TrimSpace(r.FormValue("haccp_studies")),
		RiskLevel:           strings.TrimSpace(r.FormValue("risk_level")),
		IntegratedStandards: r.Form["integrated_standards"],
	}
}

// fieldError is a form field whose raw value could not be read.
type fieldError struct {
	Field   string
	Message string
}

type fieldErrors []fieldError

func (fe fieldErrors) messages() []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.Message)
	}
	return out
}

// merge appends engine validation messages, dropping those about fields that already
// failed to parse. Engine messages start with the field name.
func (fe fieldErrors) merge(messages []string) []string {
	out := fe.messages()
	for _, m := range messages {
		field, _, _ := strings.Cut(m, " ")
		if slices.ContainsFunc(fe, func(e fieldError) bool { return e.Field == field }) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// input converts the form into engine input. Blank optional fields take their defaults;
// non-numeric values are reported instead of being coerced to zero.
func (f calculationForm) input() (mandays.Input, fieldErrors) {
	in := mandays.NewInput()
	in.Standard = f.Standard
	in.Category = f.Category
	if f.AuditType != "" {
		in.AuditType = mandays.AuditType(f.AuditType)
	}
	if f.RiskLevel != "" {
		in.RiskLevel = f.RiskLevel
	}
	in.IntegratedStandards = f.IntegratedStandards

	var errs fieldErrors
	parse := func(raw, field string, dst *int) {
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fieldError{field, fmt.Sprintf("%s must be a whole number", field)})
			return
		}
		*dst = v
	}
	if f.Employees == "" {
		errs = append(errs, fieldError{"employees", "employees is required"})
	}
	parse(f.Employees, "employees", &in.Employees)
	parse(f.Sites, "sites", &in.Sites)
	parse(f.HACCPStudies, "haccpStudies", &in.HACCPStudies)

	return in, errs
}
