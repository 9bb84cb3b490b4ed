package main

import (
	"net/http"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

type pageData struct {
	User    *store.User
	Success string
	Error   string
	Errors  []string
}

type loginView struct {
	pageData
	Email string
}

type option struct {
	Value string
	Label string
}

type formOptions struct {
	Standards           []option
	Categories          []option
	AuditTypes          []string
	RiskLevels          []string
	IntegratedStandards []option
}

type calculatorView struct {
	pageData
	Form          calculationForm
	Options       formOptions
	ConfigVersion int
}

type calculationsView struct {
	pageData
	Query        string
	Trashed      bool
	Calculations []store.Calculation
}

type calculationView struct {
	pageData
	Calculation  store.Calculation
	StandardName string
}

type adminConfigView struct {
	pageData
	Document string
	Meta     store.ConfigMeta
}

type errorView struct {
	pageData
	Status string
}

func newFormOptions(cfg mandays.Configuration) formOptions {
	opts := formOptions{RiskLevels: cfg.RiskLevels()}

	for _, code := range cfg.StandardCodes() {
		opts.Standards = append(opts.Standards, option{Value: code, Label: code + " - " + cfg.StandardName(code)})
	}
	for _, c := range cfg.SortedCategories() {
		opts.Categories = append(opts.Categories, option{Value: c.Code, Label: c.Code + " - " + c.Description})
	}
	for _, t := range mandays.AuditTypes {
		opts.AuditTypes = append(opts.AuditTypes, string(t))
	}
	for _, is := range cfg.SortedIntegratedStandards() {
		opts.IntegratedStandards = append(opts.IntegratedStandards, option{Value: is.ID, Label: is.Name})
	}
	return opts
}

// page returns the signed-in user and the flash message carried in ?success=.
func page(r *http.Request) pageData {
	p := pageData{Success: r.URL.Query().Get("success")}
	if user, ok := userFromContext(r.Context()); ok {
		p.User = &user
	}
	return p
}

func (s *server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := s.views.Render(w, status, name, data); err != nil {
		s.logger.Error("render template", "page", name, "path", r.URL.Path, "error", err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
	}
}
