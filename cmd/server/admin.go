package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/metrics"
)

func (s *server) handleAdminConfigForm(w http.ResponseWriter, r *http.Request) {
	cfg, meta, err := s.store.Configs.LoadWithMeta(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	doc, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		s.fail(w, r, apperr.Internal(err, "config.edit", "encode configuration"))
		return
	}

	s.render(w, r, http.StatusOK, "admin_config.html", adminConfigView{
		pageData: page(r),
		Document: string(doc),
		Meta:     meta,
	})
}

func (s *server) handleAdminConfigSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	doc := r.FormValue("config")
	if _, err := s.saveConfig(r, []byte(doc)); err != nil {
		if apperr.HTTPStatus(err) != http.StatusUnprocessableEntity {
			s.fail(w, r, err)
			return
		}
		_, meta, _ := s.store.Configs.LoadWithMeta(r.Context())
		data := adminConfigView{pageData: page(r), Document: doc, Meta: meta}
		data.Error = "The configuration was not saved."
		data.Errors = apperr.FieldMessages(err)
		s.render(w, r, http.StatusUnprocessableEntity, "admin_config.html", data)
		return
	}

	redirectWithSuccess(w, r, "/admin/config", "Configuration saved.")
}

// saveConfig parses a JSON configuration document and stores it as the next version.
func (s *server) saveConfig(r *http.Request, doc []byte) (mandays.Configuration, error) {
	const op = "config.save"

	cfg, err := mandays.ParseJSON(doc)
	if errors.Is(err, mandays.ErrInvalidConfiguration) {
		return mandays.Configuration{}, apperr.FromCompute(op, err)
	}
	if err != nil {
		return mandays.Configuration{}, apperr.Invalid(op, err.Error())
	}

	user, _ := userFromContext(r.Context())
	saved, err := s.configs.Save(r.Context(), cfg, user.Email)
	if err != nil {
		return mandays.Configuration{}, err
	}

	metrics.ConfigSavesTotal.Inc()
	s.logger.Info("configuration saved", "version", saved.Version, "user_id", user.ID)
	return saved, nil
}
