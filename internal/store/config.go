package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/mandays"
)

// ConfigStore persists the calculation configuration as a singleton row whose rate
// tables are JSON sub-documents.
type ConfigStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewConfigStore returns a store backed by db.
func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db, now: utcNow}
}

// ConfigMeta describes the stored configuration revision.
type ConfigMeta struct {
	Version   int
	UpdatedBy string
	UpdatedAt time.Time
}

type configDocuments struct {
	baseManDays         string
	employeeRanges      string
	riskMultipliers     string
	integratedStandards string
	standards           string
	categories          string
}

// Load returns the stored configuration. It fails with not_found when none was seeded.
func (s *ConfigStore) Load(ctx context.Context) (mandays.Configuration, error) {
	cfg, _, err := s.LoadWithMeta(ctx)
	return cfg, err
}

// LoadWithMeta returns the stored configuration along with its revision details.
func (s *ConfigStore) LoadWithMeta(ctx context.Context) (mandays.Configuration, ConfigMeta, error) {
	const op = "config.load"

	var (
		cfg       mandays.Configuration
		docs      configDocuments
		meta      ConfigMeta
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			version,
			base_man_days_json,
			employee_ranges_json,
			risk_multipliers_json,
			integrated_standards_json,
			standards_json,
			categories_json,
			haccp_multiplier,
			multi_site_multiplier,
			integrated_system_reduction,
			updated_by,
			updated_at
		FROM calculation_config
		WHERE id = 1
	`).Scan(
		&cfg.Version,
		&docs.baseManDays,
		&docs.employeeRanges,
		&docs.riskMultipliers,
		&docs.integratedStandards,
		&docs.standards,
		&docs.categories,
		&cfg.HACCPMultiplier,
		&cfg.MultiSiteMultiplier,
		&cfg.IntegratedSystemReduction,
		&meta.UpdatedBy,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return mandays.Configuration{}, ConfigMeta{}, apperr.NotFound(op, "configuration", 1)
	}
	if err != nil {
		return mandays.Configuration{}, ConfigMeta{}, apperr.Internal(err, op, "query configuration")
	}

	for _, d := range []struct {
		name string
		src  string
		dst  any
	}{
		{"baseManDays", docs.baseManDays, &cfg.BaseManDays},
		{"employeeRanges", docs.employeeRanges, &cfg.EmployeeRanges},
		{"riskMultipliers", docs.riskMultipliers, &cfg.RiskMultipliers},
		{"integratedStandards", docs.integratedStandards, &cfg.IntegratedStandards},
		{"standards", docs.standards, &cfg.Standards},
		{"categories", docs.categories, &cfg.Categories},
	} {
		if err := json.Unmarshal([]byte(d.src), d.dst); err != nil {
			return mandays.Configuration{}, ConfigMeta{}, apperr.Internal(err, op, "decode "+d.name)
		}
	}

	// A stored row that no longer validates must not reach the engine.
	if err := cfg.Validate(); err != nil {
		return mandays.Configuration{}, ConfigMeta{}, apperr.Internal(err, op, "stored configuration is invalid")
	}

	meta.Version = cfg.Version
	if meta.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return mandays.Configuration{}, ConfigMeta{}, apperr.Internal(err, op, "decode updated_at")
	}
	return cfg, meta, nil
}

// Save validates cfg, stores it and returns it with its new version number.
func (s *ConfigStore) Save(ctx context.Context, cfg mandays.Configuration, updatedBy string) (mandays.Configuration, error) {
	const op = "config.save"

	if err := cfg.Validate(); err != nil {
		return mandays.Configuration{}, apperr.FromCompute(op, err)
	}

	docs, err := encodeConfig(cfg)
	if err != nil {
		return mandays.Configuration{}, apperr.Internal(err, op, "encode configuration")
	}

	var version int
	err = s.db.QueryRowContext(ctx, `
		UPDATE calculation_config
		SET
			version = version + 1,
			base_man_days_json = ?,
			employee_ranges_json = ?,
			risk_multipliers_json = ?,
			integrated_standards_json = ?,
			standards_json = ?,
			categories_json = ?,
			haccp_multiplier = ?,
			multi_site_multiplier = ?,
			integrated_system_reduction = ?,
			updated_by = ?,
			updated_at = ?
		WHERE id = 1
		RETURNING version
	`,
		docs.baseManDays,
		docs.employeeRanges,
		docs.riskMultipliers,
		docs.integratedStandards,
		docs.standards,
		docs.categories,
		cfg.HACCPMultiplier,
		cfg.MultiSiteMultiplier,
		cfg.IntegratedSystemReduction,
		updatedBy,
		formatTime(s.now()),
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return mandays.Configuration{}, apperr.NotFound(op, "configuration", 1)
	}
	if err != nil {
		return mandays.Configuration{}, apperr.Internal(err, op, "update configuration")
	}

	saved := cfg.Clone()
	saved.Version = version
	return saved, nil
}

// Ensure inserts cfg as version 1 when no configuration is stored yet.
// It reports whether a row was inserted.
func (s *ConfigStore) Ensure(ctx context.Context, cfg mandays.Configuration) (bool, error) {
	return ensureConfig(ctx, s.db, cfg, s.now())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ensureConfig is shared with callers that run inside a transaction.
func ensureConfig(ctx context.Context, db execer, cfg mandays.Configuration, now time.Time) (bool, error) {
	const op = "config.ensure"

	if err := cfg.Validate(); err != nil {
		return false, apperr.FromCompute(op, err)
	}
	docs, err := encodeConfig(cfg)
	if err != nil {
		return false, apperr.Internal(err, op, "encode configuration")
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO calculation_config (
			id,
			version,
			base_man_days_json,
			employee_ranges_json,
			risk_multipliers_json,
			integrated_standards_json,
			standards_json,
			categories_json,
			haccp_multiplier,
			multi_site_multiplier,
			integrated_system_reduction,
			updated_by,
			updated_at
		) VALUES (1, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'seed', ?)
		ON CONFLICT(id) DO NOTHING
	`,
		docs.baseManDays,
		docs.employeeRanges,
		docs.riskMultipliers,
		docs.integratedStandards,
		docs.standards,
		docs.categories,
		cfg.HACCPMultiplier,
		cfg.MultiSiteMultiplier,
		cfg.IntegratedSystemReduction,
		formatTime(now),
	)
	if err != nil {
		return false, apperr.Internal(err, op, "insert default configuration")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Internal(err, op, "read affected rows")
	}
	return n > 0, nil
}

// EnsureConfig inserts cfg as version 1 through db, which may be a transaction.
func EnsureConfig(ctx context.Context, db execer, cfg mandays.Configuration) (bool, error) {
	return ensureConfig(ctx, db, cfg, utcNow())
}

func encodeConfig(cfg mandays.Configuration) (configDocuments, error) {
	var docs configDocuments
	for _, d := range []struct {
		src any
		dst *string
	}{
		{cfg.BaseManDays, &docs.baseManDays},
		{cfg.EmployeeRanges, &docs.employeeRanges},
		{cfg.RiskMultipliers, &docs.riskMultipliers},
		{cfg.IntegratedStandards, &docs.integratedStandards},
		{nonNil(cfg.Standards), &docs.standards},
		{nonNil(cfg.Categories), &docs.categories},
	} {
		b, err := json.Marshal(d.src)
		if err != nil {
			return configDocuments{}, fmt.Errorf("marshal configuration document: %w", err)
		}
		*d.dst = string(b)
	}
	return docs, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
