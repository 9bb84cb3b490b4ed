package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/mandays"
)

// Calculation is a persisted calculation: the submitted input, its result snapshot and
// the configuration version it was computed with.
type Calculation struct {
	ID            int64
	PublicID      string
	Organization  string
	Notes         string
	CreatedBy     string
	Input         mandays.Input
	Result        mandays.Result
	ConfigVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Trashed reports whether the calculation was soft-deleted.
func (c Calculation) Trashed() bool {
	return c.DeletedAt != nil
}

// ListFilter narrows a calculation listing.
type ListFilter struct {
	Query   string
	Trashed bool
}

// CalculationStore persists calculation records.
type CalculationStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewCalculationStore returns a store backed by db.
func NewCalculationStore(db *sql.DB) *CalculationStore {
	return &CalculationStore{db: db, now: utcNow}
}

const calculationColumns = `
	id, public_id, organization, notes, created_by,
	standard, category, audit_type, employees, sites, haccp_studies, risk_level,
	integrated_standards_json, result_json, config_version,
	created_at, updated_at, deleted_at`

// Create inserts c and fills in its identifiers and timestamps.
func (s *CalculationStore) Create(ctx context.Context, c *Calculation) error {
	const op = "calculation.create"

	integrated, result, err := encodeCalculation(c)
	if err != nil {
		return apperr.Internal(err, op, "encode calculation")
	}

	now := s.now()
	publicID := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO calculations (
			public_id, organization, notes, created_by,
			standard, category, audit_type, employees, sites, haccp_studies, risk_level,
			integrated_standards_json, total_man_days, result_json, config_version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		publicID, c.Organization, c.Notes, c.CreatedBy,
		c.Input.Standard, c.Input.Category, string(c.Input.AuditType), c.Input.Employees, c.Input.Sites,
		c.Input.HACCPStudies, c.Input.RiskLevel,
		integrated, c.Result.TotalManDays, result, c.ConfigVersion,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return apperr.Internal(err, op, "insert calculation")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Internal(err, op, "read calculation id")
	}

	c.ID = id
	c.PublicID = publicID
	c.CreatedAt = now
	c.UpdatedAt = now
	c.DeletedAt = nil
	return nil
}

// Get returns the calculation with the given id, trashed or not.
func (s *CalculationStore) Get(ctx context.Context, id int64) (Calculation, error) {
	const op = "calculation.get"

	row := s.db.QueryRowContext(ctx, `SELECT `+calculationColumns+` FROM calculations WHERE id = ?`, id)
	c, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Calculation{}, apperr.NotFound(op, "calculation", id)
	}
	if err != nil {
		return Calculation{}, apperr.Internal(err, op, "query calculation")
	}
	return c, nil
}

// List returns calculations newest first. A non-empty Query matches organization and notes.
func (s *CalculationStore) List(ctx context.Context, filter ListFilter) ([]Calculation, error) {
	const op = "calculation.list"

	query := strings.TrimSpace(filter.Query)
	search := "%" + query + "%"
	deleted := "deleted_at IS NULL"
	if filter.Trashed {
		deleted = "deleted_at IS NOT NULL"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+calculationColumns+`
		FROM calculations
		WHERE `+deleted+`
			AND (? = '' OR organization LIKE ? OR notes LIKE ? OR standard LIKE ?)
		ORDER BY created_at DESC, id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, apperr.Internal(err, op, "query calculations")
	}
	defer rows.Close()

	calculations := make([]Calculation, 0)
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, apperr.Internal(err, op, "scan calculation")
		}
		calculations = append(calculations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, op, "iterate calculations")
	}

	return calculations, nil
}

// Update replaces the input, result and descriptive fields of a live calculation.
func (s *CalculationStore) Update(ctx context.Context, c *Calculation) error {
	const op = "calculation.update"

	integrated, result, err := encodeCalculation(c)
	if err != nil {
		return apperr.Internal(err, op, "encode calculation")
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE calculations
		SET
			organization = ?,
			notes = ?,
			standard = ?,
			category = ?,
			audit_type = ?,
			employees = ?,
			sites = ?,
			haccp_studies = ?,
			risk_level = ?,
			integrated_standards_json = ?,
			total_man_days = ?,
			result_json = ?,
			config_version = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		c.Organization, c.Notes,
		c.Input.Standard, c.Input.Category, string(c.Input.AuditType), c.Input.Employees, c.Input.Sites,
		c.Input.HACCPStudies, c.Input.RiskLevel,
		integrated, c.Result.TotalManDays, result, c.ConfigVersion,
		formatTime(now), c.ID,
	)
	if err != nil {
		return apperr.Internal(err, op, "update calculation")
	}
	if err := s.requireAffected(ctx, res, op, c.ID, "trashed calculations cannot be edited"); err != nil {
		return err
	}

	c.UpdatedAt = now
	return nil
}

// Trash soft-deletes a calculation.
func (s *CalculationStore) Trash(ctx context.Context, id int64) error {
	const op = "calculation.trash"

	res, err := s.db.ExecContext(ctx, `
		UPDATE calculations SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, formatTime(s.now()), formatTime(s.now()), id)
	if err != nil {
		return apperr.Internal(err, op, "trash calculation")
	}
	return s.requireAffected(ctx, res, op, id, "calculation is already in the trash")
}

// Restore moves a trashed calculation back to the live list.
func (s *CalculationStore) Restore(ctx context.Context, id int64) error {
	const op = "calculation.restore"

	res, err := s.db.ExecContext(ctx, `
		UPDATE calculations SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL
	`, formatTime(s.now()), id)
	if err != nil {
		return apperr.Internal(err, op, "restore calculation")
	}
	return s.requireAffected(ctx, res, op, id, "calculation is not in the trash")
}

// Delete permanently removes a calculation. Only trashed calculations can be deleted.
func (s *CalculationStore) Delete(ctx context.Context, id int64) error {
	const op = "calculation.delete"

	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return apperr.Internal(err, op, "delete calculation")
	}
	return s.requireAffected(ctx, res, op, id, "move the calculation to the trash before deleting it")
}

// EmptyTrash permanently removes every trashed calculation.
func (s *CalculationStore) EmptyTrash(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, apperr.Internal(err, "calculation.empty_trash", "delete trashed calculations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Internal(err, "calculation.empty_trash", "count deleted calculations")
	}
	return n, nil
}

// requireAffected turns a zero-row write into not_found or conflict, depending on
// whether the calculation exists at all.
func (s *CalculationStore) requireAffected(ctx context.Context, res sql.Result, op string, id int64, conflict string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, op, "read affected rows")
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM calculations WHERE id = ?)`, id).Scan(&exists); err != nil {
		return apperr.Internal(err, op, "check calculation existence")
	}
	if !exists {
		return apperr.NotFound(op, "calculation", id)
	}
	return apperr.Conflict(op, conflict)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (Calculation, error) {
	var (
		c              Calculation
		auditType      string
		integratedJSON string
		resultJSON     string
		createdAt      string
		updatedAt      string
		deletedAt      sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.PublicID, &c.Organization, &c.Notes, &c.CreatedBy,
		&c.Input.Standard, &c.Input.Category, &auditType, &c.Input.Employees, &c.Input.Sites,
		&c.Input.HACCPStudies, &c.Input.RiskLevel,
		&integratedJSON, &resultJSON, &c.ConfigVersion,
		&createdAt, &updatedAt, &deletedAt,
	); err != nil {
		return Calculation{}, err
	}
	c.Input.AuditType = mandays.AuditType(auditType)

	if err := json.Unmarshal([]byte(integratedJSON), &c.Input.IntegratedStandards); err != nil {
		return Calculation{}, fmt.Errorf("decode integrated standards: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &c.Result); err != nil {
		return Calculation{}, fmt.Errorf("decode result snapshot: %w", err)
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Calculation{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Calculation{}, err
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return Calculation{}, err
		}
		c.DeletedAt = &t
	}

	return c, nil
}

func encodeCalculation(c *Calculation) (string, string, error) {
	ids := c.Input.IntegratedStandards
	if ids == nil {
		ids = []string{}
	}
	integrated, err := json.Marshal(ids)
	if err != nil {
		return "", "", err
	}
	result, err := json.Marshal(c.Result)
	if err != nil {
		return "", "", err
	}
	return string(integrated), string(result), nil
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
