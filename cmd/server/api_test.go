package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/auditdays/internal/mandays"
)

func decodeBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestAPICalculate(t *testing.T) {
	app := newTestApp(t)

	rr := app.postJSON(t, http.MethodPost, "/api/calculate", userEmail, `{
		"standard": "FSMS", "category": "C", "auditType": "initial",
		"employees": 120, "sites": 2, "haccpStudies": 3, "riskLevel": "high"
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decodeBody[calculateResponse](t, rr.Body.String())
	assert.Equal(t, 1, got.ConfigVersion)
	assert.Equal(t, 10, got.Result.TotalManDays)
	assert.InDelta(t, 9.9, got.Result.RawTotal, 1e-9)
	require.NotNil(t, got.Result.StageDistribution)
	assert.Equal(t, mandays.StageDistribution{Stage1: 3, Stage2: 7}, *got.Result.StageDistribution)
	assert.Equal(t, 4, got.Result.SurveillanceManDays)
	assert.Equal(t, 7, got.Result.RecertificationManDays)
}

func TestAPICalculateAppliesDefaults(t *testing.T) {
	app := newTestApp(t)

	rr := app.postJSON(t, http.MethodPost, "/api/calculate", userEmail,
		`{"standard": "QMS", "category": "A", "employees": 10}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decodeBody[calculateResponse](t, rr.Body.String())
	assert.NotNil(t, got.Result.StageDistribution, "audit type defaults to initial")
	assert.Zero(t, got.Result.Breakdown.MultiSiteAdjustment, "sites defaults to 1")
	assert.Zero(t, got.Result.Breakdown.RiskAdjustment, "risk defaults to medium")
}

func TestAPICalculateErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
		fields   []string
	}{
		{
			name:     "validation collects every field",
			body:     `{"standard": "FSMS", "category": "C", "auditType": "annual", "employees": 0, "riskLevel": "high"}`,
			wantCode: "invalid",
			fields: []string{
				"auditType must be one of: initial, surveillance, recertification",
				"employees must be greater than 0",
			},
		},
		{
			name:     "unknown category for standard",
			body:     `{"standard": "QMS", "category": "AI", "employees": 10}`,
			wantCode: "invalid",
			fields:   []string{`category "AI" is not available for standard QMS`},
		},
		{
			name:     "unknown field",
			body:     `{"standard": "QMS", "category": "A", "employees": 10, "colour": "red"}`,
			wantCode: "invalid",
		},
		{
			name:     "wrong type",
			body:     `{"standard": "QMS", "category": "A", "employees": "ten"}`,
			wantCode: "invalid",
			fields:   []string{"employees must be of type int"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.postJSON(t, http.MethodPost, "/api/calculate", userEmail, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

			got := decodeBody[errorResponse](t, rr.Body.String())
			assert.Equal(t, tt.wantCode, got.Error)
			assert.NotEmpty(t, got.Message)
			if tt.fields != nil {
				assert.ElementsMatch(t, tt.fields, got.Fields)
			}
		})
	}
}

func TestAPICalculationLifecycle(t *testing.T) {
	app := newTestApp(t)

	rr := app.postJSON(t, http.MethodPost, "/api/calculations", userEmail, foodSafetyJSON)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/api/calculations/1", rr.Header().Get("Location"))

	created := decodeBody[calculationResponse](t, rr.Body.String())
	assert.Equal(t, int64(1), created.ID)
	assert.Len(t, created.PublicID, 36)
	assert.Equal(t, "Acme Foods", created.Organization)
	assert.Equal(t, userEmail, created.CreatedBy)
	assert.Equal(t, 10, created.Result.TotalManDays)
	assert.Nil(t, created.DeletedAt)

	rr = app.do(t, http.MethodGet, "/api/calculations/1", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.PublicID, decodeBody[calculationResponse](t, rr.Body.String()).PublicID)

	update := strings.Replace(foodSafetyJSON, `"auditType": "initial"`, `"auditType": "surveillance"`, 1)
	rr = app.postJSON(t, http.MethodPut, "/api/calculations/1", userEmail, update)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBody[calculationResponse](t, rr.Body.String())
	assert.Equal(t, mandays.AuditSurveillance, updated.Input.AuditType)
	assert.Nil(t, updated.Result.StageDistribution)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)

	rr = app.do(t, http.MethodDelete, "/api/calculations/1", userEmail, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/calculations", userEmail, nil, "")
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = app.do(t, http.MethodGet, "/api/calculations?trashed=true", userEmail, nil, "")
	trashed := decodeBody[[]calculationResponse](t, rr.Body.String())
	require.Len(t, trashed, 1)
	assert.NotNil(t, trashed[0].DeletedAt)

	rr = app.postJSON(t, http.MethodPut, "/api/calculations/1", userEmail, foodSafetyJSON)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = app.do(t, http.MethodPost, "/api/calculations/1/restore", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeBody[calculationResponse](t, rr.Body.String()).DeletedAt)

	rr = app.do(t, http.MethodDelete, "/api/calculations/1/purge", userEmail, nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", decodeBody[errorResponse](t, rr.Body.String()).Error)

	app.do(t, http.MethodDelete, "/api/calculations/1", userEmail, nil, "")
	rr = app.do(t, http.MethodDelete, "/api/calculations/1/purge", userEmail, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/calculations/1", userEmail, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody[errorResponse](t, rr.Body.String()).Error)
}

func TestAPIConfigUpdateBumpsVersionAndKeepsSnapshots(t *testing.T) {
	app := newTestApp(t)

	rr := app.postJSON(t, http.MethodPost, "/api/calculations", userEmail, foodSafetyJSON)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/config", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	cfg, err := mandays.ParseJSON(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)

	cfg.BaseManDays["FSMS"]["C"] = 10
	doc, err := json.Marshal(cfg)
	require.NoError(t, err)

	rr = app.postJSON(t, http.MethodPut, "/api/config", adminEmail, string(doc))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decodeBody[mandays.Configuration](t, rr.Body.String()).Version)

	rr = app.postJSON(t, http.MethodPost, "/api/calculate", userEmail, `{
		"standard": "FSMS", "category": "C", "employees": 120, "sites": 2, "haccpStudies": 3, "riskLevel": "high"
	}`)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[calculateResponse](t, rr.Body.String())
	assert.Equal(t, 2, got.ConfigVersion)
	assert.Equal(t, 17, got.Result.TotalManDays) // 10 + 2.5 + 1.5 + 2.0 + 0.5

	rr = app.do(t, http.MethodGet, "/api/calculations/1", userEmail, nil, "")
	stored := decodeBody[calculationResponse](t, rr.Body.String())
	assert.Equal(t, 1, stored.ConfigVersion)
	assert.Equal(t, 10, stored.Result.TotalManDays)
}

func TestAPIConfigRejectsInvalidDocument(t *testing.T) {
	app := newTestApp(t)

	cfg := mandays.DefaultConfiguration()
	cfg.HACCPMultiplier = -1
	cfg.RiskMultipliers = map[string]float64{}
	doc, err := json.Marshal(cfg)
	require.NoError(t, err)

	rr := app.postJSON(t, http.MethodPut, "/api/config", adminEmail, string(doc))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	got := decodeBody[errorResponse](t, rr.Body.String())
	assert.Equal(t, "invalid", got.Error)
	assert.GreaterOrEqual(t, len(got.Fields), 2)

	rr = app.postJSON(t, http.MethodPut, "/api/config", adminEmail, `{"version": `)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/config", adminEmail, nil, "")
	assert.Equal(t, 1, decodeBody[mandays.Configuration](t, rr.Body.String()).Version)
}

func TestAPIConfigOverflowDoesNotCrashCalculations(t *testing.T) {
	app := newTestApp(t)

	cfg := mandays.DefaultConfiguration()
	cfg.HACCPMultiplier = 1e308
	doc, err := json.Marshal(cfg)
	require.NoError(t, err)

	rr := app.postJSON(t, http.MethodPut, "/api/config", adminEmail, string(doc))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = app.postJSON(t, http.MethodPost, "/api/calculate", userEmail,
		`{"standard": "FSMS", "category": "C", "employees": 120, "haccpStudies": 3}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	got := decodeBody[errorResponse](t, rr.Body.String())
	assert.Equal(t, "invalid", got.Error)
	assert.Contains(t, got.Message, "out of range")

	rr = app.postForm(t, "/calculations", userEmail, foodSafetyForm())
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "out of range")
}
