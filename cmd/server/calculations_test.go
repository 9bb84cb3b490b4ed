package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/auditdays/internal/store"
)

func createViaForm(t *testing.T, app *testApp, form url.Values) string {
	t.Helper()

	rr := app.postForm(t, "/calculations", userEmail, form)
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	location := rr.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/calculations/"), location)
	path, _, _ := strings.Cut(location, "?")
	return path
}

func TestCalculatorFormRendersOptions(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `<option value="FSMS"`)
	assert.Contains(t, body, `value="ISO9001"`)
	assert.Contains(t, body, "configuration version 1")
	assert.Contains(t, body, `<a href="/calculations">Calculations</a>`)
	assert.NotContains(t, body, `href="/admin/config"`)
}

func TestCalculationCreatePersistsSnapshot(t *testing.T) {
	app := newTestApp(t)

	path := createViaForm(t, app, foodSafetyForm())
	assert.Equal(t, "/calculations/1", path)

	calc, err := app.srv.store.Calculations.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", calc.Organization)
	assert.Equal(t, userEmail, calc.CreatedBy)
	assert.Equal(t, 10, calc.Result.TotalManDays)
	assert.Equal(t, 1, calc.ConfigVersion)
	require.NotNil(t, calc.Result.StageDistribution)
	assert.Equal(t, 3, calc.Result.StageDistribution.Stage1)

	rr := app.do(t, http.MethodGet, path+"?success=Calculation+saved.", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Calculation saved.")
	assert.Contains(t, body, "10 man-days")
	assert.Contains(t, body, "86-125 employees")
	assert.Contains(t, body, "ISO 22000 Food Safety")
	assert.Contains(t, body, "Stage 1")
}

func TestCalculationCreateDefaultsSites(t *testing.T) {
	app := newTestApp(t)

	form := foodSafetyForm()
	form.Del("sites")
	createViaForm(t, app, form)

	calc, err := app.srv.store.Calculations.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, calc.Input.Sites)
	assert.Zero(t, calc.Result.Breakdown.MultiSiteAdjustment)
}

func TestCalculationCreateRejectsInvalidForm(t *testing.T) {
	app := newTestApp(t)

	form := foodSafetyForm()
	form.Set("employees", "many")
	rr := app.postForm(t, "/calculations", userEmail, form)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "employees must be a whole number")
	assert.Contains(t, rr.Body.String(), `value="Acme Foods"`)

	form = foodSafetyForm()
	form.Set("employees", "0")
	form.Set("risk_level", "extreme")
	rr = app.postForm(t, "/calculations", userEmail, form)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "employees must be greater than 0")
	assert.Contains(t, body, "risk level &#34;extreme&#34; is not configured")

	list, err := app.srv.store.Calculations.List(context.Background(), store.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCalculationCreateReportsEveryBadField(t *testing.T) {
	app := newTestApp(t)

	rr := app.postForm(t, "/calculations", userEmail, url.Values{
		"standard":      {"NOPE"},
		"category":      {"ZZ"},
		"audit_type":    {"bogus"},
		"employees":     {"abc"},
		"sites":         {"0"},
		"haccp_studies": {"-2"},
		"risk_level":    {"extreme"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	body := rr.Body.String()
	for _, msg := range []string{
		"employees must be a whole number",
		"auditType must be one of: initial, surveillance, recertification",
		"sites must be greater than 0",
		"haccpStudies must be 0 or more",
		"standard &#34;NOPE&#34; is not configured",
		"risk level &#34;extreme&#34; is not configured",
	} {
		assert.Contains(t, body, msg)
	}
	assert.NotContains(t, body, "employees must be greater than 0")
}

func TestCalculationCreateRequiredEmployeesReportedOnce(t *testing.T) {
	app := newTestApp(t)

	form := foodSafetyForm()
	form.Del("employees")
	rr := app.postForm(t, "/calculations", userEmail, form)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	body := rr.Body.String()
	assert.Equal(t, 1, strings.Count(body, "employees is required"))
	assert.NotContains(t, body, "employees must be greater than 0")
}

func TestCalculationCreateRejectsUnknownCombination(t *testing.T) {
	app := newTestApp(t)

	form := foodSafetyForm()
	form.Set("standard", "QMS")
	form.Set("category", "AI")
	rr := app.postForm(t, "/calculations", userEmail, form)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "is not available for standard QMS")
}

func TestCalculationsListSearchAndTrash(t *testing.T) {
	app := newTestApp(t)

	createViaForm(t, app, foodSafetyForm())
	other := foodSafetyForm()
	other.Set("organization", "Globex")
	createViaForm(t, app, other)

	rr := app.do(t, http.MethodGet, "/calculations?q=globex", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Globex")
	assert.NotContains(t, rr.Body.String(), "Acme Foods")

	rr = app.postForm(t, "/calculations/2/trash", userEmail, url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/calculations?success="))

	rr = app.do(t, http.MethodGet, "/calculations", userEmail, nil, "")
	assert.NotContains(t, rr.Body.String(), "Globex")

	rr = app.do(t, http.MethodGet, "/trash", userEmail, nil, "")
	assert.Contains(t, rr.Body.String(), "Globex")
	assert.Contains(t, rr.Body.String(), "/calculations/2/restore")

	rr = app.postForm(t, "/calculations/2/trash", userEmail, url.Values{})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = app.postForm(t, "/calculations/2/restore", userEmail, url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(t, http.MethodGet, "/calculations", userEmail, nil, "")
	assert.Contains(t, rr.Body.String(), "Globex")
}

func TestCalculationDeleteRequiresTrash(t *testing.T) {
	app := newTestApp(t)
	createViaForm(t, app, foodSafetyForm())

	rr := app.postForm(t, "/calculations/1/delete", userEmail, url.Values{})
	assert.Equal(t, http.StatusConflict, rr.Code)

	app.postForm(t, "/calculations/1/trash", userEmail, url.Values{})
	rr = app.postForm(t, "/calculations/1/delete", userEmail, url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(t, http.MethodGet, "/calculations/1", userEmail, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrashEmpty(t *testing.T) {
	app := newTestApp(t)
	createViaForm(t, app, foodSafetyForm())
	createViaForm(t, app, foodSafetyForm())
	app.postForm(t, "/calculations/1/trash", userEmail, url.Values{})

	rr := app.postForm(t, "/trash/empty", userEmail, url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "/trash?success=")

	rr = app.do(t, http.MethodGet, "/calculations/1", userEmail, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = app.do(t, http.MethodGet, "/calculations/2", userEmail, nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCalculationDetailNotFound(t *testing.T) {
	app := newTestApp(t)

	for _, id := range []string{"99", "abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/calculations/"+id, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rr := httptest.NewRecorder()
		app.srv.handleCalculationDetail(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code, id)
	}
}

func TestCalculationExports(t *testing.T) {
	app := newTestApp(t)
	createViaForm(t, app, foodSafetyForm())

	rr := app.do(t, http.MethodGet, "/calculations/1/text", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "Total: 10 man-days")
	assert.Contains(t, rr.Body.String(), "- Organization: Acme Foods")

	rr = app.do(t, http.MethodGet, "/calculations/1/pdf", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "calculation-1.pdf")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF-"))

	rr = app.do(t, http.MethodGet, "/calculations/export.csv?q=acme", userEmail, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,public_id,created_at"))
	assert.Contains(t, lines[1], "Acme Foods")
}
