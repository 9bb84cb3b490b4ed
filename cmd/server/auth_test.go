package main

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionValueRoundTrip(t *testing.T) {
	auth := newAuthService(nil, "secret", false)

	value := auth.createSessionValue("admin@example.com")
	email, ok := auth.verifySessionValue(value)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", email)
}

func TestSessionValueKeepsSeparatorInEmail(t *testing.T) {
	auth := newAuthService(nil, "test-secret", false)

	for _, addr := range []string{"a|b@example.com", "odd||name@example.com"} {
		email, ok := auth.verifySessionValue(auth.createSessionValue(addr))
		require.True(t, ok, addr)
		assert.Equal(t, addr, email)
	}
}

func TestSessionValueRejectsTamperingAndExpiry(t *testing.T) {
	auth := newAuthService(nil, "secret", false)
	value := auth.createSessionValue("admin@example.com")

	payload, signature, _ := strings.Cut(value, ".")
	_, ok := auth.verifySessionValue(payload + "." + strings.Repeat("0", len(signature)))
	assert.False(t, ok, "forged signature")

	_, ok = newAuthService(nil, "other-secret", false).verifySessionValue(value)
	assert.False(t, ok, "different secret")

	_, ok = auth.verifySessionValue("not-a-session")
	assert.False(t, ok, "malformed value")

	auth.now = func() time.Time { return time.Now().Add(sessionTTL + time.Minute) }
	_, ok = auth.verifySessionValue(value)
	assert.False(t, ok, "expired session")
}

func TestAnonymousRequestsAreRedirectedOrRejected(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/calculations", "", nil, "")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = app.do(t, http.MethodGet, "/api/calculations", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"authentication required"}`, rr.Body.String())
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	rr := app.postForm(t, "/login", "", url.Values{"email": {adminEmail}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email or password.")

	rr = app.postForm(t, "/login", "", url.Values{"email": {"ADMIN@example.com"}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	email, ok := app.srv.auth.verifySessionValue(session.Value)
	require.True(t, ok)
	assert.Equal(t, adminEmail, email)
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(t)

	rr := app.postForm(t, "/logout", userEmail, url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/admin/config", userEmail, nil, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = app.postJSON(t, http.MethodPut, "/api/config", userEmail, `{}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"forbidden"`)

	rr = app.do(t, http.MethodGet, "/admin/config", adminEmail, nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionForDeletedUserIsIgnored(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/", "ghost@example.com", nil, "")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}
