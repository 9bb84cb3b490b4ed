package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/middleware"
	"github.com/Simplici0/auditdays/internal/store"
)

const (
	sessionCookieName = "auditdays_session"
	sessionTTL        = 12 * time.Hour
)

type authService struct {
	users         *store.UserStore
	sessionSecret []byte
	secure        bool
	now           func() time.Time
}

func newAuthService(users *store.UserStore, sessionSecret string, secure bool) *authService {
	return &authService{users: users, sessionSecret: []byte(sessionSecret), secure: secure, now: time.Now}
}

// createSessionValue signs the email and expiry: base64(email|unix).hex(hmac).
func (a *authService) createSessionValue(email string) string {
	expires := a.now().Add(sessionTTL).Unix()
	payload := base64.RawURLEncoding.EncodeToString([]byte(email + "|" + strconv.FormatInt(expires, 10)))
	return payload + "." + a.sign(payload)
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	expected, _ := hex.DecodeString(a.sign(payload))
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	// The expiry is always last; the email itself may contain the separator.
	sep := strings.LastIndexByte(string(decoded), '|')
	if sep <= 0 {
		return "", false
	}
	email, rawExpiry := string(decoded[:sep]), string(decoded[sep+1:])
	expires, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil || a.now().Unix() >= expires {
		return "", false
	}

	return email, true
}

func (a *authService) sign(payload string) string {
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *authService) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(email),
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser resolves the session cookie to a stored user. The role is read on every
// request so a demoted admin loses access immediately.
func (a *authService) currentUser(r *http.Request) (store.User, bool, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return store.User{}, false, nil
	}
	email, ok := a.verifySessionValue(cookie.Value)
	if !ok {
		return store.User{}, false, nil
	}

	user, err := a.users.GetByEmail(r.Context(), email)
	if apperr.ErrorCode(err) == apperr.ENOTFOUND {
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, err
	}
	return user, true, nil
}

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, user store.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func userFromContext(ctx context.Context) (store.User, bool) {
	user, ok := ctx.Value(userContextKey).(store.User)
	return user, ok
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func (s *server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := s.auth.currentUser(r)
		if err != nil {
			s.fail(w, r, apperr.Internal(err, "auth.session", "resolve session"))
			return
		}
		if !ok {
			if isAPIRequest(r) {
				s.writeError(w, r, apperr.Errorf(apperr.EUNAUTHORIZED, "auth.session", "authentication required"))
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		middleware.SetLogAttr(r.Context(), "user_id", user.ID)
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			s.fail(w, r, apperr.Errorf(apperr.EFORBIDDEN, "auth.admin", "administrator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok, _ := s.auth.currentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	user, valid, err := s.store.Users.Authenticate(r.Context(), email, password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		s.logger.Warn("login failed", "email", email)
		s.render(w, r, http.StatusUnauthorized, "login.html", loginView{
			pageData: pageData{Error: "Invalid email or password."},
			Email:    email,
		})
		return
	}

	s.auth.setSessionCookie(w, user.Email)
	s.logger.Info("login", "user_id", user.ID, "role", user.Role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
