package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "medivault_session"
	sessionTTL    = 12 * time.Hour
	operatorRole  = "operator"
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) authEnabled() bool {
	return h.opts.OperatorPasswordHash != ""
}

func (h *Handler) generateToken() (string, error) {
	claims := sessionClaims{
		Role: operatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorRole,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.opts.Secret))
}

func (h *Handler) loggedIn(r *http.Request) bool {
	if !h.authEnabled() {
		return false
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(c.Value, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.opts.Secret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	claims, ok := token.Claims.(*sessionClaims)
	return ok && claims.Role == operatorRole
}

// requireOperator guards mutating routes when an operator password is configured.
func (h *Handler) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authEnabled() || h.loggedIn(r) {
			next.ServeHTTP(w, r)
			return
		}
		next := "/"
		if r.Method == http.MethodGet {
			next = r.URL.RequestURI()
		}
		v := url.Values{}
		v.Set("next", next)
		v.Set("notice", "Please log in to make changes.")
		v.Set("level", "warning")
		http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
	})
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if !h.authEnabled() {
		h.redirect(w, r, "/", "Login is not required.", "success")
		return
	}
	h.render(w, r, "login", "Log in", map[string]any{"Next": safeNext(r.URL.Query().Get("next"))})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.authEnabled() {
		h.redirect(w, r, "/", "", "")
		return
	}
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"))
	if bcrypt.CompareHashAndPassword([]byte(h.opts.OperatorPasswordHash), []byte(password)) != nil {
		h.log.Warn("failed operator login", zap.String("remote", r.RemoteAddr))
		h.redirect(w, r, "/login?next="+url.QueryEscape(next), "Invalid password.", "danger")
		return
	}
	token, err := h.generateToken()
	if err != nil {
		h.serverError(w, "unable to generate token", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
	h.redirect(w, r, next, "Logged in.", "success")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	h.redirect(w, r, "/", "Logged out.", "success")
}

// safeNext keeps redirects on this site. Browsers treat a leading "/\" like "//".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
