package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

const flashCookieName = "flash"

// render writes a full HTML page with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render page", "error", err, "path", r.URL.Path)
	}
}

// setFlash stores a notice for the page the browser is redirected to.
func setFlash(w http.ResponseWriter, n *domain.Notice) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(string(n.Variant) + "|" + n.Message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlash returns and clears the pending notice, if any.
func popFlash(w http.ResponseWriter, r *http.Request) *domain.Notice {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	variant, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	switch v := domain.NoticeVariant(variant); v {
	case domain.NoticeSuccess, domain.NoticeError, domain.NoticeInfo:
		return &domain.Notice{Variant: v, Message: msg}
	}
	return nil
}

func setAuthCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}

func clearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// userMessage turns a service error into text fit for a toast.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, domain.ErrEmailInUse):
		return "An account with that email already exists"
	case errors.Is(err, domain.ErrWeakPassword):
		return "Password must be at least 6 characters"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrUnknownEmail):
		return "No account found for that email"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many attempts. Please wait a moment."
	case errors.Is(err, domain.ErrInvalidInput):
		return capitalize(strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": "))
	}
	return fallback
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// allow applies the limiter to the client address for the given action.
func allow(limiter *service.RateLimiter, action string, r *http.Request) bool {
	return limiter == nil || limiter.Allow(action+":"+clientIP(r))
}
