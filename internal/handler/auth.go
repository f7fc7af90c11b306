package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// AuthHandler serves the signed-out pages and the session endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	account      *service.AccountService
	limiter      *service.RateLimiter
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. A nil limiter disables
// throttling.
func NewAuthHandler(auth *service.AuthService, account *service.AccountService, limiter *service.RateLimiter, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, account: account, limiter: limiter, cookieSecure: cookieSecure}
}

// HandleHome renders the sign-in, sign-up and reset forms.
// GET /
func (h *AuthHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.AuthPage("", popFlash(w, r)))
}

// HandleLogin signs in with form credentials and redirects to onboarding
// or the dashboard.
// POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !allow(h.limiter, "login", r) {
		render(w, r, http.StatusTooManyRequests, view.AuthPage("", domain.ErrorNotice(userMessage(domain.ErrRateLimited, ""))))
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	signedIn, next, err := h.account.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			render(w, r, http.StatusUnauthorized, view.AuthPage(email, domain.ErrorNotice(userMessage(err, "Invalid email or password"))))
			return
		}
		slog.Error("sign in", "error", err)
		render(w, r, http.StatusInternalServerError, view.AuthPage(email, domain.ErrorNotice("Unable to sign in. Please try again.")))
		return
	}

	setAuthCookie(w, signedIn.Token, h.cookieSecure)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleSignup creates an account and its profile, then continues to
// onboarding.
// POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	signedIn, err := h.account.SignUp(r.Context(),
		r.FormValue("name"),
		r.FormValue("email"),
		r.FormValue("password"),
		r.FormValue("confirm"),
	)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, domain.ErrAuth) && !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("sign up", "error", err)
			status = http.StatusInternalServerError
		}
		render(w, r, status, view.AuthPage("", domain.ErrorNotice(userMessage(err, "Unable to create account. Please try again."))))
		return
	}

	setAuthCookie(w, signedIn.Token, h.cookieSecure)
	setFlash(w, domain.SuccessNotice("Account created! Pick your interests next."))
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}

// HandleResetRequest emails a password reset link.
// POST /password/reset
func (h *AuthHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	if !allow(h.limiter, "reset", r) {
		render(w, r, http.StatusTooManyRequests, view.AuthPage("", domain.ErrorNotice(userMessage(domain.ErrRateLimited, ""))))
		return
	}

	if err := h.auth.SendPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, domain.ErrAuth) && !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("send password reset", "error", err)
			status = http.StatusInternalServerError
		}
		render(w, r, status, view.AuthPage("", domain.ErrorNotice(userMessage(err, "Unable to send reset email. Please try again."))))
		return
	}

	setFlash(w, domain.SuccessNotice("Password reset email sent"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleResetConfirmPage renders the new password form for a reset link.
// GET /password/reset/confirm?token=...
func (h *AuthHandler) HandleResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		setFlash(w, domain.ErrorNotice("Reset link is invalid or has expired"))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, view.ResetConfirmPage(token, nil))
}

// HandleResetConfirm sets the new password. Every session of the account
// is signed out.
// POST /password/reset/confirm
func (h *AuthHandler) HandleResetConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	if err := h.auth.ConfirmPasswordReset(r.Context(), token, r.FormValue("password")); err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, domain.ErrAuth) && !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("confirm password reset", "error", err)
			status = http.StatusInternalServerError
		}
		render(w, r, status, view.ResetConfirmPage(token, domain.ErrorNotice(userMessage(err, "Unable to reset password. Please try again."))))
		return
	}

	setFlash(w, domain.SuccessNotice("Password updated. Sign in with your new password."))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout revokes the session and clears the cookie. Other tabs of the
// same session are sent to the sign-in page by their auth watchers.
// POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookieName); err == nil {
		if err := h.auth.SignOut(r.Context(), cookie.Value); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("sign out", "error", err)
		}
	}
	clearAuthCookie(w, h.cookieSecure)
	redirect(w, r, "/")
}

// HandleAuthWatch holds an SSE stream open and redirects the page to the
// sign-in page once its session is signed out. The subscription is
// released when the client goes away.
// GET /auth/watch
func (h *AuthHandler) HandleAuthWatch(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(authCookieName); err == nil {
		token = cookie.Value
	}

	var (
		once      sync.Once
		signedOut = make(chan struct{})
	)
	unsubscribe := h.auth.SubscribeAuthState(r.Context(), token, func(id *domain.Identity) {
		if id == nil {
			once.Do(func() { close(signedOut) })
		}
	})
	defer unsubscribe()

	sse := datastar.NewSSE(w, r)
	select {
	case <-signedOut:
		if err := sse.Redirect("/"); err != nil {
			slog.Error("send SSE redirect", "error", err)
		}
	case <-r.Context().Done():
	}
}

// HandleMe returns the signed-in identity and profile as JSON.
// GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "Not signed in.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toMeDTO(session),
	})
}
