package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

const authCookieName = "auth_token"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the signed-in session injected by RequireAuth,
// or nil.
func SessionFromContext(ctx context.Context) *service.Session {
	session, _ := ctx.Value(sessionContextKey).(*service.Session)
	return session
}

// resolveIdentity subscribes to the auth state of the request's token,
// waits for the first resolution and releases the subscription.
func resolveIdentity(r *http.Request, auth *service.AuthService) *domain.Identity {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil
	}

	var (
		once     sync.Once
		identity *domain.Identity
		resolved = make(chan struct{})
	)
	unsubscribe := auth.SubscribeAuthState(r.Context(), cookie.Value, func(id *domain.Identity) {
		once.Do(func() {
			identity = id
			close(resolved)
		})
	})
	defer unsubscribe()

	select {
	case <-resolved:
		return identity
	case <-r.Context().Done():
		return nil
	}
}

// RequireAuth gates private routes. Signed-out requests are redirected to
// the sign-in page; signed-in requests carry a Session with the profile
// loaded once for the request.
func RequireAuth(auth *service.AuthService, profiles *service.ProfileStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := resolveIdentity(r, auth)
		if identity == nil {
			redirect(w, r, "/")
			return
		}

		session, err := service.NewSession(r.Context(), profiles, *identity)
		if err != nil {
			slog.Error("load session profile", "error", err, "uid", identity.UID)
			http.Error(w, "An unexpected error occurred.", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RedirectAuthedUsers sends signed-in users from the public pages to the
// dashboard.
func RedirectAuthedUsers(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && resolveIdentity(r, auth) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets the response headers every page carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.jsdelivr.net; "+
				"style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func isDatastarRequest(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// redirect sends the browser to url, through an SSE script when the
// request came from a Datastar action.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isDatastarRequest(r) {
		sse := datastar.NewSSE(w, r)
		if err := sse.Redirect(url); err != nil {
			slog.Error("send SSE redirect", "error", err)
		}
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
