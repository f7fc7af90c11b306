package handler

import (
	"net/http"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Backend      string
	Store        domain.DocumentStore
	Auth         *service.AuthService
	Account      *service.AccountService
	Profiles     *service.ProfileStore
	Groups       *service.GroupService
	Dashboard    *service.DashboardAggregator
	Dispatcher   *service.Dispatcher
	Pages        *service.PageRegistry
	Limiter      *service.RateLimiter
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	health := NewHealthHandler(d.Backend)
	authH := NewAuthHandler(d.Auth, d.Account, d.Limiter, d.CookieSecure)
	dashboardH := NewDashboardHandler(d.Dashboard)
	profileH := NewProfileHandler(d.Profiles, d.Pages)
	groupH := NewGroupHandler(d.Store, d.Groups, d.Pages)
	actionH := NewActionHandler(d.Pages, d.Dispatcher)

	public := func(h http.HandlerFunc) http.Handler { return RedirectAuthedUsers(d.Auth, h) }
	private := func(h http.HandlerFunc) http.Handler { return RequireAuth(d.Auth, d.Profiles, h) }

	mux.HandleFunc("GET /healthz", health.HandleHealthz)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(view.Static)))

	// Public pages.
	mux.Handle("GET /{$}", public(authH.HandleHome))
	mux.Handle("POST /login", public(authH.HandleLogin))
	mux.Handle("POST /signup", public(authH.HandleSignup))
	mux.Handle("POST /password/reset", public(authH.HandleResetRequest))
	mux.Handle("GET /password/reset/confirm", public(authH.HandleResetConfirmPage))
	mux.Handle("POST /password/reset/confirm", public(authH.HandleResetConfirm))

	mux.HandleFunc("POST /logout", authH.HandleLogout)
	mux.HandleFunc("GET /auth/watch", authH.HandleAuthWatch)

	// Signed-in pages.
	mux.Handle("GET /dashboard", private(dashboardH.HandleDashboard))
	mux.Handle("GET /onboarding", private(profileH.HandleOnboarding))
	mux.Handle("POST /onboarding", private(profileH.HandleOnboardingSave))
	mux.Handle("GET /profile", private(profileH.HandleProfile))
	mux.Handle("GET /profile/edit", private(profileH.HandleProfileEdit))
	mux.Handle("POST /profile/edit", private(profileH.HandleProfileSave))
	mux.Handle("GET /groups", private(groupH.HandleDirectory))
	mux.Handle("GET /groups/new", private(groupH.HandleNewGroup))
	mux.Handle("POST /groups", private(groupH.HandleCreateGroup))
	mux.Handle("GET /group", private(groupH.HandleGroup))
	mux.Handle("GET /my-groups", private(groupH.HandleMyGroups))
	mux.Handle("POST /pages/{page}/actions", private(actionH.HandleAction))
	mux.Handle("GET /api/me", private(authH.HandleMe))
}
