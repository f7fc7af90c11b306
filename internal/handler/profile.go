package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
)

// ProfileHandler handles onboarding and the profile pages.
type ProfileHandler struct {
	profiles *service.ProfileStore
	pages    *service.PageRegistry
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileStore, pages *service.PageRegistry) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, pages: pages}
}

// HandleOnboarding renders the interest picker.
// GET /onboarding
func (h *ProfileHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page := h.interestPage(session, service.PageOnboarding)
	render(w, r, http.StatusOK, view.OnboardingPage(page.ID, page.Interests, popFlash(w, r)))
}

// HandleOnboardingSave stores the picked interests and continues to the
// dashboard.
// POST /onboarding
func (h *ProfileHandler) HandleOnboardingSave(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page, ok := h.lookup(w, r, session, "/onboarding")
	if !ok {
		return
	}

	page.Lock()
	selected := page.Interests.Selected()
	page.Unlock()

	if len(selected) == 0 {
		render(w, r, http.StatusUnprocessableEntity,
			view.OnboardingPage(page.ID, page.Interests, domain.ErrorNotice("Select at least one interest")))
		return
	}

	err := h.ensureProfile(r, session)
	if err == nil {
		err = h.profiles.SaveInterests(r.Context(), session.UID(), selected)
	}
	if err != nil {
		slog.Error("save interests", "error", err, "uid", session.UID())
		render(w, r, http.StatusInternalServerError,
			view.OnboardingPage(page.ID, page.Interests, domain.ErrorNotice("Unable to save interests")))
		return
	}

	setFlash(w, domain.SuccessNotice("Preferences saved!"))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleProfile renders the profile summary.
// GET /profile
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	notice := popFlash(w, r)

	stats, err := h.profiles.Stats(r.Context(), session.UID())
	if err != nil {
		slog.Error("load profile stats", "error", err, "uid", session.UID())
		notice = domain.ErrorNotice("Unable to load profile stats")
	}
	render(w, r, http.StatusOK, view.ProfilePage(session, stats, notice))
}

// HandleProfileEdit renders the profile form.
// GET /profile/edit
func (h *ProfileHandler) HandleProfileEdit(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page := h.interestPage(session, service.PageProfileEdit)
	render(w, r, http.StatusOK, view.ProfileEditPage(page.ID, session, page.Interests, popFlash(w, r)))
}

// HandleProfileSave stores name, photo and interests.
// POST /profile/edit
func (h *ProfileHandler) HandleProfileSave(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page, ok := h.lookup(w, r, session, "/profile/edit")
	if !ok {
		return
	}

	page.Lock()
	selected := page.Interests.Selected()
	page.Unlock()

	err := h.ensureProfile(r, session)
	if err == nil {
		err = h.profiles.UpdateProfile(r.Context(), session.UID(), r.FormValue("name"), r.FormValue("photoURL"), selected)
	}
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("update profile", "error", err, "uid", session.UID())
			status = http.StatusInternalServerError
		}
		render(w, r, status, view.ProfileEditPage(page.ID, session, page.Interests,
			domain.ErrorNotice(userMessage(err, "Unable to update profile"))))
		return
	}

	setFlash(w, domain.SuccessNotice("Profile updated"))
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *ProfileHandler) interestPage(session *service.Session, kind service.PageKind) *service.PageState {
	page := &service.PageState{
		Kind:      kind,
		UID:       session.UID(),
		Session:   session,
		Interests: service.NewInterestSelector(session.Interests()),
	}
	h.pages.Put(page)
	return page
}

// lookup finds the interest page named by the form. Expired pages send the
// user back to a fresh form.
func (h *ProfileHandler) lookup(w http.ResponseWriter, r *http.Request, session *service.Session, retry string) (*service.PageState, bool) {
	page, err := h.pages.Get(r.FormValue("page"), session.UID())
	if err != nil || page.Interests == nil {
		setFlash(w, domain.ErrorNotice("This page has expired. Please try again."))
		http.Redirect(w, r, retry, http.StatusSeeOther)
		return nil, false
	}
	return page, true
}

// ensureProfile creates the profile document if sign-up failed to.
func (h *ProfileHandler) ensureProfile(r *http.Request, session *service.Session) error {
	if session.Profile != nil {
		return nil
	}
	return h.profiles.Create(r.Context(), session.Identity)
}
