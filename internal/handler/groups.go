package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
)

// GroupHandler handles the directory, group and my-groups pages.
type GroupHandler struct {
	store  domain.DocumentStore
	groups *service.GroupService
	pages  *service.PageRegistry
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(store domain.DocumentStore, groups *service.GroupService, pages *service.PageRegistry) *GroupHandler {
	return &GroupHandler{store: store, groups: groups, pages: pages}
}

// HandleDirectory renders the searchable group directory.
// GET /groups
func (h *GroupHandler) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	notice := popFlash(w, r)

	dir := service.NewGroupDirectory(h.store)
	if err := dir.Load(r.Context()); err != nil {
		slog.Error("load group directory", "error", err)
		notice = domain.ErrorNotice("Unable to load groups")
	}

	page := &service.PageState{Kind: service.PageDirectory, UID: session.UID(), Session: session, Directory: dir}
	h.pages.Put(page)
	render(w, r, http.StatusOK, view.DirectoryPage(page, notice))
}

// HandleNewGroup renders the create group form.
// GET /groups/new
func (h *GroupHandler) HandleNewGroup(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, view.CreateGroupPage(view.CreateGroupForm{}, popFlash(w, r)))
}

// HandleCreateGroup creates a group owned by the user and opens it.
// POST /groups
func (h *GroupHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	form := view.CreateGroupForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
	}

	id, err := h.groups.Create(r.Context(), session, form.Name, form.Description, form.Tags)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("create group", "error", err, "uid", session.UID())
			status = http.StatusInternalServerError
		}
		render(w, r, status, view.CreateGroupPage(form, domain.ErrorNotice(userMessage(err, "Unable to create group"))))
		return
	}

	setFlash(w, domain.SuccessNotice("Group created!"))
	http.Redirect(w, r, "/group?id="+url.QueryEscape(id), http.StatusSeeOther)
}

// HandleGroup renders one group with its posts and activity.
// GET /group?id=...
func (h *GroupHandler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		render(w, r, http.StatusBadRequest, view.GroupPage(nil, domain.ErrorNotice("Missing group id")))
		return
	}

	page := &service.PageState{
		Kind:    service.PageGroup,
		UID:     session.UID(),
		Session: session,
		Detail:  service.NewGroupDetailView(h.store, session, id),
	}
	notice := popFlash(w, r)
	status := http.StatusOK

	err := page.Detail.Load(r.Context())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		render(w, r, http.StatusNotFound, view.GroupPage(page, domain.ErrorNotice("Group not found")))
		return
	case err != nil:
		slog.Error("load group", "error", err, "group_id", id)
		notice = domain.ErrorNotice("Unable to load group")
		status = http.StatusInternalServerError
	}

	h.pages.Put(page)
	render(w, r, status, view.GroupPage(page, notice))
}

// HandleMyGroups lists the groups the user belongs to.
// GET /my-groups
func (h *GroupHandler) HandleMyGroups(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	notice := popFlash(w, r)

	groups := service.NewMyGroupsView(h.store, session.UID())
	if f := r.URL.Query().Get("filter"); f != "" {
		if filter, err := service.ParseMyGroupsFilter(f); err == nil {
			groups.SetFilter(filter)
		}
	}
	if err := groups.Load(r.Context()); err != nil {
		slog.Error("load my groups", "error", err, "uid", session.UID())
		notice = domain.ErrorNotice("Unable to load your groups")
	}

	page := &service.PageState{Kind: service.PageMyGroups, UID: session.UID(), Session: session, MyGroups: groups}
	h.pages.Put(page)
	render(w, r, http.StatusOK, view.MyGroupsPage(page, notice))
}
