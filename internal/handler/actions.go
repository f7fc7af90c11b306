package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// ActionHandler applies Datastar page actions to server-held page state
// and patches the affected regions back over SSE.
type ActionHandler struct {
	pages      *service.PageRegistry
	dispatcher *service.Dispatcher
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(pages *service.PageRegistry, dispatcher *service.Dispatcher) *ActionHandler {
	return &ActionHandler{pages: pages, dispatcher: dispatcher}
}

// HandleAction runs one command against a page. Actions on the same page
// run one at a time.
// POST /pages/{page}/actions
func (h *ActionHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page, err := h.pages.Get(r.PathValue("page"), session.UID())
	if err != nil {
		http.Error(w, "Page not found. Reload to continue.", http.StatusNotFound)
		return
	}

	cmd, err := parseCommand(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	page.Lock()
	defer page.Unlock()

	notice, err := h.dispatcher.Dispatch(r.Context(), page, cmd)
	if err != nil {
		slog.Warn("rejected page action", "error", err, "page", page.ID)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)
	for _, fragment := range fragments(page) {
		if err := sse.PatchElementTempl(fragment); err != nil {
			slog.Error("patch page fragment", "error", err, "page", page.ID)
			return
		}
	}
	if notice != nil {
		if err := sse.PatchElementTempl(view.Toast(notice),
			datastar.WithSelectorID("toasts"),
			datastar.WithModeAppend(),
		); err != nil {
			slog.Error("patch toast", "error", err)
		}
	}
}

// parseCommand builds a command from the action form field and its
// parameters.
func parseCommand(r *http.Request) (service.Command, error) {
	switch action := r.FormValue("action"); action {
	case "join":
		return service.JoinCommand{GroupID: r.FormValue("group_id")}, nil
	case "leave":
		return service.LeaveCommand{GroupID: r.FormValue("group_id")}, nil
	case "post":
		return service.SubmitPostCommand{Title: r.FormValue("title"), Content: r.FormValue("content")}, nil
	case "comment":
		return service.SubmitCommentCommand{PostID: r.FormValue("post_id"), Message: r.FormValue("message")}, nil
	case "toggle_filter":
		return service.ToggleFilterCommand{Tag: r.FormValue("tag")}, nil
	case "search":
		return service.SetSearchCommand{Term: r.FormValue("term")}, nil
	case "set_filter":
		filter, err := service.ParseMyGroupsFilter(r.FormValue("filter"))
		if err != nil {
			return nil, err
		}
		return service.SetMyGroupsFilterCommand{Filter: filter}, nil
	case "toggle_interest":
		return service.ToggleInterestCommand{Term: r.FormValue("term")}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}
}

// fragments returns the regions of page that actions can change.
func fragments(page *service.PageState) []templ.Component {
	switch page.Kind {
	case service.PageDirectory:
		return []templ.Component{view.DirectoryFilters(page), view.DirectoryResults(page)}
	case service.PageGroup:
		return []templ.Component{view.GroupDetail(page)}
	case service.PageMyGroups:
		return []templ.Component{view.MyGroupsList(page)}
	case service.PageOnboarding:
		return []templ.Component{view.InterestPanel(page.ID, page.Interests, view.OnboardingInterests)}
	case service.PageProfileEdit:
		return []templ.Component{view.InterestPanel(page.ID, page.Interests, view.ProfileInterests)}
	}
	return nil
}
