package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/msomdec/squadhub/internal/domain"
)

// Reloader is a view that can refetch everything it shows.
type Reloader interface {
	Reload(ctx context.Context) error
}

// MembershipController joins and leaves groups on behalf of the session
// user, then refreshes whichever view is active.
type MembershipController struct {
	store  domain.DocumentStore
	groups *GroupService
}

func NewMembershipController(store domain.DocumentStore) *MembershipController {
	return &MembershipController{store: store, groups: NewGroupService(store)}
}

// Join adds the user to the group's member set. Joining twice is a no-op.
func (m *MembershipController) Join(ctx context.Context, session *Session, groupID string, active Reloader) *domain.Notice {
	if err := m.store.Update(ctx, domain.GroupsCollection, groupID, map[string]any{
		"members": domain.ArrayUnion{session.UID()},
	}); err != nil {
		slog.Error("failed to join group", "group_id", groupID, "error", err)
		return domain.ErrorNotice("Unable to join group")
	}
	m.reload(ctx, active)
	return domain.SuccessNotice("Joined group!")
}

// Leave removes the user from the group's member set. The owner always
// stays a member of their own group.
func (m *MembershipController) Leave(ctx context.Context, session *Session, groupID string, active Reloader) *domain.Notice {
	err := m.leave(ctx, session.UID(), groupID)
	switch {
	case err == nil:
		m.reload(ctx, active)
		return domain.InfoNotice("Left the group")
	case errors.Is(err, domain.ErrOwnerLeave):
		return domain.InfoNotice("Owners cannot leave their own group")
	default:
		slog.Error("failed to leave group", "group_id", groupID, "error", err)
		return domain.ErrorNotice("Unable to leave group")
	}
}

func (m *MembershipController) leave(ctx context.Context, uid, groupID string) error {
	g, err := m.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == uid {
		return domain.ErrOwnerLeave
	}
	return m.store.Update(ctx, domain.GroupsCollection, groupID, map[string]any{
		"members": domain.ArrayRemove{uid},
	})
}

// reload failures are logged only; the write itself succeeded.
func (m *MembershipController) reload(ctx context.Context, active Reloader) {
	if active == nil {
		return
	}
	if err := active.Reload(ctx); err != nil {
		slog.Error("failed to reload view after membership change", "error", err)
	}
}
