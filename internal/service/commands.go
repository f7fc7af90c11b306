package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msomdec/squadhub/internal/domain"
)

// Command is a page action. The set of variants is closed.
type Command interface {
	command()
}

type (
	JoinCommand              struct{ GroupID string }
	LeaveCommand             struct{ GroupID string }
	SubmitPostCommand        struct{ Title, Content string }
	SubmitCommentCommand     struct{ PostID, Message string }
	ToggleFilterCommand      struct{ Tag string }
	SetSearchCommand         struct{ Term string }
	SetMyGroupsFilterCommand struct{ Filter MyGroupsFilter }
	ToggleInterestCommand    struct{ Term string }
)

func (JoinCommand) command()              {}
func (LeaveCommand) command()             {}
func (SubmitPostCommand) command()        {}
func (SubmitCommentCommand) command()     {}
func (ToggleFilterCommand) command()      {}
func (SetSearchCommand) command()         {}
func (SetMyGroupsFilterCommand) command() {}
func (ToggleInterestCommand) command()    {}

// Dispatcher applies commands to page state. Callers hold the page lock.
type Dispatcher struct {
	membership *MembershipController
}

func NewDispatcher(membership *MembershipController) *Dispatcher {
	return &Dispatcher{membership: membership}
}

// Dispatch runs cmd against page and returns the notice to show, if any.
// An error means the command does not apply to this page.
func (d *Dispatcher) Dispatch(ctx context.Context, page *PageState, cmd Command) (*domain.Notice, error) {
	switch c := cmd.(type) {
	case JoinCommand:
		return d.membership.Join(ctx, page.Session, c.GroupID, page.Active()), nil
	case LeaveCommand:
		return d.membership.Leave(ctx, page.Session, c.GroupID, page.Active()), nil

	case SubmitPostCommand:
		if page.Detail == nil {
			return nil, misrouted(page, cmd)
		}
		return submitPost(ctx, page.Detail, c), nil
	case SubmitCommentCommand:
		if page.Detail == nil {
			return nil, misrouted(page, cmd)
		}
		if err := page.Detail.SubmitComment(ctx, c.PostID, c.Message); err != nil {
			slog.Error("failed to add comment", "post_id", c.PostID, "error", err)
			return domain.ErrorNotice("Unable to add comment"), nil
		}
		return nil, nil

	case ToggleFilterCommand:
		if page.Directory == nil {
			return nil, misrouted(page, cmd)
		}
		page.Directory.ToggleFilter(c.Tag)
		return nil, nil
	case SetSearchCommand:
		if page.Directory == nil {
			return nil, misrouted(page, cmd)
		}
		page.Directory.SetSearch(c.Term)
		return nil, nil

	case SetMyGroupsFilterCommand:
		if page.MyGroups == nil {
			return nil, misrouted(page, cmd)
		}
		page.MyGroups.SetFilter(c.Filter)
		return nil, nil

	case ToggleInterestCommand:
		if page.Interests == nil {
			return nil, misrouted(page, cmd)
		}
		if err := page.Interests.Toggle(c.Term); err != nil {
			if errors.Is(err, domain.ErrInterestCap) {
				return domain.InfoNotice("Select up to 5 interests"), nil
			}
			return domain.ErrorNotice("Unknown interest"), nil
		}
		return nil, nil
	}
	return nil, misrouted(page, cmd)
}

func submitPost(ctx context.Context, view *GroupDetailView, c SubmitPostCommand) *domain.Notice {
	err := view.SubmitPost(ctx, c.Title, c.Content)
	switch {
	case err == nil:
		return domain.SuccessNotice("Post published")
	case errors.Is(err, domain.ErrNotMember):
		return domain.InfoNotice("Join the group to post updates")
	case errors.Is(err, domain.ErrInvalidInput):
		return domain.ErrorNotice("Add a title and some content first")
	default:
		slog.Error("failed to publish post", "group_id", view.GroupID(), "error", err)
		return domain.ErrorNotice("Unable to publish post")
	}
}

func misrouted(page *PageState, cmd Command) error {
	return fmt.Errorf("%w: %T does not apply to %s page", domain.ErrInvalidInput, cmd, page.Kind)
}
