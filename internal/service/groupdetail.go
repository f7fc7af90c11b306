package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/msomdec/squadhub/internal/domain"
)

const (
	// PostsPageSize bounds the posts shown on a group page.
	PostsPageSize = 20
	// CommentPreviewSize is how many of the newest comments each post shows.
	CommentPreviewSize = 3
	// ActivitySize bounds the recent activity widget.
	ActivitySize = 5
)

// DetailState is the lifecycle of a group page.
type DetailState int

const (
	DetailLoading DetailState = iota
	DetailReady
	DetailNotFound
)

// PostThread is a post with its comment preview. Err is set when the
// preview failed to load; sibling threads are unaffected.
type PostThread struct {
	Post     domain.Post
	Comments []domain.Comment
	Err      error
}

// GroupDetailView holds the state of one group page: the group, the
// session user's membership, recent posts with comment previews and the
// activity feed.
type GroupDetailView struct {
	store   domain.DocumentStore
	session *Session
	groupID string

	state    DetailState
	group    *domain.Group
	isMember bool
	threads  []PostThread
	activity []domain.Comment
}

func NewGroupDetailView(store domain.DocumentStore, session *Session, groupID string) *GroupDetailView {
	return &GroupDetailView{store: store, session: session, groupID: groupID}
}

func (v *GroupDetailView) GroupID() string { return v.groupID }
func (v *GroupDetailView) State() DetailState { return v.state }
func (v *GroupDetailView) Group() *domain.Group { return v.group }
func (v *GroupDetailView) IsMember() bool { return v.isMember }
func (v *GroupDetailView) Threads() []PostThread { return v.threads }
func (v *GroupDetailView) Activity() []domain.Comment { return v.activity }

// Load fetches the group, its posts and their comment previews. A missing
// group moves the view to DetailNotFound and returns ErrNotFound without
// reading posts. Any other failure leaves the previous state in place.
func (v *GroupDetailView) Load(ctx context.Context) error {
	if v.state == DetailNotFound {
		return domain.ErrNotFound
	}

	doc, err := v.store.Get(ctx, domain.GroupsCollection, v.groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v.state = DetailNotFound
			v.group = nil
			v.threads = nil
			v.activity = nil
			return domain.ErrNotFound
		}
		return fmt.Errorf("get group: %w", err)
	}
	group, err := decodeGroup(*doc)
	if err != nil {
		return err
	}

	postDocs, err := v.store.Query(ctx, domain.PostsPath(v.groupID), domain.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      PostsPageSize,
	})
	if err != nil {
		return fmt.Errorf("query posts: %w", err)
	}
	posts, err := decodePosts(postDocs)
	if err != nil {
		return err
	}

	threads := make([]PostThread, len(posts))
	// A failed preview marks only its own thread.
	var wg sync.WaitGroup
	for i, p := range posts {
		threads[i].Post = p
		wg.Go(func() {
			comments, err := v.loadPreview(ctx, p.ID)
			if err != nil {
				slog.Error("failed to load comment preview", "post_id", p.ID, "error", err)
				threads[i].Err = err
				return
			}
			threads[i].Comments = comments
		})
	}
	wg.Wait()

	v.group = &group
	v.isMember = group.HasMember(v.session.UID())
	v.threads = threads
	v.activity = buildActivity(threads)
	v.state = DetailReady
	return nil
}

func (v *GroupDetailView) Reload(ctx context.Context) error {
	return v.Load(ctx)
}

// SubmitPost publishes a post as the session user. The user must be a
// member both in the loaded view and in the stored member set.
func (v *GroupDetailView) SubmitPost(ctx context.Context, title, content string) error {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return fmt.Errorf("%w: title and content are required", domain.ErrInvalidInput)
	}
	if v.state != DetailReady || !v.isMember {
		return domain.ErrNotMember
	}

	doc, err := v.store.Get(ctx, domain.GroupsCollection, v.groupID)
	if err != nil {
		return fmt.Errorf("verify membership: %w", err)
	}
	group, err := decodeGroup(*doc)
	if err != nil {
		return err
	}
	if !group.HasMember(v.session.UID()) {
		return domain.ErrNotMember
	}

	if _, err := v.store.Add(ctx, domain.PostsPath(v.groupID), map[string]any{
		"title":      title,
		"content":    content,
		"authorId":   v.session.UID(),
		"authorName": v.session.AuthorName(),
		"createdAt":  domain.ServerTimestamp,
	}); err != nil {
		return fmt.Errorf("%w: add post: %v", domain.ErrRemoteWrite, err)
	}

	if err := v.Reload(ctx); err != nil {
		slog.Error("failed to reload group after post", "group_id", v.groupID, "error", err)
	}
	return nil
}

// SubmitComment replies to one of the loaded posts and refreshes only that
// post's preview.
func (v *GroupDetailView) SubmitComment(ctx context.Context, postID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: comment is required", domain.ErrInvalidInput)
	}
	i := slices.IndexFunc(v.threads, func(t PostThread) bool { return t.Post.ID == postID })
	if i < 0 {
		return fmt.Errorf("%w: post %s", domain.ErrNotFound, postID)
	}

	if _, err := v.store.Add(ctx, domain.CommentsPath(v.groupID, postID), map[string]any{
		"message":    message,
		"authorId":   v.session.UID(),
		"authorName": v.session.AuthorName(),
		"createdAt":  domain.ServerTimestamp,
	}); err != nil {
		return fmt.Errorf("%w: add comment: %v", domain.ErrRemoteWrite, err)
	}

	comments, err := v.loadPreview(ctx, postID)
	if err != nil {
		slog.Error("failed to reload comment preview", "post_id", postID, "error", err)
		return nil
	}
	v.threads[i].Comments = comments
	v.threads[i].Err = nil
	v.activity = buildActivity(v.threads)
	return nil
}

func (v *GroupDetailView) loadPreview(ctx context.Context, postID string) ([]domain.Comment, error) {
	docs, err := v.store.Query(ctx, domain.CommentsPath(v.groupID, postID), domain.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      CommentPreviewSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return decodeComments(docs)
}

// buildActivity takes the newest comment of each thread, newest first.
func buildActivity(threads []PostThread) []domain.Comment {
	var out []domain.Comment
	for _, t := range threads {
		if len(t.Comments) == 0 {
			continue
		}
		c := t.Comments[0]
		c.PostTitle = t.Post.Title
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b domain.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out[:min(len(out), ActivitySize)]
}
