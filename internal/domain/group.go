package domain

import (
	"slices"
	"time"
)

// Group is stored at groups/{gid}.
type Group struct {
	ID          string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Members     []string  `json:"members"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether uid is in the group's member set.
func (g *Group) HasMember(uid string) bool {
	return slices.Contains(g.Members, uid)
}

// MemberCount returns the size of the member set.
func (g *Group) MemberCount() int {
	return len(g.Members)
}

// Post is stored at groups/{gid}/posts/{pid}.
type Post struct {
	ID         string    `json:"-"`
	GroupID    string    `json:"-"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment is stored at groups/{gid}/posts/{pid}/comments/{cid}.
type Comment struct {
	ID         string    `json:"-"`
	PostID     string    `json:"-"`
	Message    string    `json:"message"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`

	// PostTitle is filled in for activity feeds only.
	PostTitle string `json:"-"`
}
