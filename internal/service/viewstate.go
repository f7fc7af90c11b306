package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/squadhub/internal/domain"
)

// PageKind names the view a PageState backs.
type PageKind string

const (
	PageDirectory   PageKind = "directory"
	PageGroup       PageKind = "group"
	PageMyGroups    PageKind = "my-groups"
	PageOnboarding  PageKind = "onboarding"
	PageProfileEdit PageKind = "profile-edit"
)

// PageState is the server-held view state of one open page. Callers lock
// it for the duration of an action so actions on a page run one at a time.
type PageState struct {
	sync.Mutex

	ID      string
	Kind    PageKind
	UID     string
	Session *Session

	Directory *GroupDirectory
	Detail    *GroupDetailView
	MyGroups  *MyGroupsView
	Interests *InterestSelector

	lastSeen time.Time
}

// Active returns the view that membership changes should refresh, or nil.
func (p *PageState) Active() Reloader {
	switch {
	case p.Directory != nil:
		return p.Directory
	case p.Detail != nil:
		return p.Detail
	case p.MyGroups != nil:
		return p.MyGroups
	}
	return nil
}

// PageRegistry holds page states keyed by page id and drops the ones that
// have been idle longer than the ttl.
type PageRegistry struct {
	mu    sync.Mutex
	pages map[string]*PageState
	ttl   time.Duration
	now   func() time.Time
}

// NewPageRegistry creates a registry and starts a background goroutine that
// sweeps idle pages every sweepEvery.
func NewPageRegistry(ttl, sweepEvery time.Duration) *PageRegistry {
	r := &PageRegistry{
		pages: make(map[string]*PageState),
		ttl:   ttl,
		now:   time.Now,
	}
	go r.cleanup(sweepEvery)
	return r
}

// Put registers p under a fresh id, which it returns.
func (r *PageRegistry) Put(p *PageState) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	p.lastSeen = r.now()
	r.pages[p.ID] = p
	return p.ID
}

// Get returns the page state for id if it belongs to uid.
func (r *PageRegistry) Get(id, uid string) (*PageState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[id]
	if !ok || p.UID != uid {
		return nil, fmt.Errorf("%w: page %s", domain.ErrNotFound, id)
	}
	p.lastSeen = r.now()
	return p, nil
}

func (r *PageRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep removes pages idle since before now minus the ttl and returns how
// many were removed.
func (r *PageRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(-r.ttl)
	n := 0
	for id, p := range r.pages {
		if p.lastSeen.Before(cutoff) {
			delete(r.pages, id)
			n++
		}
	}
	return n
}

func (r *PageRegistry) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	for range ticker.C {
		r.Sweep(r.now())
	}
}
