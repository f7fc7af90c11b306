package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/msomdec/squadhub/internal/domain"
)

const (
	// DashboardSectionSize bounds every dashboard section.
	DashboardSectionSize = 6
	// TrendingPoolSize is how many groups are ranked for the trending section.
	TrendingPoolSize = 12
)

// Section is one independently loaded dashboard block.
type Section[T any] struct {
	Items []T
	Err   error
}

// Dashboard is the aggregated home view.
type Dashboard struct {
	Profile     *domain.UserProfile
	Recommended Section[domain.Group]
	Trending    Section[domain.Group]
	RecentPosts Section[domain.Post]
	MyGroups    Section[domain.Group]
	// Notice is set when any section failed.
	Notice *domain.Notice
}

// DashboardAggregator loads the four dashboard sections concurrently.
type DashboardAggregator struct {
	store domain.DocumentStore
}

func NewDashboardAggregator(store domain.DocumentStore) *DashboardAggregator {
	return &DashboardAggregator{store: store}
}

// Bootstrap reads every section. A failing section carries its own error
// and does not prevent the others from rendering.
func (a *DashboardAggregator) Bootstrap(ctx context.Context, session *Session) *Dashboard {
	d := &Dashboard{Profile: session.Profile}
	interests := session.Interests()

	var wg sync.WaitGroup
	wg.Go(func() {
		d.Recommended.Items, d.Recommended.Err = a.recommended(ctx, interests)
	})
	wg.Go(func() {
		d.Trending.Items, d.Trending.Err = a.trending(ctx)
	})
	wg.Go(func() {
		d.RecentPosts.Items, d.RecentPosts.Err = a.recentPosts(ctx)
	})
	wg.Go(func() {
		d.MyGroups.Items, d.MyGroups.Err = a.myGroups(ctx, session.UID())
	})
	wg.Wait()

	for name, err := range map[string]error{
		"recommended":  d.Recommended.Err,
		"trending":     d.Trending.Err,
		"recent_posts": d.RecentPosts.Err,
		"my_groups":    d.MyGroups.Err,
	} {
		if err != nil {
			slog.Error("failed to load dashboard section", "section", name, "error", err)
			d.Notice = domain.ErrorNotice("Unable to load dashboard data")
		}
	}
	return d
}

// recommended matches groups tagged with any of the first ten interests,
// falling back to the newest groups when there are none.
func (a *DashboardAggregator) recommended(ctx context.Context, interests []string) ([]domain.Group, error) {
	q := domain.Query{Limit: DashboardSectionSize}
	if len(interests) > 0 {
		terms := interests[:min(len(interests), domain.MaxContainsAny)]
		q.Filters = []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, terms)}
	} else {
		q.OrderBy, q.Descending = "createdAt", true
	}
	docs, err := a.store.Query(ctx, domain.GroupsCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query recommended groups: %w", err)
	}
	return decodeGroups(docs)
}

func (a *DashboardAggregator) trending(ctx context.Context) ([]domain.Group, error) {
	docs, err := a.store.Query(ctx, domain.GroupsCollection, domain.Query{Limit: TrendingPoolSize})
	if err != nil {
		return nil, fmt.Errorf("query trending pool: %w", err)
	}
	groups, err := decodeGroups(docs)
	if err != nil {
		return nil, err
	}
	return RankTrending(groups, DashboardSectionSize), nil
}

// RankTrending orders groups by member count descending, keeping the input
// order among ties, and returns at most n of them.
func RankTrending(groups []domain.Group, n int) []domain.Group {
	ranked := slices.Clone(groups)
	slices.SortStableFunc(ranked, func(a, b domain.Group) int {
		return b.MemberCount() - a.MemberCount()
	})
	return ranked[:min(len(ranked), n)]
}

func (a *DashboardAggregator) recentPosts(ctx context.Context) ([]domain.Post, error) {
	docs, err := a.store.QueryGroup(ctx, domain.PostsCollection, domain.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      DashboardSectionSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	return decodePosts(docs)
}

func (a *DashboardAggregator) myGroups(ctx context.Context, uid string) ([]domain.Group, error) {
	docs, err := a.store.Query(ctx, domain.GroupsCollection, domain.Query{
		Filters: []domain.Filter{domain.Where("members", domain.OpArrayContains, uid)},
		Limit:   DashboardSectionSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query my groups: %w", err)
	}
	return decodeGroups(docs)
}
