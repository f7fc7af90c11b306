package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/sqlite"
	"github.com/msomdec/squadhub/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

var errInjected = errors.New("injected failure")

// spyStore records every call and can fail selected ones.
type spyStore struct {
	domain.DocumentStore

	mu    sync.Mutex
	calls []string
	// fail returns a non-nil error to make the call fail. op is one of
	// get, query, group, add, set, update.
	fail func(op, path string) error
}

func (s *spyStore) record(op, path string) error {
	s.mu.Lock()
	s.calls = append(s.calls, op+" "+path)
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail(op, path)
	}
	return nil
}

func (s *spyStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *spyStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.fail = nil
}

func (s *spyStore) FailOn(fn func(op, path string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// Touched reports whether any call's path contains fragment.
func (s *spyStore) Touched(fragment string) bool {
	for _, c := range s.Calls() {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

func (s *spyStore) Get(ctx context.Context, path, id string) (*domain.Document, error) {
	if err := s.record("get", path+"/"+id); err != nil {
		return nil, err
	}
	return s.DocumentStore.Get(ctx, path, id)
}

func (s *spyStore) Query(ctx context.Context, path string, q domain.Query) ([]domain.Document, error) {
	if err := s.record("query", path); err != nil {
		return nil, err
	}
	return s.DocumentStore.Query(ctx, path, q)
}

func (s *spyStore) QueryGroup(ctx context.Context, id string, q domain.Query) ([]domain.Document, error) {
	if err := s.record("group", id); err != nil {
		return nil, err
	}
	return s.DocumentStore.QueryGroup(ctx, id, q)
}

func (s *spyStore) Add(ctx context.Context, path string, fields map[string]any) (string, error) {
	if err := s.record("add", path); err != nil {
		return "", err
	}
	return s.DocumentStore.Add(ctx, path, fields)
}

func (s *spyStore) Set(ctx context.Context, path, id string, fields map[string]any) error {
	if err := s.record("set", path+"/"+id); err != nil {
		return err
	}
	return s.DocumentStore.Set(ctx, path, id, fields)
}

func (s *spyStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	if err := s.record("update", path+"/"+id); err != nil {
		return err
	}
	return s.DocumentStore.Update(ctx, path, id, fields)
}

// countingAccounts counts calls into the auth provider's account table.
type countingAccounts struct {
	domain.AccountRepository
	mu    sync.Mutex
	calls int
}

func (c *countingAccounts) inc() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingAccounts) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingAccounts) Create(ctx context.Context, a *domain.Account) error {
	c.inc()
	return c.AccountRepository.Create(ctx, a)
}

func (c *countingAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	c.inc()
	return c.AccountRepository.GetByEmail(ctx, email)
}

// captureMailer keeps the last reset link.
type captureMailer struct {
	mu   sync.Mutex
	link string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.link = link
	return nil
}

func (m *captureMailer) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, token, _ := strings.Cut(m.link, "token=")
	return token
}

type testEnv struct {
	db       *sqlite.DB
	store    *spyStore
	accounts *countingAccounts
	mailer   *captureMailer
	auth     *service.AuthService
	profiles *service.ProfileStore
	account  *service.AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		store:    &spyStore{DocumentStore: db.Documents()},
		accounts: &countingAccounts{AccountRepository: db.Accounts()},
		mailer:   &captureMailer{},
	}
	// Cost 4 keeps bcrypt fast in tests.
	env.auth = service.NewAuthService(env.accounts, db.AuthSessions(), db.PasswordResets(), env.mailer, testJWTSecret, 4, "http://localhost:8080")
	env.profiles = service.NewProfileStore(env.store)
	env.account = service.NewAccountService(env.auth, env.profiles)
	return env
}

// session returns a session for uid without touching the auth provider.
func (e *testEnv) session(uid string, interests ...string) *service.Session {
	return &service.Session{
		Identity: domain.Identity{UID: uid, Email: uid + "@example.com", DisplayName: strings.ToUpper(uid)},
		Profile:  &domain.UserProfile{ID: uid, Name: "Name " + uid, Interests: interests},
	}
}

type groupSeed struct {
	id        string
	name      string
	desc      string
	tags      []string
	members   []string
	owner     string
	createdAt string
}

func (e *testEnv) seedGroup(t *testing.T, g groupSeed) {
	t.Helper()
	if g.owner == "" && len(g.members) > 0 {
		g.owner = g.members[0]
	}
	if g.members == nil {
		g.members = []string{}
	}
	if g.tags == nil {
		g.tags = []string{}
	}
	fields := map[string]any{
		"name":        g.name,
		"description": g.desc,
		"tags":        g.tags,
		"members":     g.members,
		"ownerId":     g.owner,
		"createdAt":   g.createdAt,
	}
	if g.createdAt == "" {
		fields["createdAt"] = domain.ServerTimestamp
	}
	if err := e.store.DocumentStore.Set(context.Background(), domain.GroupsCollection, g.id, fields); err != nil {
		t.Fatalf("seed group %s: %v", g.id, err)
	}
}

func (e *testEnv) seedPost(t *testing.T, groupID, postID, title, createdAt string) {
	t.Helper()
	err := e.store.DocumentStore.Set(context.Background(), domain.PostsPath(groupID), postID, map[string]any{
		"title":      title,
		"content":    "content of " + title,
		"authorId":   "seed",
		"authorName": "Seeder",
		"createdAt":  createdAt,
	})
	if err != nil {
		t.Fatalf("seed post %s: %v", postID, err)
	}
}

func (e *testEnv) seedComment(t *testing.T, groupID, postID, commentID, message, createdAt string) {
	t.Helper()
	err := e.store.DocumentStore.Set(context.Background(), domain.CommentsPath(groupID, postID), commentID, map[string]any{
		"message":    message,
		"authorId":   "seed",
		"authorName": "Seeder",
		"createdAt":  createdAt,
	})
	if err != nil {
		t.Fatalf("seed comment %s: %v", commentID, err)
	}
}

// ts renders a fixed timestamp on 2024-01-01 at the given minute.
func ts(minute int) string {
	return "2024-01-01T00:" + twoDigits(minute) + ":00.000000000Z"
}

func twoDigits(n int) string {
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func groupIDs(groups []domain.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.ID
	}
	return out
}
