// Package mocks provides in-memory mock implementations of the remote ports
// for testing the offline core without a real document store.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// MockRemote is an in-memory stand-in for the remote document store plus the
// remote-auth backend. The typed facades returned by PostRepo, MoodRepo,
// LikeRepo, and Auth share this state, so a test sees one coherent world.
type MockRemote struct {
	mu sync.RWMutex

	posts    map[string]*entities.Post      // postID -> post
	moods    map[string]*entities.MoodEntry // entryID -> entry
	likes    map[string]map[string]bool     // postID -> set of userIDs
	sessions map[string]bool                // identityID -> session exists

	// Call records for asserting query behavior.
	TierQueries  []ports.FeedScope
	CreateCalls  int
	SessionCalls int

	// For testing error scenarios.
	shouldFailOn map[string]error
}

// NewMockRemote creates an empty mock remote store.
func NewMockRemote() *MockRemote {
	return &MockRemote{
		posts:        make(map[string]*entities.Post),
		moods:        make(map[string]*entities.MoodEntry),
		likes:        make(map[string]map[string]bool),
		sessions:     make(map[string]bool),
		shouldFailOn: make(map[string]error),
	}
}

// PostRepo returns the PostRepository facade.
func (m *MockRemote) PostRepo() ports.PostRepository { return &mockPosts{m} }

// MoodRepo returns the MoodRepository facade.
func (m *MockRemote) MoodRepo() ports.MoodRepository { return &mockMoods{m} }

// LikeRepo returns the LikeRepository facade.
func (m *MockRemote) LikeRepo() ports.LikeRepository { return &mockLikes{m} }

// Auth returns the AuthGateway facade.
func (m *MockRemote) Auth() ports.AuthGateway { return &mockAuth{m} }

// SetError configures the mock to return an error for a specific method.
func (m *MockRemote) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockRemote) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
}

func (m *MockRemote) checkError(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, exists := m.shouldFailOn[method]; exists {
		return err
	}
	return nil
}

// SeedPost inserts a post directly, bypassing error configuration.
func (m *MockRemote) SeedPost(post entities.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := post
	m.posts[p.ID] = &p
}

// PostByID returns a stored post, if present.
func (m *MockRemote) PostByID(id string) (*entities.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// MoodByID returns a stored mood entry, if present.
func (m *MockRemote) MoodByID(id string) (*entities.MoodEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.moods[id]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// HasSession reports whether a session exists for the identity.
func (m *MockRemote) HasSession(identityID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[identityID]
}

// HasLike reports whether userID has liked postID remotely.
func (m *MockRemote) HasLike(postID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.likes[postID][userID]
}

// --- PostRepository facade ---

type mockPosts struct{ r *MockRemote }

func (p *mockPosts) Create(ctx context.Context, post *entities.Post) error {
	if err := p.r.checkError("CreatePost"); err != nil {
		return err
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.CreateCalls++
	cp := *post
	p.r.posts[cp.ID] = &cp
	return nil
}

func (p *mockPosts) SoftDelete(ctx context.Context, userID, postID string, at time.Time) error {
	if err := p.r.checkError("SoftDeletePost"); err != nil {
		return err
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	post, ok := p.r.posts[postID]
	if !ok || post.UserID != userID {
		return pkgerrors.NewNotFoundError("post")
	}
	post.MarkDeleted(at)
	return nil
}

func (p *mockPosts) ByUser(ctx context.Context, userID string, limit int) ([]entities.Post, error) {
	if err := p.r.checkError("PostsByUser"); err != nil {
		return nil, err
	}
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	var out []entities.Post
	for _, post := range p.r.posts {
		if post.UserID == userID && !post.Deleted {
			out = append(out, *post)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p *mockPosts) QueryTier(ctx context.Context, scope ports.FeedScope, limit int, exclude map[string]struct{}) ([]entities.Post, error) {
	if err := p.r.checkError("QueryTier"); err != nil {
		return nil, err
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.TierQueries = append(p.r.TierQueries, scope)

	var out []entities.Post
	for _, post := range p.r.posts {
		if post.Deleted {
			continue
		}
		if _, skip := exclude[post.ID]; skip {
			continue
		}
		if !matchesScope(post, scope) {
			continue
		}
		out = append(out, *post)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesScope(p *entities.Post, scope ports.FeedScope) bool {
	switch scope.Tier {
	case valueobjects.TierCity:
		return p.City == scope.Value
	case valueobjects.TierState:
		return p.State == scope.Value
	case valueobjects.TierCountry:
		return p.Country == scope.Value
	default:
		return true
	}
}

func sortNewestFirst(posts []entities.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// --- MoodRepository facade ---

type mockMoods struct{ r *MockRemote }

func (m *mockMoods) Create(ctx context.Context, entry *entities.MoodEntry) error {
	if err := m.r.checkError("CreateMood"); err != nil {
		return err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *entry
	m.r.moods[cp.ID] = &cp
	return nil
}

func (m *mockMoods) SoftDelete(ctx context.Context, userID, entryID string, at time.Time) error {
	if err := m.r.checkError("SoftDeleteMood"); err != nil {
		return err
	}
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	entry, ok := m.r.moods[entryID]
	if !ok || entry.UserID != userID {
		return pkgerrors.NewNotFoundError("mood entry")
	}
	entry.MarkDeleted(at)
	return nil
}

func (m *mockMoods) ByUser(ctx context.Context, userID string, limit int) ([]entities.MoodEntry, error) {
	if err := m.r.checkError("MoodsByUser"); err != nil {
		return nil, err
	}
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	var out []entities.MoodEntry
	for _, e := range m.r.moods {
		if e.UserID == userID && !e.Deleted {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- LikeRepository facade ---

type mockLikes struct{ r *MockRemote }

func (l *mockLikes) Like(ctx context.Context, postID, postOwnerID, userID string) error {
	if err := l.r.checkError("Like"); err != nil {
		return err
	}
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	if l.r.likes[postID] == nil {
		l.r.likes[postID] = make(map[string]bool)
	}
	if l.r.likes[postID][userID] {
		return nil
	}
	l.r.likes[postID][userID] = true
	if p, ok := l.r.posts[postID]; ok {
		p.Likes++
	}
	return nil
}

func (l *mockLikes) Unlike(ctx context.Context, postID, postOwnerID, userID string) error {
	if err := l.r.checkError("Unlike"); err != nil {
		return err
	}
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	if !l.r.likes[postID][userID] {
		return nil
	}
	delete(l.r.likes[postID], userID)
	if p, ok := l.r.posts[postID]; ok && p.Likes > 0 {
		p.Likes--
	}
	return nil
}

// --- AuthGateway facade ---

type mockAuth struct{ r *MockRemote }

func (a *mockAuth) EnsureSession(ctx context.Context, identityID string) error {
	if err := a.r.checkError("EnsureSession"); err != nil {
		return err
	}
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	a.r.SessionCalls++
	a.r.sessions[identityID] = true
	return nil
}

// --- LocationResolver mock ---

// MockLocation is a scripted LocationResolver.
type MockLocation struct {
	mu      sync.Mutex
	Profile valueobjects.LocationProfile
	Err     error
	Calls   int
}

func (m *MockLocation) Resolve(ctx context.Context) (valueobjects.LocationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return valueobjects.LocationProfile{}, m.Err
	}
	return m.Profile, nil
}

// --- ConnectivitySource mock ---

// MockConnectivity is a hand-driven connectivity signal for tests.
type MockConnectivity struct {
	mu     sync.Mutex
	online bool
	ch     chan bool
}

// NewMockConnectivity creates a signal starting in the given state.
func NewMockConnectivity(online bool) *MockConnectivity {
	return &MockConnectivity{online: online, ch: make(chan bool, 8)}
}

func (m *MockConnectivity) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *MockConnectivity) Transitions() <-chan bool {
	return m.ch
}

// Flip changes the state and emits a transition event.
func (m *MockConnectivity) Flip(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()
	if changed {
		m.ch <- online
	}
}
