package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"necessities/swap/internal/events"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type memoryPhotos struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryPhotos() *memoryPhotos {
	return &memoryPhotos{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryPhotos) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return "https://cdn.test/" + key, nil
}

type fixture struct {
	store     *repository.Store
	users     *repository.UserRepository
	items     *repository.ItemRepository
	guard     *Guard
	hasher    *security.Hasher
	events    *recordingPublisher
	photos    *memoryPhotos
	userSvc   *UserService
	itemSvc   *ItemService
	adminSvc  *AdminService
	analytics *Analytics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	users := repository.NewUserRepository(store.Users)
	items := repository.NewItemRepository(store.Items)
	guard := NewGuard(users)
	hasher := security.NewHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	pub := &recordingPublisher{}
	photos := newMemoryPhotos()
	analytics := NewAnalytics(users, items)
	log := zerolog.Nop()

	return &fixture{
		store:     store,
		users:     users,
		items:     items,
		guard:     guard,
		hasher:    hasher,
		events:    pub,
		photos:    photos,
		userSvc:   NewUserService(users, guard, hasher, log),
		itemSvc:   NewItemService(items, guard, photos, 1024, pub, log),
		adminSvc:  NewAdminService(users, items, guard, hasher, analytics, pub, log),
		analytics: analytics,
	}
}

func (f *fixture) register(t *testing.T, email string) session.Identity {
	t.Helper()
	id, err := f.userSvc.Register(context.Background(), RegisterInput{Email: email, Password: "pw-" + email, Name: "N " + email})
	require.NoError(t, err)
	return session.Identity{UserID: id}
}

func (f *fixture) admin(t *testing.T) session.Identity {
	t.Helper()
	id, err := f.userSvc.CreateAccount(context.Background(), RegisterInput{Email: "root@example.com", Password: "root", Name: "Root"}, models.UserRoleAdmin)
	require.NoError(t, err)
	return session.Identity{AdminID: id}
}

func (f *fixture) item(t *testing.T, owner session.Identity, category string, status models.ItemStatus) string {
	t.Helper()
	ctx := context.Background()
	id, err := f.itemSvc.Create(ctx, owner, CreateItemInput{Title: "T", Description: "D", Category: category})
	require.NoError(t, err)
	if status != models.ItemStatusPending {
		require.NoError(t, f.items.SetStatus(ctx, id, string(status)))
	}
	return id
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *service.Error, got %v", err)
	require.Equal(t, kind, se.Kind, se.Message)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
