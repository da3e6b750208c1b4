package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necessities/swap/internal/events"
	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
	"necessities/swap/internal/session"
)

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	f.register(t, "user@example.com")

	id, err := f.adminSvc.AdminLogin(ctx, "root@example.com", "root")
	require.NoError(t, err)
	assert.Equal(t, admin.AdminID, id)

	_, err = f.adminSvc.AdminLogin(ctx, "root@example.com", "nope")
	requireKind(t, err, KindUnauthenticated)

	// a regular account never passes admin login
	_, err = f.adminSvc.AdminLogin(ctx, "user@example.com", "pw-user@example.com")
	requireKind(t, err, KindUnauthenticated)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "user@example.com")
	item := f.item(t, user, "books", models.ItemStatusPending)

	identities := []session.Identity{
		{},
		user,
		{AdminID: user.UserID},
		{AdminID: "garbage"},
		{AdminID: ids.New()},
	}
	for _, identity := range identities {
		_, err := f.adminSvc.ListUsers(ctx, identity)
		requireKind(t, err, KindForbidden)
		requireKind(t, f.adminSvc.UpdateUser(ctx, identity, user.UserID, models.Document{"name": "x"}), KindForbidden)
		_, err = f.adminSvc.ListItems(ctx, identity)
		requireKind(t, err, KindForbidden)
		_, err = f.adminSvc.ModerateItem(ctx, identity, item, "approved")
		requireKind(t, err, KindForbidden)
		_, err = f.adminSvc.AddItem(ctx, identity, models.Document{"title": "x"})
		requireKind(t, err, KindForbidden)
		_, err = f.adminSvc.UserStats(ctx, identity)
		requireKind(t, err, KindForbidden)
		_, err = f.adminSvc.ActivityOverview(ctx, identity)
		requireKind(t, err, KindForbidden)
	}

	stored, _ := f.items.GetByID(ctx, item)
	assert.Equal(t, models.ItemStatusPending, stored.Status)
}

func TestIsAdminAfterDemotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	assert.True(t, f.guard.IsAdmin(ctx, admin))

	require.NoError(t, f.users.Update(ctx, admin.AdminID, models.Document{"role": "user"}))
	assert.False(t, f.guard.IsAdmin(ctx, admin))
}

func TestListUsersStripsPassword(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	f.register(t, "user@example.com")

	users, err := f.adminSvc.ListUsers(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
		assert.Contains(t, u, models.FieldID)
	}
}

func TestUpdateUserMergesArbitraryFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	user := f.register(t, "user@example.com")

	err := f.adminSvc.UpdateUser(ctx, admin, user.UserID, models.Document{
		"_id":      "ignored",
		"active":   false,
		"nickname": "bob",
		"password": "reset-pw",
	})
	require.NoError(t, err)

	doc, err := f.store.Users.FindByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, doc[models.FieldID])
	assert.Equal(t, false, doc["active"])
	assert.Equal(t, "bob", doc["nickname"])

	_, err = f.userSvc.Login(ctx, "user@example.com", "reset-pw")
	assert.NoError(t, err)

	requireKind(t, f.adminSvc.UpdateUser(ctx, admin, ids.New(), models.Document{"name": "x"}), KindNotFound)
	requireKind(t, f.adminSvc.UpdateUser(ctx, admin, "bad", models.Document{"name": "x"}), KindValidation)
}

func TestModerateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.register(t, "owner@example.com")

	id, err := f.itemSvc.Create(ctx, owner, CreateItemInput{Title: "Chair", Description: "Wood chair", Category: "furniture"})
	require.NoError(t, err)

	listed, _ := f.itemSvc.List(ctx, "")
	assert.Empty(t, listed)

	msg, err := f.adminSvc.ModerateItem(ctx, admin, id, "approved")
	require.NoError(t, err)
	assert.Equal(t, "Item approved", msg)

	listed, _ = f.itemSvc.List(ctx, "")
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)

	furniture, _ := f.itemSvc.List(ctx, "furniture")
	require.Len(t, furniture, 1)

	recorded := f.events.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.ItemModerated, recorded[0].Type)
	assert.Equal(t, "approved", recorded[0].Status)
}

func TestModerateStoresActionVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.register(t, "owner@example.com")
	id := f.item(t, owner, "books", models.ItemStatusPending)

	_, err := f.adminSvc.ModerateItem(ctx, admin, id, "archived")
	require.NoError(t, err)
	item, _ := f.items.GetByID(ctx, id)
	assert.Equal(t, models.ItemStatus("archived"), item.Status)

	_, err = f.adminSvc.ModerateItem(ctx, admin, id, "")
	requireKind(t, err, KindValidation)
	_, err = f.adminSvc.ModerateItem(ctx, admin, ids.New(), "approved")
	requireKind(t, err, KindNotFound)
}

func TestAddItemStoresDocumentAsIs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)

	id, err := f.adminSvc.AddItem(ctx, admin, models.Document{"title": "Crate", "weird": []any{1.0, "x"}})
	require.NoError(t, err)

	items, err := f.adminSvc.ListItems(ctx, admin)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0][models.FieldID])
	assert.Equal(t, []any{1.0, "x"}, items[0]["weird"])
	assert.NotContains(t, items[0], "status")
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	f.analytics.now = fixedClock(now)
	admin := f.admin(t)

	ages := []time.Duration{0, 7 * 24 * time.Hour, 8 * 24 * time.Hour, 45 * 24 * time.Hour, 200 * 24 * time.Hour}
	for i, age := range ages {
		id, err := f.users.Create(ctx, models.User{
			Email:     string(rune('a'+i)) + "@example.com",
			Role:      models.UserRoleUser,
			Active:    i%2 == 0,
			CreatedAt: now.Add(-age),
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	}

	stats, err := f.adminSvc.UserStats(ctx, admin)
	require.NoError(t, err)
	// the admin account itself was created at wall-clock time, after now
	assert.EqualValues(t, 6, stats.TotalUsers)
	assert.EqualValues(t, 4, stats.ActiveUsers)
	assert.EqualValues(t, 2, stats.InactiveUsers)
	assert.EqualValues(t, 3, stats.NewUsers.Last7Days, "inclusive lower bound")
	assert.EqualValues(t, 4, stats.NewUsers.Last30Days)
	assert.EqualValues(t, 5, stats.NewUsers.Last90Days)
}

func TestActivityOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)

	empty, err := f.adminSvc.ActivityOverview(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalPosts)
	assert.Zero(t, empty.CompletionRate)
	assert.Empty(t, empty.CategoryCounts)

	owner := f.register(t, "owner@example.com")
	f.item(t, owner, "books", models.ItemStatusClaimed)
	f.item(t, owner, "books", models.ItemStatusApproved)
	f.item(t, owner, "toys", models.ItemStatusClaimed)

	overview, err := f.adminSvc.ActivityOverview(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 3, overview.TotalPosts)
	assert.Equal(t, float64(2)/float64(3)*100, overview.CompletionRate)
	require.Len(t, overview.CategoryCounts, 2)
	assert.Equal(t, "books", overview.CategoryCounts[0].Key)
	assert.EqualValues(t, 2, overview.CategoryCounts[0].Count)
}

func TestAdminWrittenFieldsStayReadable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	owner := f.register(t, "owner@example.com")
	f.item(t, owner, "books", models.ItemStatusApproved)

	lamp, err := f.adminSvc.AddItem(ctx, admin, models.Document{
		"title":      "Lamp",
		"status":     "approved",
		"created_at": "2024-01-01",
		"tags":       []any{"light", "desk"},
	})
	require.NoError(t, err)
	odd, err := f.adminSvc.AddItem(ctx, admin, models.Document{
		"title":  map[string]any{"en": "Rug"},
		"status": "approved",
	})
	require.NoError(t, err)

	items, err := f.itemSvc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	got, err := f.itemSvc.GetByID(ctx, lamp)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)
	assert.Equal(t, "2024-01-01", got.Document()["created_at"])

	got, err = f.itemSvc.GetByID(ctx, odd)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"en": "Rug"}, got.Document()["title"])

	require.NoError(t, f.adminSvc.UpdateUser(ctx, admin, owner.UserID, models.Document{"created_at": "2024-01-01"}))
	profile, err := f.userSvc.Login(ctx, "owner@example.com", "pw-owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, profile.UserID)

	full, err := f.userSvc.GetProfile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", full.CreatedAt)

	require.NoError(t, f.adminSvc.UpdateUser(ctx, admin, admin.AdminID, models.Document{"created_at": "sometime"}))
	stats, err := f.adminSvc.UserStats(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 0, stats.NewUsers.Last7Days)
}
