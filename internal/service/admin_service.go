package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"necessities/swap/internal/events"
	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/session"
)

// AdminService gates every operation except AdminLogin on Guard.IsAdmin.
// Field maps supplied by admins are merged without a whitelist.
type AdminService struct {
	users     *repository.UserRepository
	items     *repository.ItemRepository
	guard     *Guard
	hasher    *security.Hasher
	analytics *Analytics
	events    events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewAdminService(
	users *repository.UserRepository,
	items *repository.ItemRepository,
	guard *Guard,
	hasher *security.Hasher,
	analytics *Analytics,
	publisher events.Publisher,
	log zerolog.Logger,
) *AdminService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &AdminService{
		users:     users,
		items:     items,
		guard:     guard,
		hasher:    hasher,
		analytics: analytics,
		events:    publisher,
		log:       log,
		now:       time.Now,
	}
}

// AdminLogin returns the admin's id for the caller to store in the session.
func (s *AdminService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errInvalidCredentials
	}
	user, err := s.users.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", errInvalidCredentials
		}
		return "", err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return "", errInvalidCredentials
	}

	s.log.Info().Str("admin_id", user.ID).Msg("admin signed in")
	return user.ID, nil
}

// Authorize returns KindForbidden unless identity carries a live admin.
func (s *AdminService) Authorize(ctx context.Context, identity session.Identity) error {
	if !s.guard.IsAdmin(ctx, identity) {
		return errUnauthorized
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, identity session.Identity) ([]models.Document, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return nil, err
	}
	return s.users.ListDocuments(ctx)
}

// UpdateUser merges fields into the user record. A string password is hashed
// before it is stored; _id is never written.
func (s *AdminService) UpdateUser(ctx context.Context, identity session.Identity, id string, fields models.Document) error {
	if err := s.Authorize(ctx, identity); err != nil {
		return err
	}
	id, err := ids.Parse(id)
	if err != nil {
		return errInvalidUserID
	}

	updates := make(models.Document, len(fields))
	for k, v := range fields {
		if k == models.FieldID {
			continue
		}
		updates[k] = v
	}
	if pw, ok := updates["password"].(string); ok {
		hash, err := s.hasher.Hash(pw)
		if err != nil {
			return err
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		if _, err := s.users.GetByID(ctx, id); errors.Is(err, repository.ErrUserNotFound) {
			return errUserNotFound
		}
		return nil
	}

	err = s.users.Update(ctx, id, updates)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return errUserNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return errEmailTaken
	case err != nil:
		return err
	}

	s.log.Info().Str("user_id", id).Int("fields", len(updates)).Msg("user updated by admin")
	return nil
}

func (s *AdminService) ListItems(ctx context.Context, identity session.Identity) ([]models.Document, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return nil, err
	}
	return s.items.ListDocuments(ctx)
}

// ModerateItem stores action as the item's status verbatim and returns the
// confirmation message.
func (s *AdminService) ModerateItem(ctx context.Context, identity session.Identity, id, action string) (string, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return "", err
	}
	id, err := ids.Parse(id)
	if err != nil {
		return "", errInvalidItemID
	}
	if action == "" {
		return "", validation("Missing required field: action")
	}

	if err := s.items.SetStatus(ctx, id, action); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return "", errItemNotFound
		}
		return "", err
	}

	admin := identity.AdminID
	if err := s.events.Publish(ctx, events.Event{
		Type:   events.ItemModerated,
		ItemID: id,
		UserID: admin,
		Status: action,
		At:     s.now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Str("item_id", id).Msg("publish moderation event failed")
	}
	return fmt.Sprintf("Item %s", action), nil
}

// AddItem stores fields as a new item document without validation.
func (s *AdminService) AddItem(ctx context.Context, identity session.Identity, fields models.Document) (string, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return "", err
	}
	return s.items.Insert(ctx, fields)
}

func (s *AdminService) UserStats(ctx context.Context, identity session.Identity) (UserStats, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return UserStats{}, err
	}
	return s.analytics.Users(ctx)
}

func (s *AdminService) ActivityOverview(ctx context.Context, identity session.Identity) (ActivityOverview, error) {
	if err := s.Authorize(ctx, identity); err != nil {
		return ActivityOverview{}, err
	}
	return s.analytics.Activity(ctx)
}
