package service

import (
	"context"

	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/session"
)

// Guard resolves a session identity to users. Absence of an identity is not
// an error here; callers decide what to deny.
type Guard struct {
	users *repository.UserRepository
}

func NewGuard(users *repository.UserRepository) *Guard {
	return &Guard{users: users}
}

func (g *Guard) CurrentUserID(identity session.Identity) (string, bool) {
	if !identity.HasUser() {
		return "", false
	}
	return identity.UserID, true
}

func (g *Guard) CurrentUser(ctx context.Context, identity session.Identity) (models.User, bool) {
	id, ok := g.CurrentUserID(identity)
	if !ok || !ids.Valid(id) {
		return models.User{}, false
	}
	user, err := g.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

// IsAdmin never fails: any lookup problem means the caller is not an admin.
func (g *Guard) IsAdmin(ctx context.Context, identity session.Identity) bool {
	if !identity.HasAdmin() || !ids.Valid(identity.AdminID) {
		return false
	}
	user, err := g.users.GetByID(ctx, identity.AdminID)
	if err != nil {
		return false
	}
	return user.IsAdmin()
}
