package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/session"
)

type UserService struct {
	users  *repository.UserRepository
	guard  *Guard
	hasher *security.Hasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(users *repository.UserRepository, guard *Guard, hasher *security.Hasher, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		guard:  guard,
		hasher: hasher,
		log:    log,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a regular account and returns its id. The caller binds
// the id to the session.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (string, error) {
	if err := requireFields(
		field{"email", input.Email},
		field{"password", input.Password},
		field{"name", input.Name},
	); err != nil {
		return "", err
	}
	return s.CreateAccount(ctx, input, models.UserRoleUser)
}

// CreateAccount inserts an active account with the given role.
func (s *UserService) CreateAccount(ctx context.Context, input RegisterInput, role models.UserRole) (string, error) {
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return "", err
	}

	id, err := s.users.Create(ctx, models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return "", errEmailTaken
	}
	if err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", id).Str("role", string(role)).Msg("account created")
	return id, nil
}

// Profile is the public view of a user returned by login and profile reads.
type Profile struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt any        `json:"created_at,omitempty"`
}

func profileOf(u models.User) Profile {
	return Profile{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   string(u.Role),
	}
}

func (s *UserService) Login(ctx context.Context, email, password string) (Profile, error) {
	if email == "" || password == "" {
		return Profile{}, validation("Email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Profile{}, errInvalidCredentials
		}
		return Profile{}, err
	}

	if !s.passwordMatches(user, password) {
		return Profile{}, errInvalidCredentials
	}
	return profileOf(user), nil
}

func (s *UserService) passwordMatches(user models.User, password string) bool {
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return false
	}
	return ok
}

// GetProfile returns KindNotFound when the session points at a user that no
// longer exists; the caller should then drop the user from the session.
func (s *UserService) GetProfile(ctx context.Context, identity session.Identity) (Profile, error) {
	id, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return Profile{}, errNotAuthenticated
	}
	if !ids.Valid(id) {
		return Profile{}, errUserNotFound
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Profile{}, errUserNotFound
		}
		return Profile{}, err
	}

	p := profileOf(user)
	if !user.CreatedAt.IsZero() {
		p.CreatedAt = user.CreatedAt
	} else if raw, ok := user.Extra["created_at"]; ok {
		p.CreatedAt = raw
	}
	return p, nil
}

// UpdateProfileInput holds the self-editable fields. Nil means unchanged.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

func (s *UserService) UpdateProfile(ctx context.Context, identity session.Identity, input UpdateProfileInput) error {
	id, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return errNotAuthenticated
	}

	updates := models.Document{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return err
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		return nil
	}

	// a vanished account is not reported here; the next profile read clears it
	err := s.users.Update(ctx, id, updates)
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return errEmailTaken
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	}
	return err
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return validation("Missing required field: " + f.name)
		}
	}
	return nil
}
