package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"necessities/swap/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository struct {
	col Collection
}

func NewUserRepository(col Collection) *UserRepository {
	return &UserRepository{col: col}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (string, error) {
	id, err := r.col.Insert(ctx, user.Document())
	if errors.Is(err, ErrDuplicate) {
		return "", ErrEmailTaken
	}
	return id, err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	doc, err := r.col.FindByID(ctx, id)
	return r.decode(doc, err)
}

// FindByEmail matches the address exactly, case included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	doc, err := r.col.FindOne(ctx, Filter{Match: models.Document{"email": email}})
	return r.decode(doc, err)
}

func (r *UserRepository) FindAdminByEmail(ctx context.Context, email string) (models.User, error) {
	doc, err := r.col.FindOne(ctx, Filter{Match: models.Document{
		"email": email,
		"role":  string(models.UserRoleAdmin),
	}})
	return r.decode(doc, err)
}

// Update merges fields into the stored user.
func (r *UserRepository) Update(ctx context.Context, id string, fields models.Document) error {
	ok, err := r.col.UpdateByID(ctx, id, nil, fields)
	if errors.Is(err, ErrDuplicate) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.col.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	docs, err := r.col.Find(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		var user models.User
		if err := models.Decode(doc, &user); err != nil {
			return nil, fmt.Errorf("user %v: %w", doc[models.FieldID], err)
		}
		users = append(users, user)
	}
	return users, nil
}

// ListDocuments returns every user as stored, minus the password field.
func (r *UserRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := r.col.Find(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		delete(doc, "password")
	}
	return docs, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.col.Count(ctx, Filter{})
}

func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	return r.col.Count(ctx, Filter{Match: models.Document{"active": true}})
}

// CountCreatedSince counts users whose created_at is at or after since.
func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.col.Count(ctx, Filter{Since: &TimeBound{Field: "created_at", From: since}})
}

func (r *UserRepository) decode(doc models.Document, err error) (models.User, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	var user models.User
	if err := models.Decode(doc, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
