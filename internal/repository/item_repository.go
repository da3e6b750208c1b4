package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"necessities/swap/internal/models"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item not found or not available")
)

type ItemRepository struct {
	col Collection
}

func NewItemRepository(col Collection) *ItemRepository {
	return &ItemRepository{col: col}
}

func (r *ItemRepository) Create(ctx context.Context, item models.Item) (string, error) {
	return r.col.Insert(ctx, item.Document())
}

// Insert stores doc without interpreting it.
func (r *ItemRepository) Insert(ctx context.Context, doc models.Document) (string, error) {
	return r.col.Insert(ctx, doc)
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (models.Item, error) {
	doc, err := r.col.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Item{}, ErrItemNotFound
		}
		return models.Item{}, err
	}
	var item models.Item
	if err := models.Decode(doc, &item); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// ListByStatus returns items in the given status, optionally narrowed to one
// category. An empty category means every category.
func (r *ItemRepository) ListByStatus(ctx context.Context, status models.ItemStatus, category string) ([]models.Item, error) {
	match := models.Document{"status": string(status)}
	if category != "" {
		match["category"] = category
	}
	return r.find(ctx, Filter{Match: match})
}

func (r *ItemRepository) ListByOwner(ctx context.Context, userID string) ([]models.Item, error) {
	return r.find(ctx, Filter{Match: models.Document{"user_id": userID}})
}

func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	return r.find(ctx, Filter{})
}

// ListDocuments returns every item as stored, whatever fields it carries.
func (r *ItemRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return r.col.Find(ctx, Filter{})
}

func (r *ItemRepository) SetStatus(ctx context.Context, id string, status string) error {
	return r.set(ctx, id, models.Document{"status": status})
}

func (r *ItemRepository) SetImageURL(ctx context.Context, id string, url string) error {
	return r.set(ctx, id, models.Document{"image_url": url})
}

// Claim moves an approved item to claimed in one conditional update, so of
// several concurrent claimers at most one sees success.
func (r *ItemRepository) Claim(ctx context.Context, id string, userID string, at time.Time) error {
	ok, err := r.col.UpdateByID(ctx, id,
		models.Document{"status": string(models.ItemStatusApproved)},
		models.Document{
			"status":     string(models.ItemStatusClaimed),
			"claimed_by": userID,
			"claimed_at": at.UTC(),
		},
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemUnavailable
	}
	return nil
}

func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	return r.col.Count(ctx, Filter{})
}

func (r *ItemRepository) CountByStatus(ctx context.Context, status models.ItemStatus) (int64, error) {
	return r.col.Count(ctx, Filter{Match: models.Document{"status": string(status)}})
}

func (r *ItemRepository) CountByCategory(ctx context.Context) ([]Bucket, error) {
	return r.col.GroupCount(ctx, "category")
}

func (r *ItemRepository) set(ctx context.Context, id string, fields models.Document) error {
	ok, err := r.col.UpdateByID(ctx, id, nil, fields)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) find(ctx context.Context, filter Filter) ([]models.Item, error) {
	docs, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(docs))
	for _, doc := range docs {
		var item models.Item
		if err := models.Decode(doc, &item); err != nil {
			return nil, fmt.Errorf("item %v: %w", doc[models.FieldID], err)
		}
		items = append(items, item)
	}
	return items, nil
}
