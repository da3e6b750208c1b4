package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"time"

	"github.com/rs/zerolog"

	"necessities/swap/internal/events"
	"necessities/swap/internal/ids"
	"necessities/swap/internal/media/sniffer"
	"necessities/swap/internal/media/svg"
	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/session"
)

// PhotoStore persists uploaded item photos and returns where they are served.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type ItemService struct {
	items     *repository.ItemRepository
	guard     *Guard
	photos    PhotoStore
	maxUpload int64
	events    events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewItemService wires the item operations. photos may be nil, in which case
// photo uploads report KindUnavailable.
func NewItemService(
	items *repository.ItemRepository,
	guard *Guard,
	photos PhotoStore,
	maxUpload int64,
	publisher events.Publisher,
	log zerolog.Logger,
) *ItemService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &ItemService{
		items:     items,
		guard:     guard,
		photos:    photos,
		maxUpload: maxUpload,
		events:    publisher,
		log:       log,
		now:       time.Now,
	}
}

// List returns approved items, narrowed to category when one is given.
func (s *ItemService) List(ctx context.Context, category string) ([]models.Item, error) {
	return s.items.ListByStatus(ctx, models.ItemStatusApproved, category)
}

func (s *ItemService) GetByID(ctx context.Context, id string) (models.Item, error) {
	id, err := ids.Parse(id)
	if err != nil {
		return models.Item{}, errInvalidItemID
	}
	item, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrItemNotFound) {
		return models.Item{}, errItemNotFound
	}
	return item, err
}

type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	ImageURL    *string
}

func (s *ItemService) Create(ctx context.Context, identity session.Identity, input CreateItemInput) (string, error) {
	userID, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return "", errAuthRequired
	}
	if err := requireFields(
		field{"title", input.Title},
		field{"description", input.Description},
		field{"category", input.Category},
	); err != nil {
		return "", err
	}

	id, err := s.items.Create(ctx, models.Item{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		UserID:      userID,
		Status:      models.ItemStatusPending,
		ImageURL:    input.ImageURL,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return "", err
	}

	s.log.Info().Str("item_id", id).Str("user_id", userID).Msg("item submitted for moderation")
	return id, nil
}

// Claim binds an approved item to the caller. Concurrent claims on the same
// item have exactly one winner; the rest see KindNotFound.
func (s *ItemService) Claim(ctx context.Context, identity session.Identity, id string) error {
	userID, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return errAuthRequired
	}
	id, err := ids.Parse(id)
	if err != nil {
		return errInvalidItemID
	}

	at := s.now().UTC()
	if err := s.items.Claim(ctx, id, userID, at); err != nil {
		if errors.Is(err, repository.ErrItemUnavailable) {
			return errItemUnavailable
		}
		return err
	}

	s.publish(ctx, events.Event{Type: events.ItemClaimed, ItemID: id, UserID: userID, Status: string(models.ItemStatusClaimed), At: at})
	return nil
}

func (s *ItemService) ListMine(ctx context.Context, identity session.Identity) ([]models.Item, error) {
	userID, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return nil, errAuthRequired
	}
	return s.items.ListByOwner(ctx, userID)
}

type UploadImageInput struct {
	ItemID string
	File   io.Reader
	Size   int64
	Header textproto.MIMEHeader
}

// UploadImage stores a photo for an item owned by the caller and points the
// item's image_url at it.
func (s *ItemService) UploadImage(ctx context.Context, identity session.Identity, input UploadImageInput) (string, error) {
	userID, ok := s.guard.CurrentUserID(identity)
	if !ok {
		return "", errAuthRequired
	}
	if s.photos == nil {
		return "", unavailable("Image uploads are disabled")
	}

	id, err := ids.Parse(input.ItemID)
	if err != nil {
		return "", errInvalidItemID
	}
	item, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrItemNotFound) {
		return "", errItemNotFound
	}
	if err != nil {
		return "", err
	}
	if item.UserID != userID {
		return "", forbidden("Only the owner can change an item's image")
	}

	data, format, err := s.readImage(input)
	if err != nil {
		return "", err
	}

	key := path.Join("items", s.now().UTC().Format("2006/01/02"), fmt.Sprintf("%s.%s", id, format.Ext))
	url, err := s.photos.Put(ctx, key, data, format.MIME)
	if err != nil {
		return "", err
	}
	if err := s.items.SetImageURL(ctx, id, url); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return "", errItemNotFound
		}
		return "", err
	}

	s.log.Info().Str("item_id", id).Str("object", key).Int("bytes", len(data)).Msg("item image stored")
	return url, nil
}

func (s *ItemService) readImage(input UploadImageInput) ([]byte, sniffer.Format, error) {
	if input.File == nil {
		return nil, sniffer.Format{}, validation("Missing required field: file")
	}
	if s.maxUpload > 0 && input.Size > s.maxUpload {
		return nil, sniffer.Format{}, tooLarge("File too large")
	}

	limit := s.maxUpload
	if limit <= 0 {
		limit = 1 << 62
	}
	data, err := io.ReadAll(io.LimitReader(input.File, limit+1))
	if err != nil {
		return nil, sniffer.Format{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, sniffer.Format{}, tooLarge("File too large")
	}
	if len(data) == 0 {
		return nil, sniffer.Format{}, validation("Empty file")
	}

	format, err := sniffer.Sniff(data)
	if err != nil {
		return nil, sniffer.Format{}, validation("Unsupported image type")
	}
	if declared := sniffer.DeclaredMIME(input.Header); !sniffer.Compatible(declared, format) {
		return nil, sniffer.Format{}, validation(fmt.Sprintf("Content type mismatch: declared %s, detected %s", declared, format.MIME))
	}

	if format == sniffer.SVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return nil, sniffer.Format{}, validation("Unsupported image type")
		}
		data = bytes.TrimSpace(clean)
	}
	return data, format, nil
}

func (s *ItemService) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("item_id", e.ItemID).Str("event", string(e.Type)).Msg("publish event failed")
	}
}
