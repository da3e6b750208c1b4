package repository

import (
	"context"
	"errors"
	"time"

	"necessities/swap/internal/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// Filter selects documents by top-level equality on Match and, when Since is
// set, by an inclusive lower bound on a timestamp field.
type Filter struct {
	Match models.Document
	Since *TimeBound
}

type TimeBound struct {
	Field string
	From  time.Time
}

// Bucket is one group of a GroupCount result.
type Bucket struct {
	Key   any   `json:"_id"`
	Count int64 `json:"count"`
}

// Collection is a set of schema-flexible documents addressed by id. Every
// method touches documents one at a time; UpdateByID evaluates its condition
// and applies its changes as a single atomic step.
type Collection interface {
	Name() string
	Insert(ctx context.Context, doc models.Document) (string, error)
	FindByID(ctx context.Context, id string) (models.Document, error)
	FindOne(ctx context.Context, filter Filter) (models.Document, error)
	Find(ctx context.Context, filter Filter) ([]models.Document, error)
	// UpdateByID merges set into the document when it also matches cond and
	// reports whether a document was changed.
	UpdateByID(ctx context.Context, id string, cond models.Document, set models.Document) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context, filter Filter) (int64, error)
	// GroupCount counts documents per value of field, largest group first.
	GroupCount(ctx context.Context, field string) ([]Bucket, error)
}

const (
	CollectionUsers = "users"
	CollectionItems = "items"
)

// Store holds the two collections and the resource behind them.
type Store struct {
	Users Collection
	Items Collection
	ping  func(ctx context.Context) error
	close func()
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

func withoutID(doc models.Document) models.Document {
	out := make(models.Document, len(doc))
	for k, v := range doc {
		if k == models.FieldID {
			continue
		}
		out[k] = v
	}
	return out
}
