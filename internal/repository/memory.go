package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"necessities/swap/internal/ids"
	"necessities/swap/internal/models"
)

// MemoryCollection is an in-process Collection. Documents are stored
// JSON-encoded so reads see the same shapes a JSONB column would return.
type MemoryCollection struct {
	name   string
	unique []string

	mu    sync.RWMutex
	order []string
	docs  map[string][]byte
}

// NewMemoryCollection returns an empty collection enforcing uniqueness on the
// given top-level fields.
func NewMemoryCollection(name string, unique ...string) *MemoryCollection {
	return &MemoryCollection{
		name:   name,
		unique: unique,
		docs:   make(map[string][]byte),
	}
}

func NewMemoryStore() *Store {
	return &Store{
		Users: NewMemoryCollection(CollectionUsers, "email"),
		Items: NewMemoryCollection(CollectionItems),
	}
}

func (c *MemoryCollection) Name() string {
	return c.name
}

func (c *MemoryCollection) Insert(_ context.Context, doc models.Document) (string, error) {
	normalized, err := normalize(withoutID(doc))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conflicts("", normalized) {
		return "", ErrDuplicate
	}

	id := ids.New()
	if err := c.put(id, normalized); err != nil {
		return "", err
	}
	c.order = append(c.order, id)
	return id, nil
}

func (c *MemoryCollection) FindByID(_ context.Context, id string) (models.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (c *MemoryCollection) Find(_ context.Context, filter Filter) ([]models.Document, error) {
	match, err := normalize(filter.Match)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := []models.Document{}
	for _, id := range c.order {
		doc, _ := c.get(id)
		if matches(doc, match, filter.Since) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (c *MemoryCollection) UpdateByID(_ context.Context, id string, cond models.Document, set models.Document) (bool, error) {
	normCond, err := normalize(cond)
	if err != nil {
		return false, err
	}
	normSet, err := normalize(withoutID(set))
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.get(id)
	if !ok || !matches(doc, normCond, nil) {
		return false, nil
	}

	delete(doc, models.FieldID)
	for k, v := range normSet {
		doc[k] = v
	}
	if c.conflicts(id, doc) {
		return false, ErrDuplicate
	}
	if err := c.put(id, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCollection) DeleteByID(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *MemoryCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (c *MemoryCollection) GroupCount(_ context.Context, field string) ([]Bucket, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index := make(map[string]int)
	var buckets []Bucket
	for _, id := range c.order {
		doc, _ := c.get(id)
		key := doc[field]
		encoded, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encode group key: %w", err)
		}
		pos, ok := index[string(encoded)]
		if !ok {
			pos = len(buckets)
			index[string(encoded)] = pos
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[pos].Count++
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	if buckets == nil {
		buckets = []Bucket{}
	}
	return buckets, nil
}

// get must be called with the lock held.
func (c *MemoryCollection) get(id string) (models.Document, bool) {
	raw, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	doc := models.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	doc[models.FieldID] = id
	return doc, true
}

func (c *MemoryCollection) put(id string, doc models.Document) error {
	raw, err := json.Marshal(withoutID(doc))
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.name, err)
	}
	c.docs[id] = raw
	return nil
}

// conflicts reports whether doc collides with another document on a unique
// field. It must be called with the lock held.
func (c *MemoryCollection) conflicts(selfID string, doc models.Document) bool {
	for _, field := range c.unique {
		value, ok := doc[field]
		if !ok {
			continue
		}
		for _, id := range c.order {
			if id == selfID {
				continue
			}
			other, _ := c.get(id)
			if reflect.DeepEqual(other[field], value) {
				return true
			}
		}
	}
	return false
}

func matches(doc models.Document, match models.Document, since *TimeBound) bool {
	for k, want := range match {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	if since != nil {
		raw, ok := doc[since.Field].(string)
		if !ok {
			return false
		}
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil || at.Before(since.From) {
			return false
		}
	}
	return true
}

// normalize gives a document the shape it would have after a JSON round trip.
func normalize(doc models.Document) (models.Document, error) {
	if doc == nil {
		return models.Document{}, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := models.Document{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
