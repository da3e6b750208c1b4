// Package events carries marketplace notifications over a redis stream.
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Type string

const (
	ItemClaimed       Type = "item.claimed"
	ItemModerated     Type = "item.moderated"
	ModerationBacklog Type = "moderation.backlog"
)

// Event is one stream entry. Fields that do not apply to a type stay empty.
type Event struct {
	Type    Type
	ItemID  string
	UserID  string
	Status  string
	Pending int64
	At      time.Time
}

func (e Event) values() map[string]any {
	v := map[string]any{
		"type": string(e.Type),
		"at":   e.At.UTC().Format(time.RFC3339Nano),
	}
	if e.ItemID != "" {
		v["item_id"] = e.ItemID
	}
	if e.UserID != "" {
		v["user_id"] = e.UserID
	}
	if e.Status != "" {
		v["status"] = e.Status
	}
	if e.Type == ModerationBacklog {
		v["pending"] = strconv.FormatInt(e.Pending, 10)
	}
	return v
}

// Decode rebuilds an event from stream values.
func Decode(values map[string]any) (Event, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}

	e := Event{
		Type:   Type(str("type")),
		ItemID: str("item_id"),
		UserID: str("user_id"),
		Status: str("status"),
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	if raw := str("at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Event{}, fmt.Errorf("parse at: %w", err)
		}
		e.At = at
	}
	if raw := str("pending"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("parse pending: %w", err)
		}
		e.Pending = n
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// StreamPublisher appends events to a capped redis stream.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewStreamPublisher(client redis.Cmdable, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: 10000}
}

func (p *StreamPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: e.values(),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
