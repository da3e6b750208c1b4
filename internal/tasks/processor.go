package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"necessities/swap/internal/events"
)

// Processor turns marketplace events into notifications, which are written
// to the log.
type Processor struct {
	logger zerolog.Logger
	notify func(n Notification)
}

type Notification struct {
	Audience string
	Subject  string
	Event    events.Event
}

func NewProcessor(logger zerolog.Logger) *Processor {
	p := &Processor{logger: logger}
	p.notify = p.logNotification
	return p
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	e, err := events.Decode(msg.Values)
	if err != nil {
		return fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return p.Process(ctx, e)
}

// Process dispatches one event. Unknown types are logged and dropped so they
// are acknowledged rather than retried forever.
func (p *Processor) Process(_ context.Context, e events.Event) error {
	switch e.Type {
	case events.ItemClaimed:
		p.notify(Notification{Audience: "owner", Subject: "Your item was claimed", Event: e})
	case events.ItemModerated:
		p.notify(Notification{Audience: "owner", Subject: "Your item was " + e.Status, Event: e})
	case events.ModerationBacklog:
		p.notify(Notification{Audience: "admins", Subject: fmt.Sprintf("%d items awaiting moderation", e.Pending), Event: e})
	default:
		p.logger.Warn().Str("type", string(e.Type)).Msg("unknown event type")
	}
	return nil
}

func (p *Processor) logNotification(n Notification) {
	p.logger.Info().
		Str("audience", n.Audience).
		Str("event", string(n.Event.Type)).
		Str("item_id", n.Event.ItemID).
		Str("user_id", n.Event.UserID).
		Msg(n.Subject)
}
