package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"campussecurity/internal/model"
)

// TypeSecurityEvent tags messages carrying a model.SecurityEvent.
const TypeSecurityEvent = "security_event"

// EventPublisher puts activity log entries on a queue. It satisfies
// records.EventSink.
type EventPublisher struct {
	q         Queue
	published func(model.EventType)
}

// NewEventPublisher wraps q. published, when set, is called after each
// successful publish.
func NewEventPublisher(q Queue, published func(model.EventType)) *EventPublisher {
	return &EventPublisher{q: q, published: published}
}

func (p *EventPublisher) Publish(ctx context.Context, e model.SecurityEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	if err := p.q.Publish(ctx, Message{Type: TypeSecurityEvent, Body: body}); err != nil {
		return fmt.Errorf("publish event %s: %w", e.ID, err)
	}
	if p.published != nil {
		p.published(e.Type)
	}
	return nil
}

// ConsumeEvents calls handle for every security event until ctx ends or the
// queue closes. Messages of other types are skipped; undecodable ones are
// reported through bad.
func ConsumeEvents(ctx context.Context, q Queue, handle func(model.SecurityEvent), bad func(Message, error)) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for msg := range messages {
		if msg.Type != TypeSecurityEvent {
			continue
		}
		var e model.SecurityEvent
		if err := json.Unmarshal(msg.Body, &e); err != nil {
			if bad != nil {
				bad(msg, err)
			}
			continue
		}
		handle(e)
	}
	return nil
}
