// Package events publishes domain events after a write commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"querystack/internal/cache"
)

const (
	QuestionCreated   = "question.created"
	QuestionEdited    = "question.edited"
	QuestionDeleted   = "question.deleted"
	AnswerCreated     = "answer.created"
	AnswerDeleted     = "answer.deleted"
	VoteToggled       = "vote.toggled"
	CollectionToggled = "collection.toggled"
	UserSignedUp      = "user.signed_up"
	QuestionViewed    = "question.viewed"
)

// Event describes one committed write. Data holds the ids it touched.
type Event struct {
	Type       string            `json:"type"`
	ActorID    string            `json:"actorId,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

func New(eventType, actorID string, data map[string]string) Event {
	return Event{Type: eventType, ActorID: actorID, Data: data, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Broker sends raw messages under a routing key.
type Broker interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// BrokerPublisher encodes events as JSON and routes them by type.
type BrokerPublisher struct {
	broker Broker
}

func NewBrokerPublisher(b Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: b}
}

func (p *BrokerPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	if err := p.broker.Publish(ctx, e.Type, body); err != nil {
		return fmt.Errorf("publish event %s: %w", e.Type, err)
	}
	return nil
}

// CacheKeys lists the cached reads an event of the given type makes stale.
// Views are left to the cache TTL.
func CacheKeys(eventType string) []string {
	switch eventType {
	case QuestionCreated, QuestionEdited, QuestionDeleted:
		return []string{cache.KeyHotQuestions, cache.KeyTopTags}
	case VoteToggled:
		return []string{cache.KeyHotQuestions}
	default:
		return nil
	}
}

// Invalidator drops cached reads when events arrive from the broker.
type Invalidator struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewInvalidator(c cache.Cache, logger *zap.Logger) *Invalidator {
	return &Invalidator{cache: c, logger: logger}
}

// Handle processes one encoded event. Malformed messages are dropped
// rather than requeued.
func (i *Invalidator) Handle(ctx context.Context, body []byte) error {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		i.logger.Warn("dropping malformed event", zap.Error(err))
		return nil
	}
	keys := CacheKeys(e.Type)
	if len(keys) == 0 {
		return nil
	}
	if err := i.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate %v: %w", keys, err)
	}
	i.logger.Debug("cache invalidated", zap.String("event", e.Type), zap.Strings("keys", keys))
	return nil
}
