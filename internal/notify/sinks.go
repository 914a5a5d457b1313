package notify

import (
	"context"
	"fmt"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/pkg/pubsub"
)

// StoreSink persists notifications.
type StoreSink struct {
	repo repository.NotificationRepository
}

func NewStoreSink(repo repository.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, n *domain.Notification) error {
	return s.repo.Create(ctx, n)
}

// BusSink publishes notifications on "<topic>:<recipient_id>".
type BusSink struct {
	publisher pubsub.Publisher
	topic     string
}

func NewBusSink(publisher pubsub.Publisher, topic string) *BusSink {
	return &BusSink{publisher: publisher, topic: topic}
}

func (s *BusSink) Name() string { return "bus" }

// Message is the payload published for a notification.
type Message struct {
	ID         string            `json:"id,omitempty"`
	ActorID    string            `json:"actor_id"`
	Verb       domain.Verb       `json:"verb"`
	TargetType domain.TargetType `json:"target_type"`
	TargetID   string            `json:"target_id"`
	DiaryID    *string           `json:"diary_id,omitempty"`
}

func (s *BusSink) Deliver(ctx context.Context, n *domain.Notification) error {
	evt, err := pubsub.NewEvent(string(n.Verb), n.RecipientID, Message{
		ID:         n.ID,
		ActorID:    n.ActorID,
		Verb:       n.Verb,
		TargetType: n.TargetType,
		TargetID:   n.TargetID,
		DiaryID:    n.DiaryID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return s.publisher.Publish(ctx, pubsub.Channel(s.topic, n.RecipientID), evt)
}
