package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

// ConfluentConsumer implements CDCEventConsumer using confluent-kafka-go.
type ConfluentConsumer struct {
	consumer *kafka.Consumer
	topics   []string
	handler  CDCEventHandler
	doneCh   chan struct{}
}

var _ CDCEventConsumer = (*ConfluentConsumer)(nil)

// NewConfluentConsumer creates a Kafka consumer for the CDC topics of the
// diaries and profiles tables.
func NewConfluentConsumer(brokers, groupID string, topics []string, handler CDCEventHandler) (*ConfluentConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &ConfluentConsumer{
		consumer: c,
		topics:   topics,
		handler:  handler,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes and consumes in the background until ctx is cancelled.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if err := cc.consumer.SubscribeTopics(cc.topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v: %w", cc.topics, err)
	}

	l := pkglog.L()
	l.Info().Strs("topics", cc.topics).Msg("kafka CDC consumer started")

	go cc.consumeLoop(ctx)

	return nil
}

func (cc *ConfluentConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(cc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("kafka CDC consumer shutting down")
			return
		default:
			msg, err := cc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka CDC consumer error")
				continue
			}

			cc.processMessage(context.WithoutCancel(ctx), msg.Value)
		}
	}
}

func (cc *ConfluentConsumer) processMessage(ctx context.Context, value []byte) {
	l := pkglog.L()

	// Tombstones follow deletes and carry no payload.
	if len(value) == 0 {
		return
	}

	var event DebeziumMessage
	if err := json.Unmarshal(value, &event); err != nil {
		l.Error().Err(err).Msg("failed to unmarshal debezium CDC event")
		return
	}

	l.Debug().
		Str("op", event.Payload.Op).
		Str("table", event.Payload.Source.Table).
		Int64("ts_ms", event.Payload.TsMs).
		Msg("received CDC event")

	if err := cc.handler.HandleCDCEvent(ctx, &event); err != nil {
		l.Error().Err(err).Str("op", event.Payload.Op).Msg("failed to handle CDC event")
	}
}

// Close waits for the in-flight message, then closes the consumer.
func (cc *ConfluentConsumer) Close() error {
	<-cc.doneCh
	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
