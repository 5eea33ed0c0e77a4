package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/devconnector/internal/config"
)

const (
	TopicProfileEvents = "profile.events"
)

type ProfileEventType string

const (
	ProfileEventTypeCreated ProfileEventType = "profile.created"
	ProfileEventTypeUpdated ProfileEventType = "profile.updated"
	ProfileEventTypeDeleted ProfileEventType = "profile.deleted"
)

type ProfileEventPayload struct {
	EventType  ProfileEventType `json:"event_type"`
	OwnerID    uuid.UUID        `json:"owner_id"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	ProfileEventsWriter messageWriter
}

func NewKafkaProducerClient(cfg config.Config) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'profile.events'; keyed by owner so one owner's events stay ordered
	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicProfileEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
	}, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, payload ProfileEventPayload) error {
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal profile event failed: %w", err)
	}

	err = c.ProfileEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.OwnerID.String()),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write profile event to kafka failed: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() error {
	if c.ProfileEventsWriter != nil {
		return c.ProfileEventsWriter.Close()
	}
	return nil
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, ProfileEventPayload) error { return nil }

// DecodeProfileEvent parses a message produced by PublishProfileEvent.
func DecodeProfileEvent(msg kafka.Message) (ProfileEventPayload, error) {
	var payload ProfileEventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return ProfileEventPayload{}, fmt.Errorf("unmarshal profile event failed: %w", err)
	}
	return payload, nil
}
