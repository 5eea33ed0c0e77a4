package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devconnector/internal/config"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishProfileEvent_RoundTrip(t *testing.T) {
	w := &recordingWriter{}
	client := &KafkaProducerClient{ProfileEventsWriter: w}
	owner := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := client.PublishProfileEvent(context.Background(), ProfileEventPayload{
		EventType:  ProfileEventTypeDeleted,
		OwnerID:    owner,
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, owner.String(), string(w.msgs[0].Key))

	decoded, err := DecodeProfileEvent(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, ProfileEventTypeDeleted, decoded.EventType)
	assert.Equal(t, owner, decoded.OwnerID)
	assert.True(t, at.Equal(decoded.OccurredAt))
}

func TestPublishProfileEvent_WriterError(t *testing.T) {
	client := &KafkaProducerClient{ProfileEventsWriter: &recordingWriter{err: errors.New("broker down")}}
	err := client.PublishProfileEvent(context.Background(), ProfileEventPayload{EventType: ProfileEventTypeUpdated})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaProducerClient_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducerClient(config.Config{})
	assert.Error(t, err)
}

func TestDecodeProfileEvent_Garbage(t *testing.T) {
	_, err := DecodeProfileEvent(kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
