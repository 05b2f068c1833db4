package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/fuzzie/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestCreateChannel_NoBrokers(t *testing.T) {
	t.Parallel()

	_, _, err := CreateChannel(watermill.NopLogger{}, "fuzzie", Config{})
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, _, err = CreateChannel(watermill.NopLogger{}, "fuzzie", Config{Brokers: []string{"", ""}})
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestConfig_Brokers(t *testing.T) {
	t.Parallel()

	cfg := Config{Brokers: []string{"", "kafka-1:9092", "", "kafka-2:9092"}}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.brokers())
	assert.Len(t, cfg.Brokers, 4)
}

func TestCreateChannel_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_CREATE_TOPICS": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	publisher, subscriber, err := CreateChannel(watermill.NopLogger{}, "fuzzie-test", Config{Brokers: brokers})
	require.NoError(t, err)

	defer publisher.Close()
	defer subscriber.Close()

	messages, err := subscriber.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"type":"team.created"}`))
	msg.Metadata.Set(events.EventTypeMetadataKey, string(events.TeamCreatedEvent))
	require.NoError(t, publisher.Publish(events.Topic, msg))

	select {
	case received := <-messages:
		assert.Equal(t, string(events.TeamCreatedEvent), received.Metadata.Get(events.EventTypeMetadataKey))
		assert.JSONEq(t, `{"type":"team.created"}`, string(received.Payload))
		received.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
