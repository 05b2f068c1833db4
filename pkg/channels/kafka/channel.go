// Package kafka provides the Kafka-backed event channel.
package kafka

import (
	"errors"
	"slices"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

var ErrNoBrokers = errors.New("no Kafka brokers configured")

type Config struct {
	Brokers []string

	// ConsumerGroup defaults to "cg-<service>".
	ConsumerGroup string

	// FromNewest makes a new consumer group skip the events already on the topic.
	FromNewest bool
}

func (c Config) brokers() []string {
	return slices.DeleteFunc(slices.Clone(c.Brokers), func(b string) bool { return b == "" })
}

// CreateChannel creates a Kafka publisher and subscriber for service.
func CreateChannel(logger watermill.LoggerAdapter, service string, cfg Config) (*kafka.Publisher, *kafka.Subscriber, error) {
	brokers := cfg.brokers()
	if len(brokers) == 0 {
		return nil, nil, ErrNoBrokers
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = "cg-" + service
	}

	subscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	subscriberConfig.ClientID = service

	subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	if cfg.FromNewest {
		subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subscriberConfig,
			ConsumerGroup:         group,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	publisherConfig := kafka.DefaultSaramaSyncPublisherConfig()
	publisherConfig.ClientID = service
	publisherConfig.Producer.RequiredAcks = sarama.WaitForAll

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, err
	}

	return publisher, subscriber, nil
}
