// Package kafka publishes fill events. Two clients are supported behind
// the same Publisher interface: segmentio/kafka-go and IBM/sarama.
package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

type Message struct {
	Key   []byte
	Value []byte
}

// Publisher delivers a batch of messages to one topic. Publish returns
// only after every message has been acknowledged or the batch has failed.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

const (
	ClientKafkaGo = "kafka-go"
	ClientSarama  = "sarama"
)

type Config struct {
	Client       string
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	MaxRetries   int
}

// New builds the Publisher named by cfg.Client.
func New(cfg Config) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	switch cfg.Client {
	case ClientKafkaGo, "":
		return NewWriterPublisher(cfg), nil
	case ClientSarama:
		return NewSaramaPublisher(cfg)
	default:
		return nil, errors.Newf("kafka: unknown client %q", cfg.Client)
	}
}
