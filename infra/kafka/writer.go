package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// WriterPublisher publishes through a kafka-go Writer.
type WriterPublisher struct {
	writer messageWriter
}

func NewWriterPublisher(cfg Config) *WriterPublisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &WriterPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  max(cfg.MaxRetries, 1),
			Async:        false,
			BatchTimeout: batchTimeout,
		},
	}
}

func (p *WriterPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = kafka.Message{Key: m.Key, Value: m.Value}
	}
	return errors.Wrap(p.writer.WriteMessages(ctx, out...), "kafka-go: write")
}

func (p *WriterPublisher) Close() error {
	return p.writer.Close()
}
