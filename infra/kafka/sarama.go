package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
)

// SaramaPublisher publishes through a sarama SyncProducer.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaPublisher(cfg Config) (*SaramaPublisher, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	if cfg.MaxRetries > 0 {
		sc.Producer.Retry.Max = cfg.MaxRetries
	}
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, errors.Wrap(err, "sarama: new producer")
	}
	return NewSaramaPublisherFromProducer(producer, cfg.Topic), nil
}

// NewSaramaPublisherFromProducer wraps an existing producer.
func NewSaramaPublisherFromProducer(p sarama.SyncProducer, topic string) *SaramaPublisher {
	return &SaramaPublisher{producer: p, topic: topic}
}

func (p *SaramaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	out := make([]*sarama.ProducerMessage, len(msgs))
	for i, m := range msgs {
		pm := &sarama.ProducerMessage{
			Topic: p.topic,
			Value: sarama.ByteEncoder(m.Value),
		}
		if m.Key != nil {
			pm.Key = sarama.ByteEncoder(m.Key)
		}
		out[i] = pm
	}
	if len(out) == 1 {
		_, _, err := p.producer.SendMessage(out[0])
		return errors.Wrap(err, "sarama: send")
	}
	return errors.Wrap(p.producer.SendMessages(out), "sarama: send batch")
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}
