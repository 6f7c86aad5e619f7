package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Topic: "fills"})
	assert.Error(t, err)
	_, err = New(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
	_, err = New(Config{Brokers: []string{"localhost:9092"}, Topic: "fills", Client: "carrier-pigeon"})
	assert.Error(t, err)

	p, err := New(Config{Brokers: []string{"localhost:9092"}, Topic: "fills"})
	require.NoError(t, err)
	assert.IsType(t, &WriterPublisher{}, p)
	require.NoError(t, p.Close())
}

func TestSaramaPublisherSendsToTopic(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "fills" {
			return errors.Newf("topic %q", m.Topic)
		}
		k, _ := m.Key.Encode()
		if string(k) != "k1" {
			return errors.Newf("key %q", k)
		}
		return nil
	})
	p := NewSaramaPublisherFromProducer(mp, "fills")

	require.NoError(t, p.Publish(context.Background(), Message{Key: []byte("k1"), Value: []byte("v1")}))
	require.NoError(t, p.Close())
}

func TestSaramaPublisherBatchFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndSucceed()
	mp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	p := NewSaramaPublisherFromProducer(mp, "fills")

	err := p.Publish(context.Background(), Message{Value: []byte("a")}, Message{Value: []byte("b")})
	require.Error(t, err)
	require.NoError(t, p.Close())
}

func TestSaramaPublisherHonorsContext(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	p := NewSaramaPublisherFromProducer(mp, "fills")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, Message{Value: []byte("x")}), context.Canceled)
	require.NoError(t, p.Close())
}

type fakeWriter struct {
	got    []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.got = append(f.got, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestWriterPublisher(t *testing.T) {
	fw := &fakeWriter{}
	p := &WriterPublisher{writer: fw}

	require.NoError(t, p.Publish(context.Background()))
	assert.Empty(t, fw.got)

	require.NoError(t, p.Publish(context.Background(),
		Message{Key: []byte("a"), Value: []byte("1")},
		Message{Key: []byte("b"), Value: []byte("2")},
	))
	require.Len(t, fw.got, 2)
	assert.Equal(t, "b", string(fw.got[1].Key))
	assert.Equal(t, "2", string(fw.got[1].Value))

	fw.err = kafka.LeaderNotAvailable
	assert.Error(t, p.Publish(context.Background(), Message{Value: []byte("x")}))

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}
