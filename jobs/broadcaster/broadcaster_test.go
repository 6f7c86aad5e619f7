package broadcaster

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lltree/infra/codec"
	"lltree/infra/kafka"
	"lltree/infra/metrics"
	exitwal "lltree/infra/wal/exit"
)

func openOutbox(t *testing.T) *exitwal.Outbox {
	t.Helper()
	o, err := exitwal.Open(t.TempDir(), exitwal.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func putFills(t *testing.T, o *exitwal.Outbox, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		f := codec.Fill{ID: id, Seq: 100 + id, TakerID: 9, MakerID: id, TakerSide: 1, Price: 101, Qty: 2}
		require.NoError(t, o.PutNew(exitwal.Entry{ID: id, Payload: f.Marshal()}))
	}
}

func state(t *testing.T, o *exitwal.Outbox, id uint64) exitwal.State {
	t.Helper()
	rec, err := o.Get(id)
	require.NoError(t, err)
	return rec.State
}

func TestRunOncePublishesAndAcks(t *testing.T) {
	o := openOutbox(t)
	putFills(t, o, 1, 2)

	mp := mocks.NewSyncProducer(t, nil)
	var events []Event
	check := func(m *sarama.ProducerMessage) error {
		v, err := m.Value.Encode()
		if err != nil {
			return err
		}
		var e Event
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	}
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(check)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(check)

	m := metrics.New(prometheus.NewRegistry())
	b := New(o, kafka.NewSaramaPublisherFromProducer(mp, "fills"), Config{MaxRetries: 3}, m, nil)

	n, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, exitwal.StateAcked, state(t, o, 1))
	assert.Equal(t, exitwal.StateAcked, state(t, o, 2))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Published))

	require.Len(t, events, 2)
	assert.Equal(t, Event{V: 1, Type: "fill", ID: 1, Seq: 101, TakerID: 9, MakerID: 1, TakerSide: "ask", Price: 101, Qty: 2}, events[0])

	n, err = b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "acked fills are not resent")
	require.NoError(t, b.Close())
}

func TestRunOnceFailureSchedulesRetry(t *testing.T) {
	o := openOutbox(t)
	putFills(t, o, 1)

	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	m := metrics.New(prometheus.NewRegistry())
	b := New(o, kafka.NewSaramaPublisherFromProducer(mp, "fills"), Config{MaxRetries: 2}, m, nil)

	_, err := b.RunOnce(context.Background())
	require.Error(t, err)
	rec, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, exitwal.StateNew, rec.State)
	assert.Equal(t, uint32(1), rec.Retries)

	_, err = b.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, exitwal.StateFailed, state(t, o, 1))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishErrors))

	n, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "parked fills are skipped")
	require.NoError(t, b.Close())
}

func TestSentButUnackedIsRepublished(t *testing.T) {
	o := openOutbox(t)
	putFills(t, o, 1)
	require.NoError(t, o.MarkSent(1))

	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndSucceed()
	b := New(o, kafka.NewSaramaPublisherFromProducer(mp, "fills"), Config{}, nil, nil)

	n, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, exitwal.StateAcked, state(t, o, 1))
	require.NoError(t, b.Close())
}

func TestBadPayloadIsParked(t *testing.T) {
	o := openOutbox(t)
	require.NoError(t, o.PutNew(exitwal.Entry{ID: 1, Payload: []byte{0xff}}))

	mp := mocks.NewSyncProducer(t, nil)
	b := New(o, kafka.NewSaramaPublisherFromProducer(mp, "fills"), Config{}, nil, nil)

	n, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, exitwal.StateFailed, state(t, o, 1))
	require.NoError(t, b.Close())
}

func TestRunStopsOnCancel(t *testing.T) {
	o := openOutbox(t)
	mp := mocks.NewSyncProducer(t, nil)
	b := New(o, kafka.NewSaramaPublisherFromProducer(mp, "fills"), Config{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, b.Run(ctx))
	require.NoError(t, b.Close())
}
