// Package broadcaster drains the fill outbox into Kafka.
package broadcaster

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"lltree/infra/codec"
	"lltree/infra/kafka"
	"lltree/infra/metrics"
	exitwal "lltree/infra/wal/exit"
)

// Outbox is the part of the fill outbox the broadcaster drives.
type Outbox interface {
	ScanPending(limit int, fn func(*exitwal.Record) error) error
	MarkSent(id uint64) error
	MarkAcked(id uint64) error
	MarkRetry(id uint64, maxRetries uint32) error
}

type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries uint32
}

type Broadcaster struct {
	outbox    Outbox
	publisher kafka.Publisher
	cfg       Config
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// Event is the JSON document published for every fill.
type Event struct {
	V         int    `json:"v"`
	Type      string `json:"type"`
	ID        uint64 `json:"id"`
	Seq       uint64 `json:"seq"`
	TakerID   uint64 `json:"taker_id"`
	MakerID   uint64 `json:"maker_id"`
	TakerSide string `json:"taker_side"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Time      int64  `json:"time"`
}

func New(outbox Outbox, publisher kafka.Publisher, cfg Config, m *metrics.Metrics, log *slog.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		log:       log.With("component", "broadcaster"),
	}
}

// Run publishes on every tick until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.Info("started", "interval", b.cfg.Interval, "batch", b.cfg.BatchSize)
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return nil
		case <-ticker.C:
			if _, err := b.RunOnce(ctx); err != nil && ctx.Err() == nil {
				b.log.Warn("publish round failed", "err", err)
			}
		}
	}
}

// RunOnce publishes one batch of pending fills and returns how many were
// acknowledged.
func (b *Broadcaster) RunOnce(ctx context.Context) (int, error) {
	var (
		ids  []uint64
		msgs []kafka.Message
	)
	err := b.outbox.ScanPending(b.cfg.BatchSize, func(rec *exitwal.Record) error {
		msg, err := encodeEvent(rec)
		if err != nil {
			// An undecodable payload will never publish; park it.
			b.log.Error("bad fill payload", "fill_id", rec.ID, "err", err)
			return b.outbox.MarkRetry(rec.ID, 1)
		}
		ids = append(ids, rec.ID)
		msgs = append(msgs, msg)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "broadcaster: scan")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	for _, id := range ids {
		if err := b.outbox.MarkSent(id); err != nil {
			return 0, errors.Wrapf(err, "broadcaster: mark sent %d", id)
		}
	}

	if err := b.publisher.Publish(ctx, msgs...); err != nil {
		b.metrics.IncPublishErrors()
		for _, id := range ids {
			if rerr := b.outbox.MarkRetry(id, b.cfg.MaxRetries); rerr != nil {
				return 0, errors.CombineErrors(err, rerr)
			}
		}
		return 0, errors.Wrap(err, "broadcaster: publish")
	}

	for _, id := range ids {
		if err := b.outbox.MarkAcked(id); err != nil {
			return 0, errors.Wrapf(err, "broadcaster: mark acked %d", id)
		}
	}
	b.metrics.AddPublished(len(ids))
	b.log.Debug("published fills", "count", len(ids), "first_id", ids[0])
	return len(ids), nil
}

func encodeEvent(rec *exitwal.Record) (kafka.Message, error) {
	var f codec.Fill
	if err := f.Unmarshal(rec.Payload); err != nil {
		return kafka.Message{}, err
	}
	side := "bid"
	if f.TakerSide == 1 {
		side = "ask"
	}
	value, err := json.Marshal(Event{
		V:         1,
		Type:      "fill",
		ID:        rec.ID,
		Seq:       f.Seq,
		TakerID:   f.TakerID,
		MakerID:   f.MakerID,
		TakerSide: side,
		Price:     f.Price,
		Qty:       f.Qty,
		Time:      f.Time,
	})
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode event")
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(f.TakerID, 10)),
		Value: value,
	}, nil
}

// Close closes the publisher.
func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}
