package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"lltree/domain/orderbook"
	"lltree/infra/codec"
	"lltree/infra/memory"
	"lltree/infra/metrics"
	"lltree/infra/sequence"
	entrywal "lltree/infra/wal/entry"
	exitwal "lltree/infra/wal/exit"
	"lltree/snapshot"
)

// Deps are the collaborators of an OrderService. WAL and Outbox may be nil
// for a purely in-memory engine.
type Deps struct {
	WAL     *entrywal.WAL
	Outbox  *exitwal.Outbox
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// RetireRingSize must be a power of two. Zero means 1<<16.
	RetireRingSize uint64
	// VerifyEachCommand runs the tree invariant checks after every command.
	VerifyEachCommand bool
}

/*
OrderService is the ONLY write entry point into the system.

Commands are serialized by mu. Each command runs inside the writer's own
epoch so nothing it retires can be reclaimed while it is still reading it.
*/
type OrderService struct {
	mu     sync.Mutex
	book   *orderbook.OrderBook
	alloc  *pooledAllocator
	domain *memory.Domain
	writer *memory.ReaderEpoch
	reader *snapshot.Reader

	reclaimMu sync.Mutex
	ring      *memory.RetireRing

	seqGen  *sequence.Sequencer
	fillSeq *sequence.Sequencer

	entryWAL *entrywal.WAL
	outbox   *exitwal.Outbox
	metrics  *metrics.Metrics
	log      *slog.Logger
	verify   bool
}

func NewOrderService(deps Deps) (*OrderService, error) {
	if deps.RetireRingSize == 0 {
		deps.RetireRingSize = 1 << 16
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	ring, err := memory.NewRetireRing(deps.RetireRingSize)
	if err != nil {
		return nil, err
	}

	domain := memory.NewDomain()
	alloc := newPooledAllocator(domain, ring, deps.Metrics)
	return &OrderService{
		book:     orderbook.NewOrderBook(alloc),
		alloc:    alloc,
		domain:   domain,
		writer:   domain.Register(),
		reader:   snapshot.NewReader(domain),
		ring:     ring,
		seqGen:   sequence.New(0),
		fillSeq:  sequence.New(0),
		entryWAL: deps.WAL,
		outbox:   deps.Outbox,
		metrics:  deps.Metrics,
		log:      deps.Logger.With("component", "order_service"),
		verify:   deps.VerifyEachCommand,
	}, nil
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

type PlaceRequest struct {
	Side  orderbook.Side
	Type  orderbook.OrderType
	Price int64
	Qty   int64
}

type PlaceResult struct {
	Seq       uint64
	OrderID   uint64
	Status    orderbook.Status
	Filled    int64
	Remaining int64
	Fills     []orderbook.Fill
}

// PlaceOrder logs and executes a new order. The order id is the command's
// sequence number.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceRequest) (PlaceResult, error) {
	if err := ctx.Err(); err != nil {
		return PlaceResult{}, err
	}
	if err := validate(req); err != nil {
		s.metrics.ObserveReject(rejectReason(err))
		return PlaceResult{}, err
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Enter()
	defer s.writer.Exit()

	seq := s.seqGen.Next()
	cmd := codec.Place{
		OrderID: seq,
		Side:    uint8(req.Side),
		Type:    uint8(req.Type),
		Price:   req.Price,
		Qty:     req.Qty,
	}
	rec := entrywal.NewRecord(entrywal.RecordPlace, seq, cmd.Marshal())
	if err := s.appendWAL(rec); err != nil {
		return PlaceResult{}, err
	}

	res, err := s.applyPlace(seq, cmd, rec.Time)
	if err != nil {
		s.metrics.ObserveReject(rejectReason(err))
		s.log.Debug("order rejected", "seq", seq, "type", req.Type, "err", err)
		return res, err
	}

	s.afterCommand()
	s.metrics.ObservePlace(req.Type.String(), len(res.Fills), res.Filled, time.Since(start).Seconds())
	s.log.Debug("order placed",
		"seq", seq, "side", req.Side, "type", req.Type, "price", req.Price,
		"qty", req.Qty, "fills", len(res.Fills), "status", res.Status)
	return res, nil
}

func validate(req PlaceRequest) error {
	if req.Qty <= 0 {
		return orderbook.ErrInvalidQuantity
	}
	if req.Type != orderbook.Market && req.Price <= 0 {
		return orderbook.ErrInvalidPrice
	}
	if req.Side != orderbook.Bid && req.Side != orderbook.Ask {
		return errors.Newf("unknown side %d", req.Side)
	}
	if req.Type < orderbook.Limit || req.Type > orderbook.PostOnly {
		return errors.Newf("unknown order type %d", req.Type)
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, orderbook.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, orderbook.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, orderbook.ErrPostOnlyWouldCross):
		return "post_only_would_cross"
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return "duplicate_order"
	default:
		return "other"
	}
}

func (s *OrderService) appendWAL(rec *entrywal.Record) error {
	if s.entryWAL == nil {
		return nil
	}
	if err := s.entryWAL.Append(rec); err != nil {
		s.log.Error("wal append failed", "seq", rec.Seq, "type", rec.Type, "err", err)
		return err
	}
	return nil
}

// applyPlace runs a logged place command. It is shared by live traffic and
// WAL replay, so it must depend only on the command and the book.
func (s *OrderService) applyPlace(seq uint64, cmd codec.Place, at int64) (PlaceResult, error) {
	o := s.alloc.NewOrder()
	*o = orderbook.Order{
		ID:    cmd.OrderID,
		SeqID: seq,
		Side:  orderbook.Side(cmd.Side),
		Type:  orderbook.OrderType(cmd.Type),
		Price: cmd.Price,
		Qty:   cmd.Qty,
	}
	fills, err := s.book.Place(o)
	res := PlaceResult{
		Seq:       seq,
		OrderID:   o.ID,
		Status:    o.Status,
		Filled:    o.Filled,
		Remaining: o.Remaining(),
		Fills:     fills,
	}
	if err != nil {
		return res, err
	}
	s.recordFills(fills, at)
	return res, nil
}

// recordFills assigns fill ids and stores the fills as NEW. A failed write
// is logged, not returned: the command is already applied and replaying
// the WAL regenerates the same fills under the same ids.
func (s *OrderService) recordFills(fills []orderbook.Fill, at int64) {
	if len(fills) == 0 {
		return
	}
	entries := make([]exitwal.Entry, len(fills))
	for i, f := range fills {
		id := s.fillSeq.Next()
		entries[i] = exitwal.Entry{ID: id, Payload: codec.Fill{
			ID:        id,
			Seq:       f.SeqID,
			TakerID:   f.TakerID,
			MakerID:   f.MakerID,
			TakerSide: uint8(f.TakerSide),
			Price:     f.Price,
			Qty:       f.Qty,
			Time:      at,
		}.Marshal()}
	}
	if s.outbox == nil {
		return
	}
	if err := s.outbox.PutNew(entries...); err != nil {
		s.log.Error("outbox write failed", "first_fill_id", entries[0].ID, "count", len(entries), "err", err)
	}
}

// CancelOrder removes a resting order and returns its final state.
func (s *OrderService) CancelOrder(ctx context.Context, id uint64) (OrderView, error) {
	if err := ctx.Err(); err != nil {
		return OrderView{}, err
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Enter()
	defer s.writer.Exit()

	// Unknown ids are refused before they reach the log.
	if _, ok := s.book.Order(id); !ok {
		return OrderView{}, errors.Wrapf(orderbook.ErrUnknownOrder, "order %d", id)
	}

	seq := s.seqGen.Next()
	rec := entrywal.NewRecord(entrywal.RecordCancel, seq, codec.Cancel{OrderID: id}.Marshal())
	if err := s.appendWAL(rec); err != nil {
		return OrderView{}, err
	}

	view, err := s.applyCancel(id)
	if err != nil {
		return OrderView{}, err
	}
	s.afterCommand()
	s.metrics.ObserveCancel(time.Since(start).Seconds())
	s.log.Debug("order cancelled", "seq", seq, "order_id", id)
	return view, nil
}

func (s *OrderService) applyCancel(id uint64) (OrderView, error) {
	o, err := s.book.Cancel(id)
	if err != nil {
		return OrderView{}, err
	}
	return viewOf(o), nil
}

func (s *OrderService) afterCommand() {
	s.metrics.SetBook(s.book.Levels(orderbook.Bid), s.book.Levels(orderbook.Ask), s.book.Resting())
	if !s.verify {
		return
	}
	if err := s.book.Verify(); err != nil {
		s.log.Error("book invariant check failed", "seq", s.seqGen.Current(), "err", err)
	}
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// OrderView is a copy of a resting order.
type OrderView struct {
	ID     uint64
	SeqID  uint64
	Side   orderbook.Side
	Type   orderbook.OrderType
	Status orderbook.Status
	Price  int64
	Qty    int64
	Filled int64
}

func viewOf(o *orderbook.Order) OrderView {
	return OrderView{
		ID:     o.ID,
		SeqID:  o.SeqID,
		Side:   o.Side,
		Type:   o.Type,
		Status: o.Status,
		Price:  o.Price,
		Qty:    o.Qty,
		Filled: o.Filled,
	}
}

// Snapshot returns copies of all resting orders, bids best first then
// asks best first.
func (s *OrderService) Snapshot() []OrderView {
	s.reader.Begin()
	defer s.reader.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OrderView, 0, s.book.Resting())
	add := func(lvl *orderbook.PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if o.Status == orderbook.Active {
				out = append(out, viewOf(o))
			}
		}
	}
	s.book.BidsWalk(add)
	s.book.AsksWalk(add)
	return out
}

// Depth returns up to n aggregated levels of one side, best first.
func (s *OrderService) Depth(side orderbook.Side, n int) []orderbook.LevelView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Depth(side, n)
}

// Order returns a resting order by id.
func (s *OrderService) Order(id uint64) (OrderView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.book.Order(id)
	if !ok {
		return OrderView{}, false
	}
	return viewOf(o), true
}

// Stats summarizes the engine state.
type Stats struct {
	Seq       uint64
	FillSeq   uint64
	BidLevels int
	AskLevels int
	Resting   int
	Retired   int
}

func (s *OrderService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Seq:       s.seqGen.Current(),
		FillSeq:   s.fillSeq.Current(),
		BidLevels: s.book.Levels(orderbook.Bid),
		AskLevels: s.book.Levels(orderbook.Ask),
		Resting:   s.book.Resting(),
		Retired:   s.ring.Len(),
	}
}

// Verify checks the invariants of both price ladders.
func (s *OrderService) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Verify()
}

//
// ──────────────────────────────────────────────────────────
// Reclamation
// ──────────────────────────────────────────────────────────
//

// AdvanceEpoch performs safe reclamation and returns how many objects went
// back to their pools. Intended to be called periodically by a background
// job.
func (s *OrderService) AdvanceEpoch() int {
	s.reclaimMu.Lock()
	defer s.reclaimMu.Unlock()

	n := s.domain.AdvanceAndReclaim(s.ring, s.alloc)
	s.metrics.AddReclaimed(n)
	return n
}
