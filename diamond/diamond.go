package diamond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/auraprotocol/diamond/ulid"
)

// snapshot is one published registry state. It is never modified.
type snapshot struct {
	table *Table
	owner Address
	seq   uint64
}

// Diamond is the registry: the routing table, its owner and the cut
// protocol. The zero value is not usable; create one with Open.
//
// Readers (Loupe, Resolve, Owner, Dispatch) load the current snapshot
// without locking. Changes are serialized by mu for the whole
// authorize, validate, init, persist and publish sequence. Notifiers are
// called outside that lock from one goroutine each.
type Diamond struct {
	mu  sync.Mutex
	cur atomic.Pointer[snapshot]

	genesisOwner Address
	store        Store
	invoker      Invoker
	notifiers    []Notifier
	queues       []*notifyQueue
	closeOnce    sync.Once
	metrics      *Metrics
	log          *slog.Logger
	now          func() time.Time
}

// Option configures a Diamond.
type Option func(*Diamond)

// WithOwner sets the owner of a registry that has no persisted state.
func WithOwner(owner Address) Option {
	return func(d *Diamond) { d.genesisOwner = owner }
}

// WithStore persists every committed record and restores state on Open.
func WithStore(s Store) Option {
	return func(d *Diamond) { d.store = s }
}

// WithInvoker sets the collaborator executing init calls and dispatches.
func WithInvoker(inv Invoker) Option {
	return func(d *Diamond) { d.invoker = inv }
}

// WithNotifier adds a receiver of committed records.
func WithNotifier(n Notifier) Option {
	return func(d *Diamond) { d.notifiers = append(d.notifiers, n) }
}

// WithMetrics records registry metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *Diamond) { d.metrics = m }
}

// WithLogger overrides the logger taken from the Open context.
func WithLogger(log *slog.Logger) Option {
	return func(d *Diamond) { d.log = log }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Diamond) { d.now = now }
}

// Open creates a registry. With a store that holds state, the owner,
// sequence and table are restored from it; otherwise the registry starts
// empty and owned by the WithOwner address.
func Open(ctx context.Context, opts ...Option) (*Diamond, error) {
	d := &Diamond{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.FromContext(ctx)
	}

	snap := &snapshot{table: NewTable(), owner: d.genesisOwner}

	if d.store != nil {
		state, err := d.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load registry state: %w", err)
		}
		if state != nil {
			t, err := TableFromFacets(state.Facets)
			if err != nil {
				return nil, fmt.Errorf("restore registry state: %w", err)
			}
			if !d.genesisOwner.IsZero() && d.genesisOwner != state.Owner {
				d.log.WarnContext(ctx, "ignoring configured owner, store has an owner",
					"configured", d.genesisOwner, "stored", state.Owner)
			}
			snap = &snapshot{table: t, owner: state.Owner, seq: state.Seq}
		}
	}

	if snap.owner.IsZero() {
		return nil, &CutError{Kind: KindNullOwner, Op: -1}
	}

	d.cur.Store(snap)
	d.updateGauges(snap)

	for _, n := range d.notifiers {
		d.queues = append(d.queues, newNotifyQueue(n))
	}

	d.log.InfoContext(ctx, "registry ready",
		"owner", snap.owner,
		"seq", snap.seq,
		"facets", snap.table.FacetCount(),
		"selectors", snap.table.Len())

	return d, nil
}

// Close waits for queued notifications to be delivered. Records committed
// after Close are not sent to notifiers.
func (d *Diamond) Close() {
	d.closeOnce.Do(func() {
		for _, q := range d.queues {
			q.close()
		}
	})
}

// Loupe returns a view of the latest committed table.
func (d *Diamond) Loupe() Loupe {
	return NewLoupe(d.cur.Load().table)
}

// Resolve returns the facet a selector currently routes to.
func (d *Diamond) Resolve(s Selector) (Address, bool) {
	return d.cur.Load().table.Resolve(s)
}

// Owner returns the current owner.
func (d *Diamond) Owner() Address {
	return d.cur.Load().owner
}

// Seq returns the sequence number of the last committed record.
func (d *Diamond) Seq() uint64 {
	return d.cur.Load().seq
}

// History returns recent records when the store keeps them.
func (d *Diamond) History(ctx context.Context, limit int) ([]*Record, error) {
	hs, ok := d.store.(HistoryStore)
	if !ok {
		return nil, nil
	}
	return hs.History(ctx, limit)
}

// SubmitCut applies batch on behalf of caller. On success the returned
// record describes the committed change; on error nothing changed.
func (d *Diamond) SubmitCut(ctx context.Context, caller Address, batch Batch) (*Record, error) {
	ctx, span := tracing.Start(ctx, "diamond.SubmitCut",
		trace.WithAttributes(
			attribute.String("caller", caller.String()),
			attribute.Int("cuts", len(batch.Cuts)),
			attribute.Bool("init", batch.Init != nil),
		),
	)
	defer span.End()

	if inInit(ctx) {
		err := &CutError{Kind: KindNestedCut, Op: -1}
		span.RecordError(err)
		d.countCut(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.cur.Load()

	rec, next, err := d.stageCut(ctx, cur, caller, batch)
	if err != nil {
		span.RecordError(err)
		d.countCut(err)
		d.log.InfoContext(ctx, "cut rejected", "caller", caller, "cuts", len(batch.Cuts), "err", err)
		return nil, err
	}

	d.publish(ctx, rec, next)
	d.countCut(nil)

	d.log.InfoContext(ctx, "cut committed",
		"id", rec.ID,
		"seq", rec.Seq,
		"caller", caller,
		"cuts", len(batch.Cuts),
		"init", batch.Init != nil,
		"facets", next.table.FacetCount(),
		"selectors", next.table.Len())

	return rec, nil
}

func (d *Diamond) stageCut(ctx context.Context, cur *snapshot, caller Address, batch Batch) (*Record, *snapshot, error) {
	if err := Authorize(caller, cur.owner); err != nil {
		return nil, nil, err
	}

	staged, err := Process(cur.table, batch)
	if err != nil {
		return nil, nil, err
	}

	if err := d.runInit(ctx, batch.Init, staged); err != nil {
		return nil, nil, err
	}

	next := &snapshot{table: staged, owner: cur.owner, seq: cur.seq + 1}
	rec, err := d.newRecord(RecordCut, caller, next)
	if err != nil {
		return nil, nil, err
	}
	rec.Cuts = cloneCuts(batch.Cuts)
	if batch.Init != nil {
		call := *batch.Init
		call.Calldata = slices.Clone(call.Calldata)
		rec.Init = &call
	}

	if err := d.commit(ctx, rec); err != nil {
		return nil, nil, err
	}
	return rec, next, nil
}

// TransferOwnership hands the registry to newOwner. Only the current owner
// may call it.
func (d *Diamond) TransferOwnership(ctx context.Context, caller, newOwner Address) (*Record, error) {
	ctx, span := tracing.Start(ctx, "diamond.TransferOwnership")
	defer span.End()

	if inInit(ctx) {
		err := &CutError{Kind: KindNestedCut, Op: -1}
		span.RecordError(err)
		d.countOwnership(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.cur.Load()

	if err := checkTransfer(caller, cur.owner, newOwner); err != nil {
		span.RecordError(err)
		d.countOwnership(err)
		return nil, err
	}

	next := &snapshot{table: cur.table, owner: newOwner, seq: cur.seq + 1}
	rec, err := d.newRecord(RecordOwnership, caller, next)
	if err != nil {
		return nil, err
	}
	rec.PreviousOwner = cur.owner

	if err := d.commit(ctx, rec); err != nil {
		span.RecordError(err)
		d.countOwnership(err)
		return nil, err
	}

	d.publish(ctx, rec, next)
	d.countOwnership(nil)

	d.log.InfoContext(ctx, "ownership transferred",
		"id", rec.ID, "seq", rec.Seq, "from", cur.owner, "to", newOwner)

	return rec, nil
}

func (d *Diamond) newRecord(kind RecordKind, caller Address, next *snapshot) (*Record, error) {
	now := d.now()
	id, err := ulid.Make(now)
	if err != nil {
		return nil, fmt.Errorf("record id: %w", err)
	}
	return &Record{
		ID:     id,
		Seq:    next.seq,
		Kind:   kind,
		Caller: caller,
		Time:   now.UTC(),
		Owner:  next.owner,
		Facets: next.table.Facets(),
	}, nil
}

func (d *Diamond) commit(ctx context.Context, rec *Record) error {
	if d.store == nil {
		return nil
	}
	if err := d.store.Commit(ctx, rec); err != nil {
		d.log.ErrorContext(ctx, "could not persist record", "seq", rec.Seq, "kind", rec.Kind, "err", err)
		return &CutError{Kind: KindStoreFailed, Op: -1, Err: err}
	}
	return nil
}

// publish makes next visible to readers and queues rec for the notifiers;
// the caller holds d.mu, which keeps the queues in sequence order.
func (d *Diamond) publish(ctx context.Context, rec *Record, next *snapshot) {
	d.cur.Store(next)
	d.updateGauges(next)

	for _, q := range d.queues {
		q.push(ctx, rec)
	}
}

func cloneCuts(cuts []FacetCut) []FacetCut {
	if cuts == nil {
		return nil
	}
	out := make([]FacetCut, len(cuts))
	for i, c := range cuts {
		c.Selectors = slices.Clone(c.Selectors)
		out[i] = c
	}
	return out
}

func (d *Diamond) updateGauges(s *snapshot) {
	if d.metrics == nil {
		return
	}
	d.metrics.Selectors.Set(float64(s.table.Len()))
	d.metrics.Facets.Set(float64(s.table.FacetCount()))
	d.metrics.Seq.Set(float64(s.seq))
}

func (d *Diamond) countCut(err error) {
	if d.metrics != nil {
		d.metrics.Cuts.WithLabelValues(resultLabel(err)).Inc()
	}
}

func (d *Diamond) countOwnership(err error) {
	if d.metrics != nil {
		d.metrics.OwnershipTransfers.WithLabelValues(resultLabel(err)).Inc()
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var ce *CutError
	if errors.As(err, &ce) {
		return ce.Kind.String()
	}
	return "error"
}
