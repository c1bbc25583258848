package audit

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultReadConcurrency bounds the number of shards fetched at once
const DefaultReadConcurrency = 4

// Shard read outcomes reported to a ShardObserver
const (
	ShardStatusOK       = "ok"
	ShardStatusNotFound = "not_found"
	ShardStatusError    = "error"
)

// ShardObserver receives one callback per shard fetched by a Reader
type ShardObserver interface {
	ObserveShardRead(backend, status string)
}

// ShardReadError reports a shard that exists but could not be read
type ShardReadError struct {
	Period Period
	Err    error
}

func (e *ShardReadError) Error() string {
	return fmt.Sprintf("failed to read audit shard %s: %v", e.Period, e.Err)
}

func (e *ShardReadError) Unwrap() error {
	return e.Err
}

// ReaderConfig configures a Reader
type ReaderConfig struct {
	Concurrency int           // Max shards fetched in parallel (default: 4)
	Observer    ShardObserver // Optional
}

// Reader merges the monthly shards overlapping a time window into one ordered stream
type Reader struct {
	store       ShardStore
	backend     string
	concurrency int
	observer    ShardObserver
}

// NewReader creates a reader over store
func NewReader(store ShardStore, config ReaderConfig) *Reader {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultReadConcurrency
	}
	return &Reader{
		store:       store,
		backend:     BackendName(store),
		concurrency: config.Concurrency,
		observer:    config.Observer,
	}
}

// Read returns an iterator over the events in [start, start+duration) in
// non-decreasing timestamp order. Events with equal timestamps keep shard order,
// then their order inside the shard. A non-positive duration yields no events.
func (r *Reader) Read(ctx context.Context, start time.Time, duration time.Duration) (*Iterator, error) {
	start = start.UTC()
	end := start.Add(duration)
	periods := PeriodsOverlapping(start, end)

	ctx, span := tracer.Start(ctx, "Reader.Read",
		trace.WithAttributes(
			attribute.String("audit.backend", r.backend),
			attribute.String("audit.start", start.Format(time.RFC3339)),
			attribute.String("audit.end", end.Format(time.RFC3339)),
			attribute.Int("audit.shards", len(periods)),
		),
	)
	defer span.End()

	shards := make([][]Event, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, p := range periods {
		g.Go(func() error {
			events, err := r.store.ReadShard(gctx, p)
			switch {
			case err == nil:
				r.observe(ShardStatusOK)
			case errors.Is(err, ErrShardNotFound):
				r.observe(ShardStatusNotFound)
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				r.observe(ShardStatusError)
				return &ShardReadError{Period: p, Err: err}
			}
			shards[i] = inWindow(events, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read audit shards")
		return nil, err
	}

	it := newIterator(shards)
	span.SetAttributes(attribute.Int("audit.events", it.remaining))
	span.SetStatus(codes.Ok, "audit shards read")
	return it, nil
}

// ReadAll reads the window into a slice
func (r *Reader) ReadAll(ctx context.Context, start time.Time, duration time.Duration) ([]Event, error) {
	it, err := r.Read(ctx, start, duration)
	if err != nil {
		return nil, err
	}
	return it.Collect(), nil
}

func (r *Reader) observe(status string) {
	if r.observer != nil {
		r.observer.ObserveShardRead(r.backend, status)
	}
}

// inWindow keeps events in [start, end), stably sorted by timestamp
func inWindow(events []Event, start, end time.Time) []Event {
	kept := events[:0:0]
	for _, e := range events {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})
	return kept
}

// Iterator yields merged events. It is not safe for concurrent use.
type Iterator struct {
	shards    [][]Event
	h         cursorHeap
	remaining int
}

type cursor struct {
	shard int
	pos   int
}

func newIterator(shards [][]Event) *Iterator {
	it := &Iterator{shards: shards}
	for i, s := range shards {
		it.remaining += len(s)
		if len(s) > 0 {
			it.h.items = append(it.h.items, cursor{shard: i})
		}
	}
	it.h.shards = shards
	heap.Init(&it.h)
	return it
}

// Next returns the next event, or false once the stream is exhausted
func (it *Iterator) Next() (Event, bool) {
	if it.h.Len() == 0 {
		return Event{}, false
	}
	top := it.h.items[0]
	e := it.shards[top.shard][top.pos]
	if top.pos+1 < len(it.shards[top.shard]) {
		it.h.items[0].pos++
		heap.Fix(&it.h, 0)
	} else {
		heap.Pop(&it.h)
	}
	it.remaining--
	return e, true
}

// Len returns the number of events not yet yielded
func (it *Iterator) Len() int {
	return it.remaining
}

// Collect drains the iterator into a slice
func (it *Iterator) Collect() []Event {
	events := make([]Event, 0, it.remaining)
	for {
		e, ok := it.Next()
		if !ok {
			return events
		}
		events = append(events, e)
	}
}

type cursorHeap struct {
	shards [][]Event
	items  []cursor
}

func (h *cursorHeap) Len() int { return len(h.items) }

func (h *cursorHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	ta := h.shards[a.shard][a.pos].Timestamp
	tb := h.shards[b.shard][b.pos].Timestamp
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.shard < b.shard
}

func (h *cursorHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *cursorHeap) Push(x any) { h.items = append(h.items, x.(cursor)) }

func (h *cursorHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
