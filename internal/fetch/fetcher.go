package fetch

import (
	"context"
	"sync"

	applog "finboard/internal/log"
	"finboard/internal/metrics"

	"github.com/google/uuid"
)

// Snapshot is the consumer-visible state of one resource fetcher.
type Snapshot[T any] struct {
	Items   []T
	Loading bool
	Err     error
}

// ListFunc retrieves the raw collection for the currently active tenant.
// Tenant scope is implicit in the server-side session; the fetcher's tenant
// identifier only decides when to refetch.
type ListFunc[T any] func(ctx context.Context) ([]T, error)

// Listener receives a snapshot after every fetcher state change.
type Listener[T any] func(Snapshot[T])

// Fetcher loads one resource collection per tenant. Every dispatch is tagged
// with a sequence number captured at dispatch time; a response whose tag no
// longer matches the latest dispatch is discarded, so the settled state
// always reflects the most recently requested tenant regardless of network
// completion order.
type Fetcher[T any] struct {
	resource string
	list     ListFunc[T]
	log      *applog.Logger
	meter    *metrics.Metrics

	mu        sync.Mutex
	seq       uint64
	tenantID  string
	snap      Snapshot[T]
	listeners []Listener[T]
}

// Options carries the optional collaborators. Meter may be nil.
type Options struct {
	Meter  *metrics.Metrics
	Logger *applog.Logger
}

func NewFetcher[T any](resource string, list ListFunc[T], opts Options) *Fetcher[T] {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentFetch)
	}
	return &Fetcher[T]{
		resource: resource,
		list:     list,
		log:      logger.With(applog.FieldResource, resource),
		meter:    opts.Meter,
	}
}

// SetTenant switches the fetcher to the given tenant identifier and triggers
// one fetch, superseding any in-flight one. An empty identifier means "no
// tenant": the fetcher settles immediately on an empty collection without a
// network call.
func (f *Fetcher[T]) SetTenant(ctx context.Context, tenantID string) {
	f.mu.Lock()
	f.seq++
	f.tenantID = tenantID
	if tenantID == "" {
		f.snap.Items = []T{}
		f.snap.Loading = false
		f.unlockAndNotify()
		return
	}
	tag := f.seq
	f.snap.Loading = true
	f.unlockAndNotify()

	go f.run(ctx, tag)
}

// Refresh re-fetches the current tenant's collection synchronously. It
// returns nil without fetching when no tenant is active, and nil when the
// result was superseded mid-flight.
func (f *Fetcher[T]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.tenantID == "" {
		f.snap.Items = []T{}
		f.snap.Loading = false
		f.unlockAndNotify()
		return nil
	}
	f.seq++
	tag := f.seq
	f.snap.Loading = true
	f.unlockAndNotify()

	return f.dispatch(ctx, tag)
}

// Snapshot returns the current consumer-visible state.
func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Subscribe registers a listener and immediately delivers the current state.
func (f *Fetcher[T]) Subscribe(fn Listener[T]) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	fn(snap)
}

func (f *Fetcher[T]) run(ctx context.Context, tag uint64) {
	_ = f.dispatch(ctx, tag)
}

func (f *Fetcher[T]) dispatch(ctx context.Context, tag uint64) error {
	reqID := uuid.NewString()
	if f.meter != nil {
		f.meter.Fetches.WithLabelValues(f.resource).Inc()
	}

	items, err := f.list(ctx)

	f.mu.Lock()
	if tag != f.seq {
		// A newer dispatch superseded this one; its result must not
		// overwrite state meant for the current tenant.
		f.mu.Unlock()
		if f.meter != nil {
			f.meter.StaleDiscards.WithLabelValues(f.resource).Inc()
		}
		f.log.DebugContext(ctx, "discarded stale response", applog.FieldRequestID, reqID)
		return nil
	}
	f.snap.Loading = false
	if err != nil {
		f.snap.Err = err
		f.unlockAndNotify()
		if f.meter != nil {
			f.meter.FetchErrors.WithLabelValues(f.resource).Inc()
		}
		f.log.WarnContext(ctx, "fetch failed",
			applog.FieldOperation, applog.OpFetch,
			applog.FieldRequestID, reqID,
			applog.FieldError, err)
		return err
	}
	f.snap.Items = items
	f.snap.Err = nil
	f.unlockAndNotify()
	f.log.DebugContext(ctx, "fetch done",
		applog.FieldOperation, applog.OpFetch,
		applog.FieldRequestID, reqID,
		applog.FieldCount, len(items))
	return nil
}

// unlockAndNotify releases the lock and delivers the resulting snapshot to
// all listeners. Must be called with the lock held.
func (f *Fetcher[T]) unlockAndNotify() {
	snap := f.snapshotLocked()
	listeners := append([]Listener[T](nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (f *Fetcher[T]) snapshotLocked() Snapshot[T] {
	snap := f.snap
	snap.Items = append([]T(nil), f.snap.Items...)
	return snap
}
