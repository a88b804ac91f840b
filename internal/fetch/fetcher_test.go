package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTenantNoTenantSettlesEmpty(t *testing.T) {
	calls := 0
	f := NewFetcher("things", func(context.Context) ([]string, error) {
		calls++
		return []string{"never"}, nil
	}, Options{})

	f.SetTenant(context.Background(), "")

	snap := f.Snapshot()
	assert.Empty(t, snap.Items)
	assert.NotNil(t, snap.Items)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	assert.Zero(t, calls, "no network call for an absent tenant")
}

func TestSetTenantFetchesAsync(t *testing.T) {
	f := NewFetcher("things", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, Options{})

	f.SetTenant(context.Background(), "t1")

	assert.Eventually(t, func() bool {
		snap := f.Snapshot()
		return !snap.Loading && len(snap.Items) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshSynchronous(t *testing.T) {
	f := NewFetcher("things", func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	}, Options{})

	// Point at a tenant first without racing the async fetch against Refresh.
	f.SetTenant(context.Background(), "t1")
	require.Eventually(t, func() bool { return !f.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.Refresh(context.Background()))
	snap := f.Snapshot()
	assert.Equal(t, []int{1, 2, 3}, snap.Items)
	assert.False(t, snap.Loading)
}

func TestRefreshWithoutTenantIsNoop(t *testing.T) {
	calls := 0
	f := NewFetcher("things", func(context.Context) ([]string, error) {
		calls++
		return nil, errors.New("unreachable")
	}, Options{})

	require.NoError(t, f.Refresh(context.Background()))
	assert.Zero(t, calls)
	assert.Empty(t, f.Snapshot().Items)
}

func TestErrorPreservesLastItems(t *testing.T) {
	var failing bool
	var mu sync.Mutex
	f := NewFetcher("things", func(context.Context) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return nil, errors.New("backend down")
		}
		return []string{"kept"}, nil
	}, Options{})

	f.SetTenant(context.Background(), "t1")
	require.Eventually(t, func() bool { return len(f.Snapshot().Items) == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	failing = true
	mu.Unlock()

	require.Error(t, f.Refresh(context.Background()))
	snap := f.Snapshot()
	assert.Error(t, snap.Err)
	assert.Equal(t, []string{"kept"}, snap.Items, "last good data survives a failed refresh")

	mu.Lock()
	failing = false
	mu.Unlock()

	require.NoError(t, f.Refresh(context.Background()))
	assert.NoError(t, f.Snapshot().Err)
}

func TestStaleResponseDiscarded(t *testing.T) {
	// The first tenant's fetch is held open until the second tenant's fetch
	// has fully settled, forcing out-of-order completion.
	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	var mu sync.Mutex
	call := 0

	f := NewFetcher("things", func(context.Context) ([]string, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-firstRelease
			return []string{"tenant-a data"}, nil
		}
		return []string{"tenant-b data"}, nil
	}, Options{})

	ctx := context.Background()
	f.SetTenant(ctx, "a")
	<-firstStarted

	f.SetTenant(ctx, "b")
	require.Eventually(t, func() bool {
		snap := f.Snapshot()
		return !snap.Loading && len(snap.Items) == 1 && snap.Items[0] == "tenant-b data"
	}, time.Second, 5*time.Millisecond)

	close(firstRelease)

	// The late response for tenant A must never surface.
	time.Sleep(50 * time.Millisecond)
	snap := f.Snapshot()
	assert.Equal(t, []string{"tenant-b data"}, snap.Items)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

func TestStaleDiscardDoesNotNotify(t *testing.T) {
	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	var mu sync.Mutex
	call := 0

	f := NewFetcher("things", func(context.Context) ([]string, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-firstRelease
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	}, Options{})

	ctx := context.Background()
	f.SetTenant(ctx, "a")
	<-firstStarted
	f.SetTenant(ctx, "b")
	require.Eventually(t, func() bool {
		snap := f.Snapshot()
		return !snap.Loading && len(snap.Items) == 1
	}, time.Second, 5*time.Millisecond)

	var notifyMu sync.Mutex
	notified := 0
	f.Subscribe(func(Snapshot[string]) {
		notifyMu.Lock()
		notified++
		notifyMu.Unlock()
	})

	close(firstRelease)
	time.Sleep(50 * time.Millisecond)

	notifyMu.Lock()
	defer notifyMu.Unlock()
	assert.Equal(t, 1, notified, "only the immediate subscription delivery, no stale notification")
}

func TestSubscribeImmediateDelivery(t *testing.T) {
	f := NewFetcher("things", func(context.Context) ([]string, error) {
		return nil, nil
	}, Options{})

	delivered := make(chan Snapshot[string], 1)
	f.Subscribe(func(s Snapshot[string]) {
		select {
		case delivered <- s:
		default:
		}
	})

	select {
	case snap := <-delivered:
		assert.False(t, snap.Loading)
	case <-time.After(time.Second):
		t.Fatal("no immediate delivery on subscribe")
	}
}
