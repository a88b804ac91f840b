package session

import (
	"context"
	"sync"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/events"
	applog "finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/store"
)

// TenantAPI is the slice of the remote client the session manager needs.
type TenantAPI interface {
	ListTenants(ctx context.Context) ([]core.Tenant, error)
	SelectTenant(ctx context.Context, tenantID string) error
}

// Snapshot is an immutable view of the session state. Selected, when
// non-nil, always references a roster entry by TenantID.
type Snapshot struct {
	Roster   []core.Tenant
	Selected *core.Tenant
	Loading  bool
	Err      error
}

// Listener receives a snapshot after every session state change. Listeners
// are invoked outside the manager's lock and may read the manager freely.
type Listener func(Snapshot)

// Manager owns the current tenant selection and the tenant roster. It is the
// single writer of session state; consumers read snapshots or subscribe. A
// second RefreshRoster or SelectTenant while one is in flight is rejected
// with api.ErrBusy rather than queued.
type Manager struct {
	api    TenantAPI
	store  store.SelectionStore
	events *events.Publisher
	meter  *metrics.Metrics
	log    *applog.Logger

	mu        sync.Mutex
	roster    []core.Tenant
	selected  *core.Tenant
	loading   bool
	err       error
	inFlight  bool
	listeners []Listener
}

// Options carries the optional collaborators. Events and Meter may be nil.
type Options struct {
	Events *events.Publisher
	Meter  *metrics.Metrics
	Logger *applog.Logger
}

func NewManager(tenantAPI TenantAPI, selectionStore store.SelectionStore, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentSession)
	}
	return &Manager{
		api:    tenantAPI,
		store:  selectionStore,
		events: opts.Events,
		meter:  opts.Meter,
		log:    logger,
	}
}

// Initialize seeds the roster and restores the persisted selection when it
// still matches a roster entry by TenantID; otherwise the first roster entry
// (or nothing) is selected. A failing selection store degrades to the
// default selection.
func (m *Manager) Initialize(ctx context.Context, initialRoster []core.Tenant) {
	saved, err := m.store.Load(ctx)
	if err != nil {
		m.log.WarnContext(ctx, "could not restore persisted selection",
			applog.FieldOperation, applog.OpInitialize, applog.FieldError, err)
		saved = nil
	}

	m.mu.Lock()
	m.roster = append([]core.Tenant(nil), initialRoster...)
	m.selected = nil
	if saved != nil {
		m.selected = findTenant(m.roster, saved.TenantID)
	}
	if m.selected == nil && len(m.roster) > 0 {
		m.selected = &m.roster[0]
	}
	m.unlockAndNotify()
}

// RefreshRoster fetches the authoritative roster and reconciles the current
// selection against it. On failure the previous roster and selection are
// left untouched and the session error is set; replacement is all-or-nothing.
func (m *Manager) RefreshRoster(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	tenants, err := m.api.ListTenants(ctx)
	if err != nil {
		m.fail(err)
		m.log.WarnContext(ctx, "roster refresh failed",
			applog.FieldOperation, applog.OpRefreshRoster, applog.FieldError, err)
		return err
	}

	m.mu.Lock()
	m.inFlight = false
	m.loading = false
	m.roster = tenants
	invalidated := false
	if m.selected != nil && findTenant(m.roster, m.selected.TenantID) == nil {
		invalidated = true
		m.selected = nil
	}
	if m.selected == nil {
		if len(m.roster) > 0 {
			m.selected = &m.roster[0]
		}
	} else {
		// Re-point at the refreshed roster entry so names stay current.
		m.selected = findTenant(m.roster, m.selected.TenantID)
	}
	size := len(m.roster)
	if m.meter != nil {
		m.meter.RosterRefreshes.Inc()
	}
	m.unlockAndNotify()

	if invalidated {
		if err := m.store.Clear(ctx); err != nil {
			m.log.WarnContext(ctx, "could not clear persisted selection",
				applog.FieldOperation, applog.OpClear, applog.FieldError, err)
		}
	}
	if err := m.events.Publish(ctx, events.NewRosterRefreshed(size)); err != nil {
		m.log.WarnContext(ctx, "could not publish roster event",
			applog.FieldOperation, applog.OpPublish, applog.FieldError, err)
	}
	m.log.InfoContext(ctx, "roster refreshed",
		applog.FieldOperation, applog.OpRefreshRoster, applog.FieldCount, size)
	return nil
}

// SelectTenant asks the server to activate the tenant for this session.
// Only an acknowledged switch updates and persists the selection; on
// rejection the previous selection stands and the session error carries the
// server's message.
func (m *Manager) SelectTenant(ctx context.Context, tenant core.Tenant) error {
	if err := m.begin(); err != nil {
		return err
	}

	if err := m.api.SelectTenant(ctx, tenant.TenantID); err != nil {
		m.fail(err)
		m.log.WarnContext(ctx, "tenant switch rejected",
			applog.FieldOperation, applog.OpSelectTenant,
			applog.FieldTenantID, tenant.TenantID,
			applog.FieldError, err)
		return err
	}

	m.mu.Lock()
	m.inFlight = false
	m.loading = false
	t := tenant
	m.selected = &t
	if m.meter != nil {
		m.meter.TenantSwitches.Inc()
	}
	m.unlockAndNotify()

	if err := m.store.Save(ctx, tenant); err != nil {
		m.log.WarnContext(ctx, "could not persist selection",
			applog.FieldOperation, applog.OpPersist,
			applog.FieldTenantID, tenant.TenantID,
			applog.FieldError, err)
	}
	if err := m.events.Publish(ctx, events.NewTenantSelected(tenant.TenantID, tenant.TenantName)); err != nil {
		m.log.WarnContext(ctx, "could not publish selection event",
			applog.FieldOperation, applog.OpPublish, applog.FieldError, err)
	}
	m.log.InfoContext(ctx, "tenant selected",
		applog.FieldOperation, applog.OpSelectTenant,
		applog.FieldTenantID, tenant.TenantID,
		applog.FieldTenantName, tenant.TenantName)
	return nil
}

// ResetError clears the session error without other side effects.
func (m *Manager) ResetError() {
	m.mu.Lock()
	m.err = nil
	m.unlockAndNotify()
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a listener and immediately delivers the current state.
func (m *Manager) Subscribe(fn Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	fn(snap)
}

// begin marks an operation as in flight, rejecting overlap.
func (m *Manager) begin() error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return api.ErrBusy
	}
	m.inFlight = true
	m.loading = true
	m.err = nil
	m.unlockAndNotify()
	return nil
}

// fail records an operation failure, leaving roster and selection untouched.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.inFlight = false
	m.loading = false
	m.err = err
	if m.meter != nil {
		m.meter.SessionErrors.Inc()
	}
	m.unlockAndNotify()
}

// unlockAndNotify releases the lock and delivers the resulting snapshot to
// all listeners. Must be called with the lock held.
func (m *Manager) unlockAndNotify() {
	snap := m.snapshotLocked()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		Roster:  append([]core.Tenant(nil), m.roster...),
		Loading: m.loading,
		Err:     m.err,
	}
	if m.selected != nil {
		t := *m.selected
		snap.Selected = &t
	}
	return snap
}

func findTenant(roster []core.Tenant, tenantID string) *core.Tenant {
	for i := range roster {
		if roster[i].TenantID == tenantID {
			return &roster[i]
		}
	}
	return nil
}
