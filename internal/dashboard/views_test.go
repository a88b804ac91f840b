package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/session"
	"finboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend plays both the tenant and the finance side of the remote API.
// Resource responses depend on the tenant activated through SelectTenant,
// mirroring the server-side session scoping of the real service.
type fakeBackend struct {
	mu      sync.Mutex
	tenants []core.Tenant
	active  string

	contactsByTenant map[string][]core.Contact
	invoicesByTenant map[string][]core.Invoice
	bankTxsByTenant  map[string][]core.BankTransaction

	contactsErr error

	// When set, a contacts fetch for this tenant signals entry once and
	// blocks until released.
	slowTenant      string
	contactsEntered chan struct{}
	contactsRelease chan struct{}

	contactsCalls int
}

func (f *fakeBackend) ListTenants(context.Context) ([]core.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Tenant(nil), f.tenants...), nil
}

func (f *fakeBackend) SelectTenant(_ context.Context, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = tenantID
	return nil
}

func (f *fakeBackend) ListContacts(context.Context) ([]core.Contact, error) {
	f.mu.Lock()
	f.contactsCalls++
	active := f.active
	var entered, release chan struct{}
	if active == f.slowTenant && f.contactsEntered != nil {
		entered = f.contactsEntered
		release = f.contactsRelease
		f.contactsEntered = nil
	}
	err := f.contactsErr
	items := append([]core.Contact(nil), f.contactsByTenant[active]...)
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeBackend) ListInvoices(context.Context) ([]core.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Invoice(nil), f.invoicesByTenant[f.active]...), nil
}

func (f *fakeBackend) ListBankTransactions(context.Context) ([]core.BankTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.BankTransaction(nil), f.bankTxsByTenant[f.active]...), nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contactsCalls
}

var (
	orgA = core.Tenant{TenantID: "a", TenantName: "Acme"}
	orgB = core.Tenant{TenantID: "b", TenantName: "Globex"}
)

func activeContact() core.Contact {
	return core.Contact{Status: core.ContactStatusActive, IsCustomer: true}
}

func TestViewsFollowSelectedTenant(t *testing.T) {
	fake := &fakeBackend{
		tenants: []core.Tenant{orgA, orgB},
		contactsByTenant: map[string][]core.Contact{
			"a": {activeContact()},
			"b": {activeContact(), activeContact(), activeContact()},
		},
		invoicesByTenant: map[string][]core.Invoice{
			"a": {{Status: "PAID"}},
		},
		bankTxsByTenant: map[string][]core.BankTransaction{
			"a": {{IsReconciled: false, Date: "/Date(1700000000000)/"}},
		},
	}
	fake.active = "a"
	ctx := context.Background()

	sess := session.NewManager(fake, store.NewMemoryStore(), session.Options{})
	dash := New(sess, fake, Options{})
	sess.Initialize(ctx, []core.Tenant{orgA, orgB})

	require.Eventually(t, func() bool {
		summary, loading, err := dash.ContactsSummary()
		return !loading && err == nil && summary.Count == 1
	}, time.Second, 5*time.Millisecond)

	shares, _, err := dash.InvoiceDistribution()
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "PAID", shares[0].Status)

	recon, _, err := dash.Reconciliation()
	require.NoError(t, err)
	assert.Equal(t, 1, recon.UnreconciledCount)

	require.NoError(t, sess.SelectTenant(ctx, orgB))

	require.Eventually(t, func() bool {
		summary, loading, err := dash.ContactsSummary()
		return !loading && err == nil && summary.Count == 3
	}, time.Second, 5*time.Millisecond)
}

func TestSlowResponseForPreviousTenantDiscarded(t *testing.T) {
	// Tenant A's contacts call is held open across a switch to tenant B.
	// When it finally completes, its data must not clobber B's.
	fake := &fakeBackend{
		tenants: []core.Tenant{orgA, orgB},
		contactsByTenant: map[string][]core.Contact{
			"a": {activeContact()},
			"b": {activeContact(), activeContact()},
		},
		invoicesByTenant: map[string][]core.Invoice{},
		bankTxsByTenant:  map[string][]core.BankTransaction{},
		slowTenant:       "a",
		contactsEntered:  make(chan struct{}),
		contactsRelease:  make(chan struct{}),
	}
	fake.active = "a"
	entered := fake.contactsEntered
	ctx := context.Background()

	sess := session.NewManager(fake, store.NewMemoryStore(), session.Options{})
	dash := New(sess, fake, Options{})
	sess.Initialize(ctx, []core.Tenant{orgA, orgB})

	<-entered

	require.NoError(t, sess.SelectTenant(ctx, orgB))
	require.Eventually(t, func() bool {
		summary, loading, err := dash.ContactsSummary()
		return !loading && err == nil && summary.Count == 2
	}, time.Second, 5*time.Millisecond)

	close(fake.contactsRelease)
	time.Sleep(50 * time.Millisecond)

	summary, loading, err := dash.ContactsSummary()
	require.NoError(t, err)
	assert.False(t, loading)
	assert.Equal(t, 2, summary.Count, "tenant B's data must survive tenant A's late response")
}

func TestFollowIgnoresNonTenantChanges(t *testing.T) {
	fake := &fakeBackend{
		tenants:          []core.Tenant{orgA},
		contactsByTenant: map[string][]core.Contact{"a": {activeContact()}},
		invoicesByTenant: map[string][]core.Invoice{},
		bankTxsByTenant:  map[string][]core.BankTransaction{},
	}
	fake.active = "a"
	ctx := context.Background()

	sess := session.NewManager(fake, store.NewMemoryStore(), session.Options{})
	dash := New(sess, fake, Options{})
	sess.Initialize(ctx, []core.Tenant{orgA})

	require.Eventually(t, func() bool {
		_, loading, err := dash.ContactsSummary()
		return !loading && err == nil
	}, time.Second, 5*time.Millisecond)
	before := fake.calls()

	// Error reset changes session state but not the selected tenant.
	sess.ResetError()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, before, fake.calls(), "no refetch without a tenant change")
}

func TestViewsDegradeIndependently(t *testing.T) {
	fake := &fakeBackend{
		tenants:          []core.Tenant{orgA},
		contactsByTenant: map[string][]core.Contact{},
		invoicesByTenant: map[string][]core.Invoice{"a": {{Status: "DRAFT"}, {Status: "PAID"}}},
		bankTxsByTenant:  map[string][]core.BankTransaction{"a": {{IsReconciled: true, Date: "/Date(1700000000000)/"}}},
		contactsErr:      errors.New("contacts backend down"),
	}
	fake.active = "a"
	ctx := context.Background()

	sess := session.NewManager(fake, store.NewMemoryStore(), session.Options{})
	dash := New(sess, fake, Options{})
	sess.Initialize(ctx, []core.Tenant{orgA})

	err := dash.RefreshAll(ctx)
	require.Error(t, err)

	_, _, contactsErr := dash.ContactsSummary()
	assert.Error(t, contactsErr)

	shares, _, invErr := dash.InvoiceDistribution()
	require.NoError(t, invErr)
	assert.Len(t, shares, 2)

	recon, _, reconErr := dash.Reconciliation()
	require.NoError(t, reconErr)
	assert.Equal(t, 1, recon.TotalCount)
	assert.Equal(t, 0, recon.UnreconciledCount)
}

func TestRefreshAllWithoutTenant(t *testing.T) {
	fake := &fakeBackend{}
	ctx := context.Background()

	sess := session.NewManager(fake, store.NewMemoryStore(), session.Options{})
	dash := New(sess, fake, Options{})
	sess.Initialize(ctx, nil)

	require.NoError(t, dash.RefreshAll(ctx))
	assert.Zero(t, fake.calls())

	summary, loading, err := dash.ContactsSummary()
	require.NoError(t, err)
	assert.False(t, loading)
	assert.Zero(t, summary.Count)
}
