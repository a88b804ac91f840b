package dashboard

import (
	"context"
	"sync"

	"finboard/internal/core"
	"finboard/internal/fetch"
	applog "finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/session"

	"golang.org/x/sync/errgroup"
)

// FinanceAPI is the slice of the remote client the aggregation views need.
type FinanceAPI interface {
	ListContacts(ctx context.Context) ([]core.Contact, error)
	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	ListBankTransactions(ctx context.Context) ([]core.BankTransaction, error)
}

// Resource labels for metrics and logs.
const (
	ResourceContacts         = "contacts"
	ResourceInvoices         = "invoices"
	ResourceBankTransactions = "bank_transactions"
)

// Options carries the optional collaborators. Meter may be nil.
type Options struct {
	Meter  *metrics.Metrics
	Logger *applog.Logger
}

// Dashboard composes the three resource fetchers with their record
// transforms. It follows the session's selected tenant: every change of the
// selected tenant identifier re-triggers all three fetch pipelines, and each
// view degrades independently on failure.
type Dashboard struct {
	contacts *fetch.Fetcher[core.Contact]
	invoices *fetch.Fetcher[core.Invoice]
	bankTxs  *fetch.Fetcher[core.BankTransaction]

	mu     sync.Mutex
	seen   bool
	tenant string
}

func New(sess *session.Manager, financeAPI FinanceAPI, opts Options) *Dashboard {
	fetchOpts := fetch.Options{Meter: opts.Meter, Logger: opts.Logger}
	d := &Dashboard{
		contacts: fetch.NewFetcher(ResourceContacts, financeAPI.ListContacts, fetchOpts),
		invoices: fetch.NewFetcher(ResourceInvoices, financeAPI.ListInvoices, fetchOpts),
		bankTxs:  fetch.NewFetcher(ResourceBankTransactions, financeAPI.ListBankTransactions, fetchOpts),
	}
	sess.Subscribe(d.follow)
	return d
}

// follow re-targets the fetchers when the selected tenant identifier
// changes. Other session state changes (loading flips, errors) do not
// trigger refetches.
func (d *Dashboard) follow(snap session.Snapshot) {
	tenantID := ""
	if snap.Selected != nil {
		tenantID = snap.Selected.TenantID
	}

	d.mu.Lock()
	if d.seen && d.tenant == tenantID {
		d.mu.Unlock()
		return
	}
	d.seen = true
	d.tenant = tenantID
	d.mu.Unlock()

	ctx := context.Background()
	d.contacts.SetTenant(ctx, tenantID)
	d.invoices.SetTenant(ctx, tenantID)
	d.bankTxs.SetTenant(ctx, tenantID)
}

// ContactsSummary returns the contact metrics with the fetcher's state.
func (d *Dashboard) ContactsSummary() (core.ContactsSummary, bool, error) {
	snap := d.contacts.Snapshot()
	return core.SummarizeContacts(snap.Items), snap.Loading, snap.Err
}

// InvoiceDistribution returns the invoice status histogram with the
// fetcher's state.
func (d *Dashboard) InvoiceDistribution() ([]core.StatusShare, bool, error) {
	snap := d.invoices.Snapshot()
	return core.InvoiceStatusDistribution(snap.Items), snap.Loading, snap.Err
}

// Reconciliation returns the bank reconciliation metrics with the fetcher's
// state.
func (d *Dashboard) Reconciliation() (core.ReconciliationSummary, bool, error) {
	snap := d.bankTxs.Snapshot()
	return core.SummarizeBankTransactions(snap.Items), snap.Loading, snap.Err
}

// RefreshAll re-fetches every resource for the current tenant and waits for
// all of them to settle. The first failure is returned, but each view keeps
// its own error state either way.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.contacts.Refresh(ctx) })
	g.Go(func() error { return d.invoices.Refresh(ctx) })
	g.Go(func() error { return d.bankTxs.Refresh(ctx) })
	return g.Wait()
}
