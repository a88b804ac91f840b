package core

import (
	"fmt"
	"sort"
	"time"
)

type (
	// ContactsSummary aggregates a contact collection into the headline
	// numbers the dashboard cards show.
	ContactsSummary struct {
		Count                      int
		ActiveCount                int
		SupplierCount              int
		CustomerCount              int
		TotalOutstandingReceivable float64
		TotalOverdueReceivable     float64
		TotalOutstandingPayable    float64
		TotalOverduePayable        float64
	}

	// StatusShare is one slice of the invoice status distribution.
	StatusShare struct {
		Status     string
		Count      int
		Percentage float64
	}

	// MonthCount is one point of the unreconciled-per-month series.
	// MonthKey is "YYYY-M" without zero padding.
	MonthCount struct {
		MonthKey          string
		UnreconciledCount int
	}

	// ReconciliationSummary aggregates a bank transaction collection.
	ReconciliationSummary struct {
		UnreconciledCount int
		TotalCount        int
		TrendDelta        int
		MonthlySeries     []MonthCount
	}
)

// SummarizeContacts reduces a contact collection in a single pass. A contact
// without balances contributes zero to every total.
func SummarizeContacts(contacts []Contact) ContactsSummary {
	s := ContactsSummary{Count: len(contacts)}
	for _, c := range contacts {
		if c.Status == ContactStatusActive {
			s.ActiveCount++
		}
		if c.IsSupplier {
			s.SupplierCount++
		}
		if c.IsCustomer {
			s.CustomerCount++
		}
		if c.Balances == nil {
			continue
		}
		s.TotalOutstandingReceivable += c.Balances.AccountsReceivable.Outstanding
		s.TotalOverdueReceivable += c.Balances.AccountsReceivable.Overdue
		s.TotalOutstandingPayable += c.Balances.AccountsPayable.Outstanding
		s.TotalOverduePayable += c.Balances.AccountsPayable.Overdue
	}
	return s
}

// InvoiceStatusDistribution groups invoices by status and computes each
// group's share of the total. Statuses appear in first-seen order; unknown
// statuses form their own group. An empty input yields an empty distribution
// rather than dividing by zero.
func InvoiceStatusDistribution(invoices []Invoice) []StatusShare {
	if len(invoices) == 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, inv := range invoices {
		if _, seen := counts[inv.Status]; !seen {
			order = append(order, inv.Status)
		}
		counts[inv.Status]++
	}
	total := float64(len(invoices))
	shares := make([]StatusShare, 0, len(order))
	for _, status := range order {
		n := counts[status]
		shares = append(shares, StatusShare{
			Status:     status,
			Count:      n,
			Percentage: float64(n) / total * 100,
		})
	}
	return shares
}

// MonthKey formats a (year, month) bucket key, e.g. "2023-11".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}

// SummarizeBankTransactions aggregates reconciliation state. Every
// transaction creates its month bucket on first sight, but only unreconciled
// transactions increment it, so a month with only reconciled activity still
// shows up with a zero count. An undecodable date falls back to epoch zero,
// matching the upstream feed's behaviour. The trend delta is a placeholder
// until prior-period data is available.
func SummarizeBankTransactions(txs []BankTransaction) ReconciliationSummary {
	s := ReconciliationSummary{TotalCount: len(txs)}

	type bucket struct {
		year  int
		month time.Month
		count int
	}
	buckets := make(map[string]*bucket)
	for _, tx := range txs {
		ts, ok := tx.Date.Time()
		if !ok {
			ts = time.UnixMilli(0).UTC()
		}
		year, month, _ := ts.Date()
		key := MonthKey(year, month)
		b, seen := buckets[key]
		if !seen {
			b = &bucket{year: year, month: month}
			buckets[key] = b
		}
		if !tx.IsReconciled {
			b.count++
			s.UnreconciledCount++
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].year != ordered[j].year {
			return ordered[i].year < ordered[j].year
		}
		return ordered[i].month < ordered[j].month
	})
	for _, b := range ordered {
		s.MonthlySeries = append(s.MonthlySeries, MonthCount{
			MonthKey:          MonthKey(b.year, b.month),
			UnreconciledCount: b.count,
		})
	}

	previous := s.UnreconciledCount - 1
	s.TrendDelta = s.UnreconciledCount - previous
	return s
}
