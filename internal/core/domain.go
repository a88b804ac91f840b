package core

import (
	"strconv"
	"time"
)

// ContactStatusActive marks a contact as active in the remote ledger.
// Contact statuses are an open enumeration: unknown values are carried
// through untouched.
const ContactStatusActive = "ACTIVE"

type (
	// Tenant is one organisation the signed-in user may query. Identity is
	// TenantID; values are immutable once received from the remote.
	Tenant struct {
		TenantID   string `json:"tenantId"`
		TenantName string `json:"tenantName"`
		TenantType string `json:"tenantType"`
	}

	// Balance is one side (receivable or payable) of a contact's money position.
	Balance struct {
		Outstanding float64 `json:"Outstanding"`
		Overdue     float64 `json:"Overdue"`
	}

	// ContactBalances groups the receivable and payable positions.
	ContactBalances struct {
		AccountsReceivable Balance `json:"AccountsReceivable"`
		AccountsPayable    Balance `json:"AccountsPayable"`
	}

	// Contact is a customer or supplier record. Balances is optional on the
	// wire; a nil Balances contributes zero to every total.
	Contact struct {
		ContactID  string           `json:"ContactID"`
		Status     string           `json:"ContactStatus"`
		IsSupplier bool             `json:"IsSupplier"`
		IsCustomer bool             `json:"IsCustomer"`
		Balances   *ContactBalances `json:"Balances,omitempty"`
	}

	// Invoice carries only the fields this layer consumes. Status is an open
	// string enumeration (PAID, AUTHORISED, DRAFT, ...); future values must
	// be tolerated, not rejected.
	Invoice struct {
		Status string `json:"Status"`
	}

	// BankTransaction is a single bank feed line.
	BankTransaction struct {
		IsReconciled bool        `json:"IsReconciled"`
		Date         EncodedDate `json:"Date"`
	}
)

// EncodedDate is the remote's date encoding: a millisecond epoch timestamp
// wrapped in non-numeric text, e.g. "/Date(1700000000000)/". The timestamp is
// the first maximal digit run in the string.
type EncodedDate string

// Time decodes the embedded timestamp. It reports false when the string
// holds no parseable digit run; callers decide the fallback.
func (d EncodedDate) Time() (time.Time, bool) {
	run := d.digitRun()
	if run == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// Display returns the decoded date in YYYY-MM-DD form, or the raw encoded
// string when no timestamp can be extracted. An undecodable date degrades to
// its wire form instead of erroring.
func (d EncodedDate) Display() string {
	t, ok := d.Time()
	if !ok {
		return string(d)
	}
	return t.Format("2006-01-02")
}

func (d EncodedDate) digitRun() string {
	start := -1
	for i, r := range d {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			return string(d[start:i])
		}
	}
	if start != -1 {
		return string(d[start:])
	}
	return ""
}
