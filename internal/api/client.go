package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"finboard/internal/core"
	applog "finboard/internal/log"

	"github.com/google/uuid"
)

// Client talks to the finance backend. Session credentials ride on cookies,
// so a jar is attached to the underlying HTTP client; tenant scope is
// implicit in the server-side session, never in the request.
type Client struct {
	http    *http.Client
	baseURL string
	log     *applog.Logger
}

// Options configures a Client. Timeout zero means no request timeout, which
// matches the upstream behaviour; set one to bound hung requests.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *applog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar}
	}
	hc.Timeout = opts.Timeout
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAPI)
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		log:     logger,
	}, nil
}

// ListTenants fetches the authoritative tenant roster.
func (c *Client) ListTenants(ctx context.Context) ([]core.Tenant, error) {
	var tenants []core.Tenant
	if err := c.getCollection(ctx, "/tenants", "tenants", &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// SelectTenant activates a tenant for the server-side session. A non-2xx
// answer is a RemoteRejection carrying the server's detail message.
func (c *Client) SelectTenant(ctx context.Context, tenantID string) error {
	const op = "select tenant"
	reqID := uuid.NewString()
	path := "/select-tenant/" + tenantID

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "select tenant failed", applog.FieldRequestID, reqID, applog.FieldError, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "select tenant",
		applog.FieldRequestID, reqID,
		applog.FieldTenantID, tenantID,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body struct {
		Detail string `json:"detail"`
	}
	message := "failed to select tenant"
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && strings.TrimSpace(body.Detail) != "" {
		message = body.Detail
	}
	return &RemoteRejection{StatusCode: resp.StatusCode, Message: message}
}

// ListContacts fetches the contact collection for the active tenant.
func (c *Client) ListContacts(ctx context.Context) ([]core.Contact, error) {
	var contacts []core.Contact
	if err := c.getCollection(ctx, "/contacts", "Contacts", &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListInvoices fetches the invoice collection for the active tenant.
func (c *Client) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	var invoices []core.Invoice
	if err := c.getCollection(ctx, "/invoices", "Invoices", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListBankTransactions fetches the bank transaction collection for the
// active tenant.
func (c *Client) ListBankTransactions(ctx context.Context) ([]core.BankTransaction, error) {
	var txs []core.BankTransaction
	if err := c.getCollection(ctx, "/bank-transactions", "BankTransactions", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// getCollection performs a GET and unmarshals the named array field of the
// response envelope into out. An absent or non-array field is a SchemaError,
// not a partial result.
func (c *Client) getCollection(ctx context.Context, path, field string, out any) error {
	op := "get " + strings.TrimPrefix(path, "/")
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "request failed", applog.FieldRequestID, reqID, applog.FieldPath, path, applog.FieldError, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "request done",
		applog.FieldRequestID, reqID,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &SchemaError{Op: op, Field: field}
	}
	raw, ok := envelope[field]
	if !ok || !isJSONArray(raw) {
		return &SchemaError{Op: op, Field: field}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Op: op, Field: field}
	}
	return nil
}

// isJSONArray reports whether the raw value is an array. A present-but-null
// field counts as a contract violation, same as an absent one.
func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
