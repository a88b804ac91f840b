package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"finboard/internal/api"
	"finboard/internal/config"
	"finboard/internal/dashboard"
	"finboard/internal/events"
	applog "finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/session"
	"finboard/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	ctx := context.Background()

	sess, dash, surface, cleanup, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer cleanup()

	if err := sess.RefreshRoster(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", surface.Message())
		os.Exit(1)
	}
	if err := dash.RefreshAll(ctx); err != nil {
		logger.Warn("some views failed to load", applog.FieldError, err)
	}

	render(os.Stdout, sess.Snapshot(), dash)
}

// wire builds the client, session, views and error surface from config.
func wire(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*session.Manager, *dashboard.Dashboard, *dashboard.ErrorSurface, func(), error) {
	meter := metrics.New(prometheus.DefaultRegisterer)

	selStore, storeCleanup, err := store.New(
		store.Backend(cfg.SelectionBackend), cfg.SQLiteDBPath,
		logger.WithComponent(applog.ComponentStore))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("selection store: %w", err)
	}

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger.WithComponent(applog.ComponentAPI),
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("api client: %w", err)
	}

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("could not connect AMQP, continuing without session events", applog.FieldError, err)
			publisher = nil
		} else {
			logger.Info("session events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	sess := session.NewManager(client, selStore, session.Options{
		Events: publisher,
		Meter:  meter,
		Logger: logger.WithComponent(applog.ComponentSession),
	})
	sess.Initialize(ctx, nil)

	dash := dashboard.New(sess, client, dashboard.Options{
		Meter:  meter,
		Logger: logger.WithComponent(applog.ComponentFetch),
	})
	surface := dashboard.NewErrorSurface(sess)

	cleanup := func() {
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				logger.Warn("selection store close failed", applog.FieldError, err)
			}
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close failed", applog.FieldError, err)
		}
	}
	return sess, dash, surface, cleanup, nil
}

func render(w io.Writer, snap session.Snapshot, dash *dashboard.Dashboard) {
	if snap.Selected != nil {
		fmt.Fprintf(w, "Organisation: %s (%s)\n", snap.Selected.TenantName, snap.Selected.TenantID)
	} else {
		fmt.Fprintln(w, "Organisation: none selected")
	}
	fmt.Fprintf(w, "Tenants available: %d\n\n", len(snap.Roster))

	contacts, _, err := dash.ContactsSummary()
	if err != nil {
		fmt.Fprintf(w, "Contacts: unavailable (%v)\n\n", err)
	} else {
		fmt.Fprintf(w, "Contacts: %d total, %d active, %d suppliers, %d customers\n",
			contacts.Count, contacts.ActiveCount, contacts.SupplierCount, contacts.CustomerCount)
		fmt.Fprintf(w, "  Receivable: %.2f outstanding / %.2f overdue\n",
			contacts.TotalOutstandingReceivable, contacts.TotalOverdueReceivable)
		fmt.Fprintf(w, "  Payable:    %.2f outstanding / %.2f overdue\n\n",
			contacts.TotalOutstandingPayable, contacts.TotalOverduePayable)
	}

	shares, _, err := dash.InvoiceDistribution()
	if err != nil {
		fmt.Fprintf(w, "Invoices: unavailable (%v)\n\n", err)
	} else {
		fmt.Fprintln(w, "Invoices by status:")
		if len(shares) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, sh := range shares {
			fmt.Fprintf(w, "  %-12s %4d  %5.1f%%\n", sh.Status, sh.Count, sh.Percentage)
		}
		fmt.Fprintln(w)
	}

	recon, _, err := dash.Reconciliation()
	if err != nil {
		fmt.Fprintf(w, "Bank transactions: unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(w, "Bank transactions: %d unreconciled of %d (trend %+d)\n",
		recon.UnreconciledCount, recon.TotalCount, recon.TrendDelta)
	for _, mc := range recon.MonthlySeries {
		fmt.Fprintf(w, "  %-8s %d unreconciled\n", mc.MonthKey, mc.UnreconciledCount)
	}
}
