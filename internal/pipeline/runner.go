package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/metrics"
	"github.com/lantenhq/reminderd/internal/schedule"
)

// ErrSourceUnavailable marks the one run-fatal failure: the payment
// query itself failed, so there is nothing to compute from.
var ErrSourceUnavailable = errors.New("reminder source unavailable")

// Config tunes a Runner.
type Config struct {
	// HorizonDays bounds how far ahead recurring series are expanded.
	HorizonDays int
	// ResolveWorkers caps concurrent tenant lookups.
	ResolveWorkers int
	// Now supplies the clock; defaults to time.Now. Injected so the
	// run is testable against a fixed date.
	Now func() time.Time
}

// Runner executes one reminder run end to end. It holds no state
// between runs.
type Runner struct {
	source  Source
	channel Channel
	sent    SentLog
	config  Config
	logger  *zap.Logger
}

// NewRunner creates a runner. sent may be nil to disable duplicate
// suppression across replayed runs.
func NewRunner(source Source, channel Channel, sent SentLog, cfg Config, logger *zap.Logger) *Runner {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 10
	}
	if cfg.ResolveWorkers <= 0 {
		cfg.ResolveWorkers = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		source:  source,
		channel: channel,
		sent:    sent,
		config:  cfg,
		logger:  logger,
	}
}

// duePayment is one payment with the reminders that fire today.
type duePayment struct {
	payment Payment
	due     []schedule.Due
}

type resolution struct {
	idx     int
	tenants []Tenant
	err     error
}

// Run executes the pipeline once. Failures local to one payment or
// one tenant are logged and counted in the report; only the source
// query failing entirely returns an error, aborting the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := r.config.Now()
	today := schedule.Date(start)
	horizonEnd := today.AddDate(0, 0, r.config.HorizonDays)

	report := &Report{
		RunID:   uuid.New().String(),
		Today:   today,
		Started: start,
	}
	log := r.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("today", today.Format("2006-01-02")),
	)
	log.Info("reminder run starting",
		zap.String("horizon_end", horizonEnd.Format("2006-01-02")),
	)

	payments, err := r.source.ListPayments(ctx, today, horizonEnd)
	if err != nil {
		metrics.RecordRun("failed", time.Since(start))
		return nil, fmt.Errorf("%w: list payments: %w", ErrSourceUnavailable, err)
	}
	report.Payments = len(payments)

	duePayments := r.selectDue(log, today, horizonEnd, payments, report)

	due := r.resolveTenants(ctx, log, duePayments, report)
	due = r.suppressSent(ctx, log, due, report)

	groups := Aggregate(due)
	r.dispatch(ctx, log, groups, report)

	report.Duration = time.Since(start)
	metrics.RecordRun("ok", report.Duration)
	log.Info("reminder run finished",
		zap.Int("payments", report.Payments),
		zap.Int("payments_skipped", report.SkippedPayments),
		zap.Int("due_reminders", report.DueReminders),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("tenants_notified", report.Delivered),
		zap.Int("tenants_failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// selectDue expands each payment's series and keeps those with at
// least one reminder firing today. An unparseable interval or a
// negative offset is a configuration error scoped to that payment or
// rule: logged, counted, and excluded from the run.
func (r *Runner) selectDue(log *zap.Logger, today, horizonEnd time.Time, payments []Payment, report *Report) []duePayment {
	var out []duePayment
	for _, p := range payments {
		interval, err := schedule.ParseInterval(p.Interval)
		if err != nil {
			log.Warn("skipping payment with invalid interval",
				zap.String("payment_id", p.ID),
				zap.String("interval", p.Interval),
			)
			metrics.RecordPaymentSkipped("invalid_interval")
			report.SkippedPayments++
			continue
		}

		rules := p.Rules[:0:0]
		for _, rule := range p.Rules {
			if rule.DaysBefore < 0 {
				log.Warn("ignoring reminder rule with negative offset",
					zap.String("payment_id", p.ID),
					zap.String("rule_id", rule.ID),
					zap.Int("days_before", rule.DaysBefore),
				)
				continue
			}
			rules = append(rules, rule)
		}
		if len(rules) == 0 {
			continue
		}

		occurrences, err := schedule.Expand(p.AnchorDate, interval, horizonEnd)
		if err != nil {
			log.Warn("skipping payment: expansion failed",
				zap.String("payment_id", p.ID),
				zap.Error(err),
			)
			metrics.RecordPaymentSkipped("invalid_interval")
			report.SkippedPayments++
			continue
		}

		due := schedule.DueOn(today, p.AnchorDate, occurrences, rules)
		if len(due) == 0 {
			continue
		}
		out = append(out, duePayment{payment: p, due: due})
	}
	return out
}

// resolveTenants looks up recipients for each due payment. Lookups
// run concurrently but results are merged by this goroutine alone. A
// failed lookup drops that payment's reminders for this run; the rest
// proceed.
func (r *Runner) resolveTenants(ctx context.Context, log *zap.Logger, duePayments []duePayment, report *Report) []DueReminder {
	if len(duePayments) == 0 {
		return nil
	}

	results := make(chan resolution, len(duePayments))
	sem := make(chan struct{}, r.config.ResolveWorkers)
	var wg sync.WaitGroup
	for i := range duePayments {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			tenants, err := r.source.ListTenants(ctx, duePayments[i].payment.ID)
			results <- resolution{idx: i, tenants: tenants, err: err}
		}(i)
	}
	wg.Wait()
	close(results)

	var due []DueReminder
	for res := range results {
		dp := duePayments[res.idx]
		if res.err != nil {
			log.Warn("skipping payment: tenant resolution failed",
				zap.String("payment_id", dp.payment.ID),
				zap.Error(res.err),
			)
			metrics.RecordPaymentSkipped("tenant_resolution")
			report.SkippedPayments++
			continue
		}
		tenants := dedupeTenants(res.tenants)
		for _, d := range dp.due {
			for _, tenant := range tenants {
				due = append(due, DueReminder{
					Payment: dp.payment,
					Date:    d.Date,
					Rule:    d.Rule,
					Tenant:  tenant,
				})
			}
		}
	}
	report.DueReminders = len(due)
	metrics.RecordDueReminders(len(due))
	return due
}

// suppressSent drops reminders already delivered by an earlier run
// today. Sent-log errors fail open: a duplicate email beats a missed
// one.
func (r *Runner) suppressSent(ctx context.Context, log *zap.Logger, due []DueReminder, report *Report) []DueReminder {
	if r.sent == nil {
		return due
	}
	kept := due[:0:0]
	for _, d := range due {
		seen, err := r.sent.Seen(ctx, sentKey(d))
		if err != nil {
			log.Warn("sent-log check failed, treating as unseen", zap.Error(err))
			kept = append(kept, d)
			continue
		}
		if seen {
			report.Suppressed++
			metrics.RecordSuppressed()
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// dispatch fans out one notification per tenant. Each tenant is
// independent: a build or delivery failure is recorded and the loop
// moves on. Successfully delivered reminders are marked in the
// sent-log afterwards, so a failed tenant stays eligible on replay.
func (r *Runner) dispatch(ctx context.Context, log *zap.Logger, groups []Group, report *Report) {
	keysFor := r.sentKeysByTenant(groups)
	for _, g := range groups {
		n := Notification{Email: g.Tenant.Email, Name: g.Tenant.Name, Items: g.Items}

		if err := r.channel.Deliver(ctx, n); err != nil {
			log.Error("notification delivery failed",
				zap.String("email", g.Tenant.Email),
				zap.Int("items", len(g.Items)),
				zap.Error(err),
			)
			metrics.RecordDispatch("failed")
			report.Failed++
			report.Results = append(report.Results, Result{Tenant: g.Tenant, Items: len(g.Items), Err: err.Error()})
			continue
		}

		log.Info("notification delivered",
			zap.String("email", g.Tenant.Email),
			zap.Int("items", len(g.Items)),
		)
		metrics.RecordDispatch("delivered")
		report.Delivered++
		report.Results = append(report.Results, Result{Tenant: g.Tenant, Items: len(g.Items)})

		if r.sent == nil {
			continue
		}
		for _, key := range keysFor[g.Tenant.Email] {
			if err := r.sent.Mark(ctx, key); err != nil {
				log.Warn("sent-log mark failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

// sentKeysByTenant rebuilds the sent-log keys for each group's items
// so they can be marked after a successful delivery.
func (r *Runner) sentKeysByTenant(groups []Group) map[string][]string {
	keys := make(map[string][]string, len(groups))
	for _, g := range groups {
		for _, item := range g.Items {
			keys[g.Tenant.Email] = append(keys[g.Tenant.Email], sentKeyFor(item.PaymentID, item.Date, g.Tenant.Email))
		}
	}
	return keys
}

// sentKey identifies one delivered reminder line-item across runs.
// It is keyed the same way aggregation collapses duplicates, at
// (payment, occurrence date, tenant) granularity: two rules firing
// for the same occurrence deliver one line-item, so they share one
// sent-log entry.
func sentKey(d DueReminder) string {
	return sentKeyFor(d.Payment.ID, d.Date, d.Tenant.Email)
}

func sentKeyFor(paymentID string, date time.Time, email string) string {
	return "sent:" + paymentID + ":" + date.Format("2006-01-02") + ":" + strings.ToLower(email)
}

func dedupeTenants(tenants []Tenant) []Tenant {
	seen := make(map[string]struct{}, len(tenants))
	out := tenants[:0:0]
	for _, t := range tenants {
		key := strings.ToLower(strings.TrimSpace(t.Email))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
