// Package pipeline implements the daily reminder run: expand payment
// schedules, select the reminders due today, resolve the tenants to
// notify, aggregate per tenant and fan out one notification each.
package pipeline

import (
	"context"
	"time"

	"github.com/lantenhq/reminderd/internal/schedule"
)

// Payment is a monetary obligation on a lease, together with its
// reminder rules. Interval carries the stored text form; the runner
// parses it so that a bad value skips one payment instead of failing
// the whole query.
type Payment struct {
	ID          string
	Amount      float64
	Name        string
	Description string
	Type        string
	AnchorDate  time.Time
	Interval    string
	Rules       []schedule.Rule
}

// Tenant is a notification recipient on a lease.
type Tenant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DueReminder is one reminder that fires today for one tenant:
// a payment occurrence, the rule that selected it and the recipient.
// Built fresh on every run, never persisted.
type DueReminder struct {
	Payment Payment
	Date    time.Time
	Rule    schedule.Rule
	Tenant  Tenant
}

// LineItem is one reminder entry inside an outbound notification.
type LineItem struct {
	PaymentID   string
	Name        string
	Description string
	Amount      float64
	Date        time.Time
}

// Notification is the artifact handed to the delivery channel: one
// per tenant per run, line items sorted by date then payment name.
type Notification struct {
	Email string
	Name  string
	Items []LineItem
}

// Source is the query boundary to the payment/reminder/tenant data.
// Implementations exist over Postgres and over the backend HTTP API;
// the pipeline treats them identically.
type Source interface {
	// ListPayments returns every payment, with its reminder rules,
	// whose occurrence set can intersect [today, horizonEnd].
	ListPayments(ctx context.Context, today, horizonEnd time.Time) ([]Payment, error)
	// ListTenants returns the distinct tenants on the payment's lease.
	ListTenants(ctx context.Context, paymentID string) ([]Tenant, error)
}

// Channel delivers one outbound notification. Queue, direct email and
// log implementations live in internal/delivery.
type Channel interface {
	Deliver(ctx context.Context, n Notification) error
}

// SentLog records which (payment, occurrence, tenant) combinations were
// already delivered, so a replayed run does not notify twice. A nil
// SentLog disables suppression.
type SentLog interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
