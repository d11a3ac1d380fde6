package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
	"github.com/lantenhq/reminderd/internal/schedule"
)

// Source reads payments, reminder rules and tenants from the rent
// management schema. It implements pipeline.Source.
type Source struct {
	db     *DB
	logger *zap.Logger
}

// NewSource creates a Postgres-backed pipeline source
func NewSource(db *DB, logger *zap.Logger) *Source {
	return &Source{
		db:     db,
		logger: logger,
	}
}

// ListPayments returns payments carrying at least one reminder rule
// whose occurrence set can intersect [today, horizonEnd]. Recurring
// payments are always candidates; one-off payments are excluded once
// their anchor date is in the past, since no rule can fire for them
// again. Interval text is returned raw so the pipeline can isolate a
// bad enum value to one payment.
func (s *Source) ListPayments(ctx context.Context, today, horizonEnd time.Time) ([]pipeline.Payment, error) {
	query := `
		SELECT
			p."id", p."amount", p."name", p."description",
			p."type"::text, p."paymentDate", p."recurringInterval"::text,
			r."id", r."daysBefore", r."recurring"
		FROM "Payment" p
		JOIN "Reminder" r ON r."paymentId" = p."id"
		WHERE p."isDeleted" = false
		  AND (p."recurringInterval"::text <> 'NONE' OR DATE(p."paymentDate") >= $1::date)
		ORDER BY p."id", r."id"
	`

	rows, err := s.db.Pool().Query(ctx, query, schedule.Date(today))
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []pipeline.Payment
	index := make(map[string]int)
	for rows.Next() {
		var (
			p           pipeline.Payment
			description *string
			rule        schedule.Rule
		)
		err := rows.Scan(
			&p.ID,
			&p.Amount,
			&p.Name,
			&description,
			&p.Type,
			&p.AnchorDate,
			&p.Interval,
			&rule.ID,
			&rule.DaysBefore,
			&rule.Recurring,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		if description != nil {
			p.Description = *description
		}

		if i, ok := index[p.ID]; ok {
			payments[i].Rules = append(payments[i].Rules, rule)
			continue
		}
		p.Rules = []schedule.Rule{rule}
		index[p.ID] = len(payments)
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	s.logger.Debug("payments loaded",
		zap.Int("payments", len(payments)),
		zap.String("horizon_end", horizonEnd.Format("2006-01-02")),
	)

	return payments, nil
}

// ListTenants returns the distinct tenants on the payment's lease,
// joined through the lease-tenant association the same way the
// backend resolves occupancy.
func (s *Source) ListTenants(ctx context.Context, paymentID string) ([]pipeline.Tenant, error) {
	query := `
		SELECT DISTINCT u."name", u."email"
		FROM "User" u
		JOIN "LeaseTenant" lt ON lt."tenantId" = u."id"
		JOIN "Lease" l ON l."id" = lt."leaseId"
		JOIN "Payment" p ON p."leaseId" = l."id"
		WHERE p."id" = $1 AND lt."isDeleted" = false
	`

	rows, err := s.db.Pool().Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query tenants for payment %s: %w", paymentID, err)
	}
	defer rows.Close()

	var tenants []pipeline.Tenant
	for rows.Next() {
		var (
			name  *string
			email string
		)
		if err := rows.Scan(&name, &email); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		t := pipeline.Tenant{Email: email}
		if name != nil {
			t.Name = *name
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant rows: %w", err)
	}

	return tenants, nil
}
