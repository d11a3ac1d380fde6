// Package source implements the pipeline query boundary over the
// backend HTTP API, for deployments where the pipeline runs without
// direct database access.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
	"github.com/lantenhq/reminderd/internal/schedule"
)

// HTTPSource reads payments, rules and tenants from the backend's
// reminders endpoint. The endpoint returns tenants inline with each
// payment, so ListTenants answers from the last ListPayments response
// rather than issuing another request per payment.
type HTTPSource struct {
	baseURL string
	authKey string
	client  *http.Client
	logger  *zap.Logger

	mu      sync.Mutex
	tenants map[string][]pipeline.Tenant
}

// Config holds backend API settings.
type Config struct {
	BaseURL string
	AuthKey string
	Timeout time.Duration
}

// paymentResponse mirrors the backend's reminders payload.
type paymentResponse struct {
	PaymentID         string  `json:"paymentId"`
	Amount            float64 `json:"amount"`
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Type              string  `json:"type"`
	PaymentDate       string  `json:"paymentDate"`
	RecurringInterval string  `json:"recurringInterval"`
	Reminders         []struct {
		ID         string `json:"id"`
		DaysBefore int    `json:"daysBefore"`
		Recurring  bool   `json:"recurring"`
	} `json:"reminders"`
	Tenants []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"tenants"`
}

// NewHTTPSource creates a backend-API-backed pipeline source.
func NewHTTPSource(cfg Config, logger *zap.Logger) *HTTPSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL: cfg.BaseURL,
		authKey: cfg.AuthKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		tenants: make(map[string][]pipeline.Tenant),
	}
}

// ListPayments fetches every payment with reminder rules from the
// backend and caches the inline tenant lists for ListTenants.
func (s *HTTPSource) ListPayments(ctx context.Context, today, horizonEnd time.Time) ([]pipeline.Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/reminders/all", nil)
	if err != nil {
		return nil, fmt.Errorf("build reminders request: %w", err)
	}
	req.Header.Set("Authorization", s.authKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch reminders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch reminders: backend returned %d: %s", resp.StatusCode, body)
	}

	var rows []paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode reminders response: %w", err)
	}

	payments := make([]pipeline.Payment, 0, len(rows))
	tenants := make(map[string][]pipeline.Tenant, len(rows))
	for _, row := range rows {
		anchor, err := time.Parse(time.RFC3339, row.PaymentDate)
		if err != nil {
			// Prisma serialises with millisecond precision; fall
			// back for date-only values.
			anchor, err = time.ParseInLocation("2006-01-02", row.PaymentDate, time.UTC)
			if err != nil {
				s.logger.Warn("skipping payment with unparseable date",
					zap.String("payment_id", row.PaymentID),
					zap.String("payment_date", row.PaymentDate),
				)
				continue
			}
		}

		p := pipeline.Payment{
			ID:         row.PaymentID,
			Amount:     row.Amount,
			Name:       row.Name,
			Type:       row.Type,
			AnchorDate: schedule.Date(anchor),
			Interval:   row.RecurringInterval,
		}
		if row.Description != nil {
			p.Description = *row.Description
		}
		if p.Interval == "" {
			p.Interval = "NONE"
		}
		for _, r := range row.Reminders {
			p.Rules = append(p.Rules, schedule.Rule{
				ID:         r.ID,
				DaysBefore: r.DaysBefore,
				Recurring:  r.Recurring,
			})
		}
		for _, t := range row.Tenants {
			tenants[p.ID] = append(tenants[p.ID], pipeline.Tenant{Name: t.Name, Email: t.Email})
		}
		payments = append(payments, p)
	}

	s.mu.Lock()
	s.tenants = tenants
	s.mu.Unlock()

	s.logger.Debug("payments fetched from backend",
		zap.Int("payments", len(payments)),
	)

	return payments, nil
}

// ListTenants returns the tenants the backend sent inline with the
// payment.
func (s *HTTPSource) ListTenants(ctx context.Context, paymentID string) ([]pipeline.Tenant, error) {
	s.mu.Lock()
	tenants, ok := s.tenants[paymentID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no tenants cached for payment %s", paymentID)
	}
	return tenants, nil
}
