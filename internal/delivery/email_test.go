package delivery

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

func TestRenderBody(t *testing.T) {
	n := pipeline.Notification{
		Email: "a@x.com",
		Name:  "Alex",
		Items: []pipeline.LineItem{
			{
				Name:   "Rent",
				Amount: 850,
				Date:   time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			},
			{
				Name:        "Utilities",
				Description: "water and electric",
				Amount:      62.5,
				Date:        time.Date(2024, time.June, 18, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	body := renderBody(n)

	if !strings.Contains(body, "Hello Alex,") {
		t.Errorf("greeting missing: %q", body)
	}
	if !strings.Contains(body, "You have 2 reminders today:") {
		t.Errorf("reminder count missing: %q", body)
	}
	if !strings.Contains(body, "15-06-2024: £850.00 for Rent") {
		t.Errorf("rent line missing or misformatted: %q", body)
	}
	if !strings.Contains(body, "18-06-2024: £62.50 for Utilities (water and electric)") {
		t.Errorf("utilities line missing or misformatted: %q", body)
	}
	if strings.Contains(body, "Rent (") {
		t.Errorf("empty description rendered parentheses: %q", body)
	}
}

func TestLogChannelDeliver(t *testing.T) {
	ch := NewLogChannel(zap.NewNop())
	n := pipeline.Notification{
		Email: "a@x.com",
		Name:  "Alex",
		Items: []pipeline.LineItem{{Name: "Rent", Amount: 850}},
	}
	if err := ch.Deliver(context.Background(), n); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
