package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

const reminderSubject = "Your reminders for today!"

// EmailChannel delivers notifications directly over SES, bypassing
// the queue. Also used by the queue consumer as its final hop.
type EmailChannel struct {
	client *ses.Client
	from   string
	logger *zap.Logger
}

// EmailConfig holds SES configuration.
type EmailConfig struct {
	Region    string
	FromEmail string
}

// NewEmailChannel creates an SES-backed delivery channel.
func NewEmailChannel(ctx context.Context, cfg EmailConfig, logger *zap.Logger) (*EmailChannel, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS config: %w", err)
	}
	return &EmailChannel{
		client: ses.NewFromConfig(awsCfg),
		from:   cfg.FromEmail,
		logger: logger,
	}, nil
}

// Deliver renders the reminder email and sends it via SES.
func (e *EmailChannel) Deliver(ctx context.Context, n pipeline.Notification) error {
	if n.Email == "" {
		return fmt.Errorf("notification missing recipient email")
	}
	if len(n.Items) == 0 {
		return fmt.Errorf("notification for %s has no reminders", n.Email)
	}

	body := renderBody(n)

	input := &ses.SendEmailInput{
		Source: aws.String(e.from),
		Destination: &types.Destination{
			ToAddresses: []string{n.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(reminderSubject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := e.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	e.logger.Info("reminder email sent",
		zap.String("to", n.Email),
		zap.Int("reminders", len(n.Items)),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)

	return nil
}

// renderBody produces the plain-text reminder email. Dates render
// day-month-year and the optional description is appended in
// parentheses.
func renderBody(n pipeline.Notification) string {
	lines := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		desc := ""
		if item.Description != "" {
			desc = fmt.Sprintf(" (%s)", item.Description)
		}
		lines = append(lines, fmt.Sprintf("%s: £%.2f for %s%s",
			item.Date.Format("02-01-2006"), item.Amount, item.Name, desc))
	}

	return fmt.Sprintf("Hello %s,\nYou have %d reminders today:\n%s\n",
		n.Name, len(n.Items), strings.Join(lines, "\n"))
}
