// Package delivery implements the outbound notification channels:
// the reminder queue, direct email, and a log channel for
// development. Each implements pipeline.Channel.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

// QueueConfig holds SQS configuration.
type QueueConfig struct {
	Region   string
	QueueURL string
}

// QueueItem is one reminder line inside a queue message.
type QueueItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// QueueMessage is the payload placed on the reminder queue: one
// message per tenant per run.
type QueueMessage struct {
	MessageID string      `json:"message_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Reminders []QueueItem `json:"reminders"`
}

// QueueChannel enqueues notifications for the email consumer.
type QueueChannel struct {
	client   *sqs.Client
	queueURL string
	logger   *zap.Logger
}

// NewQueueChannel creates an SQS-backed delivery channel.
func NewQueueChannel(ctx context.Context, cfg QueueConfig, logger *zap.Logger) (*QueueChannel, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg)

	logger.Info("reminder queue channel initialized",
		zap.String("queue_url", cfg.QueueURL),
	)

	return &QueueChannel{
		client:   client,
		queueURL: cfg.QueueURL,
		logger:   logger,
	}, nil
}

// Deliver sends one tenant's notification to the reminder queue.
func (q *QueueChannel) Deliver(ctx context.Context, n pipeline.Notification) error {
	msg := QueueMessage{
		MessageID: uuid.New().String(),
		Email:     n.Email,
		Name:      n.Name,
		Reminders: make([]QueueItem, 0, len(n.Items)),
	}
	for _, item := range n.Items {
		msg.Reminders = append(msg.Reminders, QueueItem{
			Name:        item.Name,
			Description: item.Description,
			Amount:      item.Amount,
			Date:        item.Date.Format("2006-01-02"),
		})
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	result, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sqs send failed: %w", err)
	}

	q.logger.Info("notification enqueued",
		zap.String("email", n.Email),
		zap.Int("reminders", len(msg.Reminders)),
		zap.String("sqs_message_id", aws.ToString(result.MessageId)),
	)

	return nil
}
