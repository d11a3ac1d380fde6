package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/metrics"
	"github.com/lantenhq/reminderd/internal/pipeline"
)

// Consumer drains the reminder queue and forwards each message to the
// delivery channel behind it (normally email). A message that fails
// to deliver is left on the queue for redelivery after the visibility
// timeout; a message that fails to parse is deleted, since it will
// never get better.
type Consumer struct {
	client   *sqs.Client
	queueURL string
	channel  pipeline.Channel
	logger   *zap.Logger
}

// NewConsumer creates a reminder queue consumer.
func NewConsumer(ctx context.Context, cfg QueueConfig, channel pipeline.Channel, logger *zap.Logger) (*Consumer, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("reminder queue consumer initialized",
		zap.String("queue_url", cfg.QueueURL),
	)

	return &Consumer{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: cfg.QueueURL,
		channel:  channel,
		logger:   logger,
	}, nil
}

// Run long-polls the queue until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("queue consumer stopping")
			return
		default:
		}

		result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("sqs receive failed", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range result.Messages {
			c.process(ctx, aws.ToString(msg.Body), aws.ToString(msg.ReceiptHandle))
		}
	}
}

func (c *Consumer) process(ctx context.Context, body, receiptHandle string) {
	var msg QueueMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		c.logger.Error("discarding malformed queue message", zap.Error(err))
		metrics.RecordQueueConsumed("malformed")
		c.delete(ctx, receiptHandle)
		return
	}

	n := pipeline.Notification{
		Email: msg.Email,
		Name:  msg.Name,
		Items: make([]pipeline.LineItem, 0, len(msg.Reminders)),
	}
	for _, item := range msg.Reminders {
		date, err := time.ParseInLocation("2006-01-02", item.Date, time.UTC)
		if err != nil {
			c.logger.Warn("queue message has unparseable date",
				zap.String("message_id", msg.MessageID),
				zap.String("date", item.Date),
			)
		}
		n.Items = append(n.Items, pipeline.LineItem{
			Name:        item.Name,
			Description: item.Description,
			Amount:      item.Amount,
			Date:        date,
		})
	}

	if err := c.channel.Deliver(ctx, n); err != nil {
		// Leave the message visible for redelivery.
		c.logger.Error("queue message delivery failed",
			zap.String("message_id", msg.MessageID),
			zap.String("email", msg.Email),
			zap.Error(err),
		)
		metrics.RecordQueueConsumed("failed")
		return
	}

	metrics.RecordQueueConsumed("delivered")
	c.delete(ctx, receiptHandle)
}

func (c *Consumer) delete(ctx context.Context, receiptHandle string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		c.logger.Error("sqs delete failed", zap.Error(err))
	}
}
