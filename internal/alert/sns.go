// Package alert publishes operator alerts for run-fatal failures.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// Publisher sends ops alerts to an SNS topic. Only run-level
// failures go here; per-payment and per-tenant failures are logged
// and counted, not paged on.
type Publisher struct {
	client   *sns.Client
	topicARN string
	logger   *zap.Logger
}

// message is the alert payload.
type message struct {
	Service    string `json:"service"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	OccurredAt string `json:"occurred_at"`
}

// NewPublisher creates an alert publisher for the given topic.
func NewPublisher(ctx context.Context, region, topicARN string, logger *zap.Logger) (*Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Publisher{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
		logger:   logger,
	}, nil
}

// RunFailed publishes a run-fatal alert. Publish errors are logged,
// never propagated: alerting must not mask the original failure.
func (p *Publisher) RunFailed(ctx context.Context, runErr error) {
	payload, err := json.Marshal(message{
		Service:    "reminderd",
		Kind:       "run_failed",
		Error:      runErr.Error(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		p.logger.Error("failed to marshal alert", zap.Error(err))
		return
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("reminderd: reminder run failed"),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		p.logger.Error("failed to publish alert",
			zap.String("topic_arn", p.topicARN),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("run failure alert published", zap.String("topic_arn", p.topicARN))
}
