package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/guruweb/resto/internal/jobs"
	"github.com/guruweb/resto/internal/webhook"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWebhookDeliver posts one webhook payload.
	TaskWebhookDeliver = "webhook:deliver"
)

// NewWebhookTask wraps a delivery in a task. Webhooks are fire-and-forget,
// so a failed delivery is archived instead of retried.
func NewWebhookTask(d webhook.Delivery) (*asynq.Task, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDeliver, data, asynq.MaxRetry(0), asynq.Queue(QueueDefault)), nil
}

// Deliverer performs the HTTP post of a delivery.
type Deliverer interface {
	Deliver(ctx context.Context, d webhook.Delivery) error
}

// WebhookJob processes TaskWebhookDeliver tasks.
type WebhookJob struct {
	Deliverer Deliverer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewWebhookJob wires the delivery handler.
func NewWebhookJob(d Deliverer, logger *slog.Logger, metrics *jobmetrics.Metrics) *WebhookJob {
	return &WebhookJob{Deliverer: d, Logger: logger, Metrics: metrics}
}

// Handle decodes the delivery and posts it.
func (j *WebhookJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Deliverer == nil {
		return errors.New("webhook deliver: handler not configured")
	}
	var d webhook.Delivery
	if err := json.Unmarshal(t.Payload(), &d); err != nil {
		return fmt.Errorf("decode delivery: %v: %w", err, asynq.SkipRetry)
	}
	if d.URL == "" {
		return fmt.Errorf("delivery without url: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskWebhookDeliver)
	err := j.Deliverer.Deliver(ctx, d)
	if err != nil {
		j.logger().Warn("webhook task failed", slog.String("event", d.Event), slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *WebhookJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskWebhookDeliver))
	}
	return slog.Default().With(slog.String("job", TaskWebhookDeliver))
}
