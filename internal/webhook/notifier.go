package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Recorder receives one observation per delivery attempt.
type Recorder interface {
	ObserveWebhook(event, result string)
}

// Enqueuer hands deliveries to a background queue.
type Enqueuer interface {
	EnqueueWebhook(ctx context.Context, d Delivery) error
}

// Notifier dispatches payloads without ever failing the caller. Deliveries
// run on their own goroutine, or go through the queue when one is set.
type Notifier struct {
	sender  *Sender
	queue   Enqueuer
	logger  *slog.Logger
	metrics Recorder
	wg      sync.WaitGroup
}

// NotifierOption customises a Notifier.
type NotifierOption func(*Notifier)

// WithQueue routes deliveries through q instead of posting in-process.
func WithQueue(q Enqueuer) NotifierOption {
	return func(n *Notifier) { n.queue = q }
}

// WithRecorder attaches delivery metrics.
func WithRecorder(r Recorder) NotifierOption {
	return func(n *Notifier) { n.metrics = r }
}

// NewNotifier constructs a Notifier.
func NewNotifier(sender *Sender, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{sender: sender, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify posts p to url. Empty URLs are skipped.
func (n *Notifier) Notify(ctx context.Context, url string, p Payload) {
	url = strings.TrimSpace(url)
	if url == "" || p == nil {
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		n.logger.Error("webhook encode", slog.String("event", p.EventName()), slog.Any("error", err))
		return
	}
	d := Delivery{URL: url, Event: p.EventName(), Body: body}

	if n.queue != nil {
		if err := n.queue.EnqueueWebhook(ctx, d); err != nil {
			n.observe(d.Event, "enqueue_failed")
			n.logger.Error("webhook enqueue", slog.String("event", d.Event), slog.Any("error", err))
			return
		}
		n.observe(d.Event, "queued")
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		_ = n.Deliver(context.WithoutCancel(ctx), d)
	}()
}

// Deliver posts d now, logging and counting the outcome.
func (n *Notifier) Deliver(ctx context.Context, d Delivery) error {
	if err := n.sender.Send(ctx, d); err != nil {
		n.observe(d.Event, "failed")
		n.logger.Warn("webhook delivery failed",
			slog.String("event", d.Event),
			slog.String("url", d.URL),
			slog.Any("error", err))
		return err
	}
	n.observe(d.Event, "ok")
	n.logger.Debug("webhook delivered", slog.String("event", d.Event), slog.String("url", d.URL))
	return nil
}

// Wait blocks until in-process deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) observe(event, result string) {
	if n.metrics != nil {
		n.metrics.ObserveWebhook(event, result)
	}
}
