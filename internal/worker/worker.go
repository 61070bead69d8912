// Package worker implements the delivery loop: a long-lived poller that
// drains the notification queue in batches, dispatches to channel
// senders, and writes back retry or terminal state. It runs as its own
// process and coordinates with the web-serving side only through the
// durable queue table, giving at-least-once delivery.
package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cadence-tracker/cadence/internal/channel"
	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/notify"
)

// EmailSender delivers one email message.
type EmailSender interface {
	Send(to, subject, body, bodyHTML string) channel.Result
}

// PushSender publishes one push message to a topic.
type PushSender interface {
	Publish(ctx context.Context, topic, title, message, clickURL string) channel.Result
}

// QueueStore is the slice of the persistence layer the worker needs.
type QueueStore interface {
	GetPendingNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id int64) error
	MarkNotificationFailed(ctx context.Context, id int64, maxRetries int) (model.NotificationStatus, error)
	FailNotificationPermanently(ctx context.Context, id int64) error
	PurgeTerminalNotifications(ctx context.Context, olderThanDays int) (int64, error)
}

// purgeInterval is how often terminal rows are garbage collected.
const purgeInterval = time.Hour

// Worker is the polling delivery loop.
type Worker struct {
	queue     QueueStore
	directory notify.Directory
	email     EmailSender
	push      PushSender
	cfg       model.WorkerConfig
	log       *logrus.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a delivery worker.
func New(
	queue QueueStore,
	directory notify.Directory,
	email EmailSender,
	push PushSender,
	cfg model.WorkerConfig,
	log *logrus.Logger,
) *Worker {
	if cfg.PollIntervalSec <= 0 {
		cfg.PollIntervalSec = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Worker{
		queue:     queue,
		directory: directory,
		email:     email,
		push:      push,
		cfg:       cfg,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

// Run polls the queue until ctx is cancelled or Stop is called. The
// stop signal is checked between iterations; an in-flight batch is
// allowed to finish.
func (w *Worker) Run(ctx context.Context) {
	interval := time.Duration(w.cfg.PollIntervalSec) * time.Second

	w.log.WithFields(logrus.Fields{
		"poll_interval": interval,
		"batch_size":    w.cfg.BatchSize,
		"max_retries":   w.cfg.MaxRetries,
	}).Info("starting notification worker")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	purgeTicker := time.NewTicker(purgeInterval)
	defer purgeTicker.Stop()

	// Drain whatever queued up before the worker came online.
	w.runIteration(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("notification worker stopped")
			return
		case <-w.stopCh:
			w.log.Info("notification worker stopped")
			return
		case <-ticker.C:
			w.runIteration(ctx)
		case <-purgeTicker.C:
			w.runPurge(ctx)
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Worker) runIteration(ctx context.Context) {
	processed, err := w.ProcessBatch(ctx)
	if err != nil {
		w.log.WithError(err).Error("worker iteration failed")
		return
	}
	if processed > 0 {
		w.log.WithField("count", processed).Info("processed notifications")
	}
}

func (w *Worker) runPurge(ctx context.Context) {
	if w.cfg.PurgeAfterDays <= 0 {
		return
	}
	removed, err := w.queue.PurgeTerminalNotifications(ctx, w.cfg.PurgeAfterDays)
	if err != nil {
		w.log.WithError(err).Error("purging terminal notifications failed")
		return
	}
	if removed > 0 {
		w.log.WithField("count", removed).Info("purged terminal notifications")
	}
}

// ProcessBatch pulls one batch of pending notifications and attempts
// delivery. Each row is processed independently; a failure on one row
// never aborts the batch. Returns the number of rows processed.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	pending, err := w.queue.GetPendingNotifications(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range pending {
		n := &pending[i]
		result := w.deliver(ctx, n)

		entry := w.log.WithFields(logrus.Fields{
			"notification": n.UUID,
			"channel":      n.Channel,
			"user_id":      n.UserID,
			"result":       result.String(),
		})

		switch result {
		case channel.ResultSent:
			if err := w.queue.MarkNotificationSent(ctx, n.ID); err != nil {
				entry.WithError(err).Error("marking notification sent")
				continue
			}
			entry.Info("notification delivered")
		case channel.ResultPermanentFailure:
			if err := w.queue.FailNotificationPermanently(ctx, n.ID); err != nil {
				entry.WithError(err).Error("failing notification")
				continue
			}
			entry.Warn("notification failed permanently")
		default:
			status, err := w.queue.MarkNotificationFailed(ctx, n.ID, w.cfg.MaxRetries)
			if err != nil {
				entry.WithError(err).Error("marking notification failed")
				continue
			}
			if status == model.NotificationFailed {
				entry.Warn("notification failed after retry budget exhausted")
			} else {
				entry.Info("notification delivery failed, will retry")
			}
		}
		processed++
	}

	return processed, nil
}

// deliver resolves the recipient at delivery time (addresses and topics
// can change after enqueue) and dispatches to the channel sender.
func (w *Worker) deliver(ctx context.Context, n *model.Notification) channel.Result {
	user, err := w.directory.GetUser(ctx, n.UserID)
	if err != nil {
		return channel.ResultTransientFailure
	}
	if user == nil || !user.Enabled {
		return channel.ResultPermanentFailure
	}

	switch n.Channel {
	case model.ChannelEmail:
		if user.Email == "" {
			return channel.ResultPermanentFailure
		}
		return w.email.Send(user.Email, n.Subject, n.Body, n.BodyHTML)

	case model.ChannelPush:
		topic, err := notify.PushTopic(ctx, w.directory, user.ID)
		if err != nil {
			return channel.ResultTransientFailure
		}
		if topic == "" {
			return channel.ResultPermanentFailure
		}
		title := strings.TrimPrefix(n.Subject, "[Cadence] ")
		return w.push.Publish(ctx, topic, title, pushMessage(n.Body), clickURL(n.Body))

	default:
		return channel.ResultPermanentFailure
	}
}

// pushMessage trims the plain body to its first paragraph for the push
// notification.
func pushMessage(body string) string {
	if idx := strings.Index(body, "\n\n"); idx >= 0 {
		return body[:idx]
	}
	return body
}

// clickURL extracts the task deep link from the plain body, if present.
func clickURL(body string) string {
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			return line
		}
	}
	return ""
}
