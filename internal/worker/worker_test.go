package worker_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/cadence-tracker/cadence/internal/channel"
	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/store"
	"github.com/cadence-tracker/cadence/internal/worker"
	"github.com/cadence-tracker/cadence/tests/testutil"
)

type sentEmail struct {
	to, subject, body, bodyHTML string
}

type fakeEmailSender struct {
	result channel.Result
	sent   []sentEmail
}

func (f *fakeEmailSender) Send(to, subject, body, bodyHTML string) channel.Result {
	f.sent = append(f.sent, sentEmail{to, subject, body, bodyHTML})
	return f.result
}

type publishedPush struct {
	topic, title, message, clickURL string
}

type fakePushSender struct {
	result    channel.Result
	published []publishedPush
}

func (f *fakePushSender) Publish(ctx context.Context, topic, title, message, clickURL string) channel.Result {
	f.published = append(f.published, publishedPush{topic, title, message, clickURL})
	return f.result
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newWorker(
	s *store.SQLiteStore,
	email *fakeEmailSender,
	push *fakePushSender,
) *worker.Worker {
	cfg := model.WorkerConfig{PollIntervalSec: 1, BatchSize: 50, MaxRetries: 3}
	return worker.New(s, s, email, push, cfg, quietLogger())
}

func enqueueEmail(t *testing.T, s *store.SQLiteStore, userID int64, subject string) *model.Notification {
	t.Helper()

	n := &model.Notification{
		UserID:  userID,
		Channel: model.ChannelEmail,
		Subject: subject,
		Body:    "A change happened.\n\nhttps://cadence.example.com/tasks/t",
	}
	if err := s.EnqueueNotification(context.Background(), n); err != nil {
		t.Fatalf("enqueueing: %v", err)
	}
	return n
}

func TestProcessBatchDeliversEmail(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, s, "alice@example.com")
	n := enqueueEmail(t, s, user.ID, "[Cadence] New task: X")

	email := &fakeEmailSender{result: channel.ResultSent}
	w := newWorker(s, email, &fakePushSender{result: channel.ResultSent})

	processed, err := w.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("processing batch: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed %d rows, want 1", processed)
	}
	if len(email.sent) != 1 || email.sent[0].to != "alice@example.com" {
		t.Fatalf("sent = %v, want one email to alice", email.sent)
	}

	got, err := s.GetNotificationByUUID(ctx, n.UUID)
	if err != nil {
		t.Fatalf("reloading notification: %v", err)
	}
	if got.Status != model.NotificationSent {
		t.Errorf("status = %s, want sent", got.Status)
	}
	if got.SentAt == nil {
		t.Error("sent_at not stamped")
	}
}

func TestProcessBatchRetriesTransientFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, s, "alice@example.com")
	n := enqueueEmail(t, s, user.ID, "flaky")

	email := &fakeEmailSender{result: channel.ResultTransientFailure}
	w := newWorker(s, email, &fakePushSender{result: channel.ResultSent})

	// First two attempts keep the row pending for re-pickup.
	for attempt := 1; attempt <= 2; attempt++ {
		if _, err := w.ProcessBatch(ctx); err != nil {
			t.Fatalf("processing batch (attempt %d): %v", attempt, err)
		}
		got, err := s.GetNotificationByUUID(ctx, n.UUID)
		if err != nil {
			t.Fatalf("reloading notification: %v", err)
		}
		if got.Status != model.NotificationPending {
			t.Fatalf("status after attempt %d = %s, want pending", attempt, got.Status)
		}
		if got.Retries != attempt {
			t.Fatalf("retries after attempt %d = %d", attempt, got.Retries)
		}
	}

	// The third attempt exhausts the budget.
	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("processing batch (final attempt): %v", err)
	}
	got, err := s.GetNotificationByUUID(ctx, n.UUID)
	if err != nil {
		t.Fatalf("reloading notification: %v", err)
	}
	if got.Status != model.NotificationFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Retries != 3 {
		t.Errorf("retries = %d, want 3", got.Retries)
	}
	if len(email.sent) != 3 {
		t.Errorf("delivery attempts = %d, want 3", len(email.sent))
	}
}

func TestProcessBatchPermanentFailureSkipsRetries(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, s, "alice@example.com")

	// A push row for a user with no topic configured cannot ever succeed.
	n := &model.Notification{
		UserID:  user.ID,
		Channel: model.ChannelPush,
		Subject: "[Cadence] New task: X",
		Body:    "body",
	}
	if err := s.EnqueueNotification(ctx, n); err != nil {
		t.Fatalf("enqueueing: %v", err)
	}

	push := &fakePushSender{result: channel.ResultSent}
	w := newWorker(s, &fakeEmailSender{result: channel.ResultSent}, push)

	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("processing batch: %v", err)
	}

	if len(push.published) != 0 {
		t.Errorf("publish attempted %d times for an unresolvable topic", len(push.published))
	}
	got, err := s.GetNotificationByUUID(ctx, n.UUID)
	if err != nil {
		t.Fatalf("reloading notification: %v", err)
	}
	if got.Status != model.NotificationFailed {
		t.Errorf("status = %s, want failed on first pass", got.Status)
	}
}

func TestProcessBatchDisabledRecipientFailsPermanently(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, s, "gone@example.com")
	n := enqueueEmail(t, s, user.ID, "late mail")

	if err := s.SetUserEnabled(ctx, user.ID, false); err != nil {
		t.Fatalf("disabling user: %v", err)
	}

	email := &fakeEmailSender{result: channel.ResultSent}
	w := newWorker(s, email, &fakePushSender{result: channel.ResultSent})

	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("processing batch: %v", err)
	}

	if len(email.sent) != 0 {
		t.Error("email sent to a disabled recipient")
	}
	got, err := s.GetNotificationByUUID(ctx, n.UUID)
	if err != nil {
		t.Fatalf("reloading notification: %v", err)
	}
	if got.Status != model.NotificationFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestProcessBatchRowIsolation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	healthy := testutil.NewTestUser(t, s, "healthy@example.com")
	broken := testutil.NewTestUser(t, s, "broken@example.com")

	bad := enqueueEmail(t, s, broken.ID, "first in line")
	good := enqueueEmail(t, s, healthy.ID, "second in line")

	if err := s.SetUserEnabled(ctx, broken.ID, false); err != nil {
		t.Fatalf("disabling user: %v", err)
	}

	email := &fakeEmailSender{result: channel.ResultSent}
	w := newWorker(s, email, &fakePushSender{result: channel.ResultSent})

	processed, err := w.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("processing batch: %v", err)
	}
	if processed != 2 {
		t.Fatalf("processed %d rows, want 2", processed)
	}

	// The earlier row's failure must not stop the later one.
	gotBad, err := s.GetNotificationByUUID(ctx, bad.UUID)
	if err != nil {
		t.Fatalf("reloading failed row: %v", err)
	}
	gotGood, err := s.GetNotificationByUUID(ctx, good.UUID)
	if err != nil {
		t.Fatalf("reloading delivered row: %v", err)
	}
	if gotBad.Status != model.NotificationFailed {
		t.Errorf("first row status = %s, want failed", gotBad.Status)
	}
	if gotGood.Status != model.NotificationSent {
		t.Errorf("second row status = %s, want sent", gotGood.Status)
	}
}

func TestProcessBatchPushContent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, s, "alice@example.com")
	if err := s.SetUserProperty(ctx, user.ID,
		model.PropertyNamespaceNotify, model.PropertyPushTopic, "alice-tasks"); err != nil {
		t.Fatalf("setting topic: %v", err)
	}

	n := &model.Notification{
		UserID:  user.ID,
		Channel: model.ChannelPush,
		Subject: "[Cadence] New task: X",
		Body:    "Bob created a new task.\n\nhttps://cadence.example.com/tasks/t",
	}
	if err := s.EnqueueNotification(ctx, n); err != nil {
		t.Fatalf("enqueueing: %v", err)
	}

	push := &fakePushSender{result: channel.ResultSent}
	w := newWorker(s, &fakeEmailSender{result: channel.ResultSent}, push)

	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("processing batch: %v", err)
	}

	if len(push.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(push.published))
	}
	p := push.published[0]
	if p.topic != "alice-tasks" {
		t.Errorf("topic = %q", p.topic)
	}
	if p.title != "New task: X" {
		t.Errorf("title = %q, want the subject without the app prefix", p.title)
	}
	if p.message != "Bob created a new task." {
		t.Errorf("message = %q, want the first paragraph only", p.message)
	}
	if p.clickURL != "https://cadence.example.com/tasks/t" {
		t.Errorf("click url = %q", p.clickURL)
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	s := testutil.NewTestStore(t)

	w := newWorker(s,
		&fakeEmailSender{result: channel.ResultSent},
		&fakePushSender{result: channel.ResultSent})

	processed, err := w.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("processing empty queue: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed %d rows, want 0", processed)
	}
}
