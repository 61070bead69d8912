package notify

import (
	"context"

	"github.com/cadence-tracker/cadence/internal/model"
)

// Pipeline wires recipient resolution, formatting, and the durable
// queue together for the web-serving path. It performs no network IO;
// delivery happens on the worker.
type Pipeline struct {
	watchers  WatcherSource
	directory Directory
	queue     Queue
	formatter *Formatter
}

// NewPipeline creates a notification pipeline.
func NewPipeline(watchers WatcherSource, dir Directory, queue Queue, formatter *Formatter) *Pipeline {
	return &Pipeline{
		watchers:  watchers,
		directory: dir,
		queue:     queue,
		formatter: formatter,
	}
}

// EnqueueForActivity inserts one queue row per (recipient, enabled
// channel) pair for the given activity: email when the recipient has
// email notifications enabled (the default), push when they have a push
// topic configured. Activities flagged skip_notification produce zero
// rows. Returns the number of rows inserted.
func (p *Pipeline) EnqueueForActivity(
	ctx context.Context,
	activity *model.Activity,
	task *model.Task,
	baseURL string,
) (int, error) {
	if activity.SkipNotification {
		return 0, nil
	}

	var actor *model.User
	if activity.ActorID != nil {
		var err error
		actor, err = p.directory.GetUser(ctx, *activity.ActorID)
		if err != nil {
			return 0, err
		}
	}

	recipients, err := Recipients(ctx, p.watchers, p.directory, task, activity.ActorID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	msg := p.formatter.Format(activity, task, actor, baseURL)

	count := 0
	for _, user := range recipients {
		emailOn, err := EmailEnabled(ctx, p.directory, user.ID)
		if err != nil {
			return count, err
		}
		if emailOn {
			n := &model.Notification{
				UserID:   user.ID,
				TaskID:   &task.ID,
				Channel:  model.ChannelEmail,
				Subject:  msg.Subject,
				Body:     msg.Body,
				BodyHTML: msg.BodyHTML,
			}
			if err := p.queue.EnqueueNotification(ctx, n); err != nil {
				return count, err
			}
			count++
		}

		topic, err := PushTopic(ctx, p.directory, user.ID)
		if err != nil {
			return count, err
		}
		if topic != "" {
			n := &model.Notification{
				UserID:  user.ID,
				TaskID:  &task.ID,
				Channel: model.ChannelPush,
				Subject: msg.Subject,
				Body:    msg.Body,
			}
			if err := p.queue.EnqueueNotification(ctx, n); err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}
