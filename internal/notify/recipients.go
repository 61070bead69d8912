package notify

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cadence-tracker/cadence/internal/model"
)

// Recipients computes the notification audience for a change on a task:
// the owner plus all watchers, minus the acting user, minus anyone the
// directory reports as missing or disabled. Each identity appears at
// most once and the result carries no defined order.
func Recipients(
	ctx context.Context,
	watchers WatcherSource,
	dir Directory,
	task *model.Task,
	actorID *int64,
) ([]model.User, error) {
	ids := mapset.NewThreadUnsafeSet(task.OwnerID)

	watcherIDs, err := watchers.GetWatcherIDs(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	ids.Append(watcherIDs...)

	// Actors never notify themselves, even as owner or watcher.
	if actorID != nil {
		ids.Remove(*actorID)
	}

	var recipients []model.User
	for id := range ids.Iter() {
		user, err := dir.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil || !user.Enabled {
			continue
		}
		recipients = append(recipients, *user)
	}

	return recipients, nil
}
