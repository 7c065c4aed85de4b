// Package remote exposes the actions a session surface can invoke while the
// process that owns the session is not in the foreground: check in, and
// begin the countdown. Actions only write to the shared store; the owning
// process applies them on its next wake.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/queue"
	"github.com/julianstephens/vigil/internal/services"
)

// Remote is implemented by both the local Actions and the HTTP Client.
type Remote interface {
	CheckIn(ctx context.Context, prayerID, activityID string) error
	Start(ctx context.Context, activityID string) error
	Activities(ctx context.Context) ([]models.Activity, error)
}

type Actions struct {
	checkIns *queue.CheckInQueue
	start    *queue.StartSignal
	surface  services.Surface
	poke     func()
}

// NewActions returns Actions over the shared store. poke, when non-nil, is
// called after every action so the owning process can apply it at once.
func NewActions(checkIns *queue.CheckInQueue, start *queue.StartSignal, surface services.Surface, poke func()) *Actions {
	return &Actions{checkIns: checkIns, start: start, surface: surface, poke: poke}
}

var _ Remote = (*Actions)(nil)

// CheckIn queues a check-in for the activity. An empty prayerID is taken
// from the activity when it is still running.
func (a *Actions) CheckIn(ctx context.Context, prayerID, activityID string) error {
	if activityID == "" {
		return fmt.Errorf("activity id cannot be empty")
	}
	if prayerID == "" {
		activity, err := a.surface.Get(ctx, activityID)
		switch {
		case err == nil:
			prayerID = activity.Attributes.PrayerID
		case errors.Is(err, services.ErrActivityNotFound):
			logger.Debug("Check-in for finished activity", "activity_id", activityID)
		default:
			return err
		}
	}
	if _, err := a.checkIns.Enqueue(ctx, prayerID, activityID); err != nil {
		return err
	}
	a.notify()
	return nil
}

// Start records a request to begin the activity's countdown.
func (a *Actions) Start(ctx context.Context, activityID string) error {
	activity, err := a.surface.Get(ctx, activityID)
	if err != nil {
		return err
	}
	if activity.State.Phase != models.PhaseReady {
		return fmt.Errorf("activity %s is %s, not ready", activityID, activity.State.Phase)
	}
	if err := a.start.Set(ctx, activityID); err != nil {
		return err
	}
	a.notify()
	return nil
}

func (a *Actions) Activities(ctx context.Context) ([]models.Activity, error) {
	return a.surface.List(ctx)
}

func (a *Actions) notify() {
	if a.poke != nil {
		a.poke()
	}
}
