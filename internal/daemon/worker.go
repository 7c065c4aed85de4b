// Package daemon runs the long-lived vigil process: it fires scheduled
// notifications, drives the sessions they start and serves remote actions.
package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/notifier"
)

// Schedule is the notification registry as seen by the worker.
type Schedule interface {
	Due(ctx context.Context, now time.Time, grace time.Duration) ([]models.ScheduledNotification, error)
	NextFire(ctx context.Context, now time.Time) (time.Time, bool, error)
	MarkFired(ctx context.Context, id string, at time.Time) error
}

// Deliverer shows a fired notification to the user.
type Deliverer interface {
	Deliver(ctx context.Context, sn models.ScheduledNotification) error
}

// Sessions receives fired notifications and is resumed on every wake.
type Sessions interface {
	HandleNotification(ctx context.Context, payload models.NotificationPayload) (string, error)
	Resume(ctx context.Context) error
}

type Options struct {
	// PollInterval bounds the time between wakes when nothing is due.
	PollInterval time.Duration
	// Grace is how late a notification may still be delivered.
	Grace time.Duration
	Now   func() time.Time
}

type Worker struct {
	schedule   Schedule
	deliverer  Deliverer
	sessions   Sessions
	opts       Options
	log        *log.Logger
	updateChan chan struct{}
}

func NewWorker(schedule Schedule, deliverer Deliverer, sessions Sessions, opts Options) *Worker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	return &Worker{
		schedule:   schedule,
		deliverer:  deliverer,
		sessions:   sessions,
		opts:       opts,
		log:        logger.Component("daemon"),
		updateChan: make(chan struct{}, 1),
	}
}

// Refresh wakes the worker to re-evaluate immediately.
func (w *Worker) Refresh() {
	select {
	case w.updateChan <- struct{}{}:
	default:
	}
}

// Start runs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Worker started", "poll", w.opts.PollInterval, "grace", w.opts.Grace)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		next := w.Process(ctx)

		d := next.Sub(w.opts.Now())
		if d < 0 {
			d = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
		w.log.Debug("Next wake scheduled", "in", d.Round(time.Second), "at", next.Format("15:04:05"))

		select {
		case <-ctx.Done():
			timer.Stop()
			w.log.Info("Worker stopped")
			return
		case <-w.updateChan:
			w.log.Debug("Worker refreshed")
		case <-timer.C:
		}
	}
}

// Process delivers every due notification, hands it to the sessions and
// resumes them. It returns when the worker should wake next.
func (w *Worker) Process(ctx context.Context) time.Time {
	now := w.opts.Now()

	due, err := w.schedule.Due(ctx, now, w.opts.Grace)
	if err != nil {
		w.log.Error("Failed to read scheduled notifications", "error", err)
	}
	for _, sn := range due {
		w.fire(ctx, sn, now)
	}

	if err := w.sessions.Resume(ctx); err != nil {
		w.log.Warn("Resume finished with errors", "error", err)
	}

	next := now.Add(w.opts.PollInterval)
	at, ok, err := w.schedule.NextFire(ctx, now)
	if err != nil {
		w.log.Error("Failed to compute next notification", "error", err)
	} else if ok && at.Before(next) {
		next = at
	}
	return next
}

func (w *Worker) fire(ctx context.Context, sn models.ScheduledNotification, now time.Time) {
	payload := sn.Request.Payload
	w.log.Info("Notification due", "id", sn.ID, "kind", payload.Kind, "alarm", payload.AlarmTitle)

	if err := w.deliverer.Deliver(ctx, sn); err != nil {
		if errors.Is(err, notifier.ErrTrayNotRunning) {
			w.log.Warn("Tray app not running, notification not shown", "id", sn.ID)
		} else {
			w.log.Error("Failed to deliver notification", "id", sn.ID, "error", err)
		}
	}
	// Marked even when delivery failed so one occurrence is never retried.
	if err := w.schedule.MarkFired(ctx, sn.ID, now); err != nil {
		w.log.Error("Failed to mark notification fired", "id", sn.ID, "error", err)
	}

	id, err := w.sessions.HandleNotification(ctx, payload)
	if err != nil {
		w.log.Error("Failed to start session", "id", sn.ID, "error", err)
		return
	}
	w.log.Info("Session running", "session_id", id, "kind", payload.Kind)
}
