// Package orchestrator ties alarms, notifications, the calendar, running
// sessions and the pending check-in queue together. It is the only writer
// of an alarm's external handles.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/queue"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/session"
	"github.com/julianstephens/vigil/internal/storage"
	"github.com/julianstephens/vigil/internal/utils"
)

var (
	// ErrPartialCleanup is joined with the causes when some external
	// resources of an alarm could not be released.
	ErrPartialCleanup = errors.New("some alarm resources could not be released")
	// ErrCheckInQueued means the check-in could not be written to the main
	// store and was queued for the next reconcile instead.
	ErrCheckInQueued   = errors.New("check-in queued for retry")
	ErrSessionNotFound = errors.New("session not found")
)

// Options configures an Orchestrator.
type Options struct {
	Now func() time.Time
	// TickInterval and DismissAfter are passed to every session driver.
	TickInterval time.Duration
	DismissAfter time.Duration
}

// Orchestrator coordinates alarm side effects and session lifecycles.
type Orchestrator struct {
	store         storage.Provider
	notifications services.Notifications
	calendar      services.Calendar
	surface       services.Surface
	queue         *queue.CheckInQueue
	start         *queue.StartSignal
	opts          Options
	log           *log.Logger

	// ctx scopes work started from timer callbacks.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*running
}

// running is a live session and the id of its surface, if one was started.
type running struct {
	driver    *session.Driver
	surfaceID string
}

func New(
	store storage.Provider,
	notifications services.Notifications,
	calendar services.Calendar,
	surface services.Surface,
	checkIns *queue.CheckInQueue,
	start *queue.StartSignal,
	opts Options,
) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:         store,
		notifications: notifications,
		calendar:      calendar,
		surface:       surface,
		queue:         checkIns,
		start:         start,
		opts:          opts,
		log:           logger.Component("orchestrator"),
		ctx:           ctx,
		cancel:        cancel,
		sessions:      make(map[string]*running),
	}
}

// settings returns the stored user settings, or the defaults when they
// cannot be read.
func (o *Orchestrator) settings() models.Settings {
	s, err := o.store.GetSettings()
	if err != nil {
		o.log.Warn("Using default settings", "error", err)
		return models.DefaultSettings()
	}
	return s
}

// now returns the current time in the user's timezone.
func (o *Orchestrator) now() time.Time {
	now := o.opts.Now()
	loc, err := utils.LoadLocation(o.settings().Timezone)
	if err != nil {
		o.log.Warn("Invalid timezone setting, using local time", "error", err)
		return now
	}
	return now.In(loc)
}

// Now is the current time in the user's timezone.
func (o *Orchestrator) Now() time.Time {
	return o.now()
}

// Close stops every running session and ends its surface.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for _, id := range ids {
		if err := o.endSession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	o.cancel()
	return errors.Join(errs...)
}
