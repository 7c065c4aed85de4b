package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/models"
)

// Options configures a Driver. Zero values fall back to the defaults.
type Options struct {
	TickInterval time.Duration
	DismissAfter time.Duration
	Now          func() time.Time

	// Callbacks run on the goroutine that caused the change, never while the
	// driver's lock is held.
	OnUpdate   func(id string, state models.ActivityState)
	OnComplete func(id string, state models.ActivityState)
	OnDismiss  func(id string)
}

func (o *Options) applyDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = constants.SessionTickInterval
	}
	if o.DismissAfter <= 0 {
		o.DismissAfter = constants.SessionAutoDismiss
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Driver owns one session: it runs the per-second ticker while the session is
// active and the auto-dismiss timer once it completes.
type Driver struct {
	mu       sync.Mutex
	s        *Session
	opts     Options
	stopTick chan struct{}
	dismiss  *time.Timer
	stopped  bool
}

func NewDriver(s *Session, opts Options) *Driver {
	opts.applyDefaults()
	return &Driver{s: s, opts: opts}
}

func (d *Driver) ID() string {
	return d.s.ID
}

func (d *Driver) AlarmID() string {
	return d.s.AlarmID
}

func (d *Driver) PrayerID() string {
	return d.s.Prayer.ID
}

func (d *Driver) Phase() models.Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.Phase()
}

// Snapshot returns the attributes and current state without advancing time.
func (d *Driver) Snapshot() (models.ActivityAttributes, models.ActivityState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.Attributes(), d.s.State(d.opts.Now())
}

// Stopped reports whether the driver was stopped or dismissed.
func (d *Driver) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// AlarmFired forwards the at-time notification to the session.
func (d *Driver) AlarmFired(requireStart bool) error {
	return d.transition(func(now time.Time) error {
		return d.s.AlarmFired(now, requireStart)
	})
}

// BeginCountdown starts a ready session.
func (d *Driver) BeginCountdown() error {
	return d.transition(d.s.BeginCountdown)
}

func (d *Driver) transition(fn func(now time.Time) error) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return fmt.Errorf("%w: session %s is stopped", ErrInvalidTransition, d.s.ID)
	}
	now := d.opts.Now()
	if err := fn(now); err != nil {
		d.mu.Unlock()
		return err
	}
	completed := d.afterChangeLocked(now)
	state := d.s.State(now)
	d.mu.Unlock()

	d.notify(state, completed)
	return nil
}

// Tick recomputes the session from the wall clock. It is safe to call at any
// time, including right after a long suspension.
func (d *Driver) Tick() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	now := d.opts.Now()
	active := d.s.Phase() == models.PhaseActive
	completed := d.s.Tick(now) && d.afterChangeLocked(now)
	state := d.s.State(now)
	d.mu.Unlock()

	if active {
		d.notify(state, completed)
	}
}

// afterChangeLocked starts or stops the background timers to match the
// session phase. It reports whether the session is now completed.
func (d *Driver) afterChangeLocked(now time.Time) bool {
	switch d.s.Phase() {
	case models.PhaseActive:
		d.startTickerLocked()
		return false
	case models.PhaseCompleted:
		d.stopTickerLocked()
		d.scheduleDismissLocked(now)
		return true
	}
	return false
}

func (d *Driver) startTickerLocked() {
	if d.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	d.stopTick = stop
	interval := d.opts.TickInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Tick()
			}
		}
	}()
}

func (d *Driver) stopTickerLocked() {
	if d.stopTick != nil {
		close(d.stopTick)
		d.stopTick = nil
	}
}

func (d *Driver) scheduleDismissLocked(now time.Time) {
	if d.dismiss != nil {
		return
	}
	deadline := now.Add(d.opts.DismissAfter)
	if at := d.s.CompletedAt(); at != nil {
		deadline = at.Add(d.opts.DismissAfter)
	}
	delay := deadline.Sub(now)
	if delay < 0 {
		delay = 0
	}
	d.dismiss = time.AfterFunc(delay, d.autoDismiss)
}

func (d *Driver) autoDismiss() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.dismiss = nil
	d.mu.Unlock()

	if d.opts.OnDismiss != nil {
		d.opts.OnDismiss(d.s.ID)
	}
}

// Stop cancels the ticker and the auto-dismiss timer. Further transitions
// fail and ticks are ignored.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.stopTickerLocked()
	if d.dismiss != nil {
		d.dismiss.Stop()
		d.dismiss = nil
	}
}

func (d *Driver) notify(state models.ActivityState, completed bool) {
	if d.opts.OnUpdate != nil {
		d.opts.OnUpdate(d.s.ID, state)
	}
	if completed && d.opts.OnComplete != nil {
		d.opts.OnComplete(d.s.ID, state)
	}
}
