package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/session"
	"github.com/julianstephens/vigil/internal/utils"
)

// SessionInfo is a snapshot of one running session.
type SessionInfo struct {
	SurfaceID  string
	Attributes models.ActivityAttributes
	State      models.ActivityState
}

// HandleNotification dispatches a fired notification by its kind and
// returns the id of the session it created or advanced.
func (o *Orchestrator) HandleNotification(ctx context.Context, payload models.NotificationPayload) (string, error) {
	switch payload.Kind {
	case models.NotificationWarning:
		return o.OnWarningFired(ctx, payload)
	case models.NotificationAlarm:
		return o.OnAlarmFired(ctx, payload)
	}
	return "", fmt.Errorf("unknown notification type %q", payload.Kind)
}

// OnWarningFired starts a session in the warning phase. A second warning for
// an alarm that already has a live session returns that session.
func (o *Orchestrator) OnWarningFired(ctx context.Context, payload models.NotificationPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	if id, _ := o.sessionForAlarm(payload.AlarmID); id != "" {
		return id, nil
	}

	alarmTime := utils.NextOccurrence(payload.Hour, payload.Minute, o.now())
	d := o.newDriver(session.New(uuid.New().String(), payload, alarmTime))
	if existing := o.register(ctx, d); existing != "" {
		return existing, nil
	}
	o.log.Info("Warning session started", "session_id", d.ID(), "alarm_id", payload.AlarmID)
	return d.ID(), nil
}

// OnAlarmFired advances the alarm's warning session, or builds a new one
// from the payload alone when none is running.
func (o *Orchestrator) OnAlarmFired(ctx context.Context, payload models.NotificationPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	requireStart := o.settings().RequireStartTap

	if id, phase := o.sessionForAlarm(payload.AlarmID); id != "" {
		switch phase {
		case models.PhaseWarning:
			_, r := o.resolve(id)
			if r == nil {
				break
			}
			if err := r.driver.AlarmFired(requireStart); err != nil {
				return "", err
			}
			o.log.Info("Session advanced", "session_id", id, "phase", r.driver.Phase())
			return id, nil
		case models.PhaseReady, models.PhaseActive:
			return id, nil
		default:
			if err := o.endSession(ctx, id); err != nil {
				o.log.Warn("Failed to end completed session", "session_id", id, "error", err)
			}
		}
	}

	now := o.now()
	alarmTime := utils.PreviousOccurrence(payload.Hour, payload.Minute, now)
	d := o.newDriver(session.New(uuid.New().String(), payload, alarmTime))
	if err := d.AlarmFired(requireStart); err != nil {
		d.Stop()
		return "", err
	}
	if existing := o.register(ctx, d); existing != "" {
		return existing, nil
	}
	o.log.Info("Alarm session started", "session_id", d.ID(), "alarm_id", payload.AlarmID, "phase", d.Phase())
	return d.ID(), nil
}

// BeginCountdown starts a ready session. id may be the session id or the id
// of its surface.
func (o *Orchestrator) BeginCountdown(ctx context.Context, id string) error {
	sid, r := o.resolve(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := r.driver.BeginCountdown(); err != nil {
		return err
	}
	o.log.Info("Countdown started", "session_id", sid)
	return nil
}

// CheckIn records a check-in for the session's prayer and ends the session.
// When the check-in cannot be saved it is queued and ErrCheckInQueued is
// returned alongside the cause.
func (o *Orchestrator) CheckIn(ctx context.Context, id string) (models.CheckIn, error) {
	sid, r := o.resolve(id)
	if r == nil {
		return models.CheckIn{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	c := o.checkInFor(r.driver.PrayerID())
	c.ID = uuid.New().String()
	c.Timestamp = o.opts.Now()
	saveErr := o.save(ctx, c, sid)

	if err := o.endSession(ctx, sid); err != nil {
		o.log.Warn("Session surface not ended", "session_id", sid, "error", err)
	}
	return c, saveErr
}

// RecordCheckIn writes a check-in outside any session. An empty prayerID
// records a generic check-in; an unknown one is an error.
func (o *Orchestrator) RecordCheckIn(ctx context.Context, prayerID, title string) (models.CheckIn, error) {
	c := models.CheckIn{ID: uuid.New().String(), Timestamp: o.opts.Now()}
	if prayerID != "" {
		p, err := o.store.GetPrayer(prayerID)
		if err != nil {
			return models.CheckIn{}, err
		}
		c.PrayerID = &p.ID
		c.Title = &p.Title
	}
	if title != "" {
		c.Title = &title
	}
	return c, o.save(ctx, c, "")
}

// save writes c, queueing it for the next reconcile when the store fails.
func (o *Orchestrator) save(ctx context.Context, c models.CheckIn, sessionID string) error {
	err := o.store.AddCheckIn(c)
	if err == nil {
		o.log.Info("Checked in", "check_in_id", c.ID, "prayer_id", deref(c.PrayerID))
		return nil
	}
	o.log.Error("Failed to save check-in, queueing", "error", err)
	pending := models.PendingCheckIn{PrayerID: deref(c.PrayerID), Timestamp: c.Timestamp, SessionID: sessionID, Title: deref(c.Title)}
	if _, qErr := o.queue.Add(ctx, pending); qErr != nil {
		return fmt.Errorf("check-in lost: %w", errors.Join(err, qErr))
	}
	return errors.Join(ErrCheckInQueued, err)
}

// checkInFor builds a check-in bound to prayerID, or a generic one when the
// prayer no longer exists.
func (o *Orchestrator) checkInFor(prayerID string) models.CheckIn {
	var c models.CheckIn
	if prayerID == "" {
		return c
	}
	p, err := o.store.GetPrayer(prayerID)
	if err != nil {
		if !isNotFound(err) {
			o.log.Warn("Prayer lookup failed, recording generic check-in", "prayer_id", prayerID, "error", err)
		}
		return c
	}
	c.PrayerID = &p.ID
	c.Title = &p.Title
	return c
}

// Dismiss ends a session without checking in.
func (o *Orchestrator) Dismiss(ctx context.Context, id string) error {
	sid, r := o.resolve(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return o.endSession(ctx, sid)
}

// ConsumePendingStart applies the start request left by a remote surface.
// Requests older than PendingStartMaxAge or for unknown sessions are
// dropped. It reports whether a countdown was started.
func (o *Orchestrator) ConsumePendingStart(ctx context.Context, maxAge time.Duration) (bool, error) {
	sig, ok, err := o.start.Take(ctx)
	if err != nil || !ok {
		return false, err
	}
	if age := o.opts.Now().Sub(sig.Timestamp); age > maxAge {
		o.log.Info("Ignoring stale start request", "activity_id", sig.ActivityID, "age", age.Round(time.Second))
		return false, nil
	}
	_, r := o.resolve(sig.ActivityID)
	if r == nil {
		o.log.Debug("Start request for unknown session", "activity_id", sig.ActivityID)
		return false, nil
	}
	if r.driver.Phase() != models.PhaseReady {
		return false, nil
	}
	if err := o.BeginCountdown(ctx, sig.ActivityID); err != nil {
		return false, err
	}
	return true, nil
}

// Sessions returns a snapshot of every running session ordered by alarm
// time.
func (o *Orchestrator) Sessions() []SessionInfo {
	o.mu.Lock()
	list := make([]*running, 0, len(o.sessions))
	for _, r := range o.sessions {
		list = append(list, r)
	}
	o.mu.Unlock()

	out := make([]SessionInfo, 0, len(list))
	for _, r := range list {
		attrs, state := r.driver.Snapshot()
		out = append(out, SessionInfo{SurfaceID: o.surfaceOf(attrs.SessionID), Attributes: attrs, State: state})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Attributes, out[j].Attributes
		if a.AlarmTime.Equal(b.AlarmTime) {
			return a.SessionID < b.SessionID
		}
		return a.AlarmTime.Before(b.AlarmTime)
	})
	return out
}

func (o *Orchestrator) newDriver(s *session.Session) *session.Driver {
	return session.NewDriver(s, session.Options{
		TickInterval: o.opts.TickInterval,
		DismissAfter: o.opts.DismissAfter,
		Now:          o.opts.Now,
		OnUpdate:     o.onUpdate,
		OnComplete:   o.onComplete,
		OnDismiss:    o.onDismiss,
	})
}

// register tracks d and starts its surface. The session runs without a
// surface when none can be started. When the alarm already has a session,
// d is stopped and the id of the existing session returned instead.
func (o *Orchestrator) register(ctx context.Context, d *session.Driver) string {
	r := &running{driver: d}
	o.mu.Lock()
	if alarmID := d.AlarmID(); alarmID != "" {
		for id, other := range o.sessions {
			if other.driver.AlarmID() == alarmID {
				o.mu.Unlock()
				d.Stop()
				return id
			}
		}
	}
	o.sessions[d.ID()] = r
	o.mu.Unlock()

	attrs, state := d.Snapshot()
	id, err := o.surface.Start(ctx, attrs, state)
	switch {
	case errors.Is(err, services.ErrUnavailable), errors.Is(err, services.ErrLimitReached):
		o.log.Info("Session running without surface", "session_id", d.ID(), "reason", err)
		return ""
	case err != nil:
		o.log.Warn("Failed to start session surface", "session_id", d.ID(), "error", err)
		return ""
	}

	o.mu.Lock()
	r.surfaceID = id
	o.mu.Unlock()
	o.setLiveActivity(d.AlarmID(), &id)
	return ""
}

// resolve finds a running session by session id or surface id.
func (o *Orchestrator) resolve(id string) (string, *running) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.sessions[id]; ok {
		return id, r
	}
	for sid, r := range o.sessions {
		if r.surfaceID != "" && r.surfaceID == id {
			return sid, r
		}
	}
	return "", nil
}

func (o *Orchestrator) surfaceOf(sessionID string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.sessions[sessionID]; ok {
		return r.surfaceID
	}
	return ""
}

// sessionForAlarm returns the live session of alarmID and its phase.
func (o *Orchestrator) sessionForAlarm(alarmID string) (string, models.Phase) {
	if alarmID == "" {
		return "", ""
	}
	ids := o.sessionsForAlarm(alarmID)
	if len(ids) == 0 {
		return "", ""
	}
	_, r := o.resolve(ids[0])
	if r == nil {
		return "", ""
	}
	return ids[0], r.driver.Phase()
}

func (o *Orchestrator) sessionsForAlarm(alarmID string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var ids []string
	for id, r := range o.sessions {
		if r.driver.AlarmID() == alarmID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// endSession stops the session and ends its surface. Unknown ids are
// ignored.
func (o *Orchestrator) endSession(ctx context.Context, id string) error {
	o.mu.Lock()
	r, ok := o.sessions[id]
	delete(o.sessions, id)
	o.mu.Unlock()
	if !ok {
		return nil
	}

	r.driver.Stop()
	if r.surfaceID != "" {
		if err := o.surface.End(ctx, r.surfaceID); err != nil {
			return fmt.Errorf("failed to end surface %s: %w", r.surfaceID, err)
		}
		o.setLiveActivity(r.driver.AlarmID(), nil)
	}
	o.log.Debug("Session ended", "session_id", id)
	return nil
}

// setLiveActivity records the surface handle on the session's alarm.
func (o *Orchestrator) setLiveActivity(alarmID string, id *string) {
	if alarmID == "" {
		return
	}
	if err := o.store.SetAlarmLiveActivity(alarmID, id); err != nil && !isNotFound(err) {
		o.log.Warn("Failed to save surface handle", "alarm_id", alarmID, "error", err)
	}
}

func (o *Orchestrator) onUpdate(id string, state models.ActivityState) {
	surfaceID := o.surfaceOf(id)
	if surfaceID == "" {
		return
	}
	err := o.surface.Update(o.ctx, surfaceID, state)
	switch {
	case errors.Is(err, services.ErrActivityNotFound):
		// Ended by another process, for example a disable from the CLI.
		o.log.Info("Surface ended elsewhere, stopping session", "session_id", id)
		if err := o.endSession(o.ctx, id); err != nil {
			o.log.Warn("Failed to end session", "session_id", id, "error", err)
		}
	case err != nil:
		o.log.Warn("Failed to update session surface", "session_id", id, "error", err)
	}
}

func (o *Orchestrator) onComplete(id string, _ models.ActivityState) {
	o.log.Info("Session completed", "session_id", id)
}

func (o *Orchestrator) onDismiss(id string) {
	o.log.Info("Session dismissed without check-in", "session_id", id)
	if err := o.endSession(o.ctx, id); err != nil {
		o.log.Warn("Failed to end dismissed session", "session_id", id, "error", err)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
