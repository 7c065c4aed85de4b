package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/storage"
	"github.com/julianstephens/vigil/internal/utils"
)

// CreateAlarm persists a new alarm and, when it is enabled, schedules its
// notifications and calendar event.
func (o *Orchestrator) CreateAlarm(ctx context.Context, alarm models.Alarm) (models.Alarm, error) {
	if alarm.ID == "" {
		alarm.ID = uuid.New().String()
	}
	if alarm.CreatedAt.IsZero() {
		alarm.CreatedAt = o.opts.Now()
	}
	alarm.NotificationID = nil
	alarm.WarningNotificationID = nil
	alarm.CalendarEventID = nil
	alarm.LiveActivityID = nil

	if err := alarm.Validate(); err != nil {
		return models.Alarm{}, err
	}
	if err := o.bindPrayer(&alarm); err != nil {
		return models.Alarm{}, err
	}
	if err := o.store.AddAlarm(alarm); err != nil {
		return models.Alarm{}, fmt.Errorf("failed to save alarm: %w", err)
	}
	if !alarm.Enabled {
		return alarm, nil
	}

	o.enable(ctx, &alarm)
	if err := o.store.UpdateAlarmSchedule(alarm); err != nil {
		o.unschedule(ctx, &alarm)
		return alarm, fmt.Errorf("failed to save alarm handles: %w", err)
	}
	o.log.Info("Alarm created", "id", alarm.ID, "time", alarm.TimeString())
	return alarm, nil
}

// UpdateAlarm applies an edit: the old schedule is released and, when the
// edited alarm is enabled, a new one is set up.
func (o *Orchestrator) UpdateAlarm(ctx context.Context, alarm models.Alarm) (models.Alarm, error) {
	if err := alarm.Validate(); err != nil {
		return models.Alarm{}, err
	}
	existing, err := o.store.GetAlarm(alarm.ID)
	if err != nil {
		return models.Alarm{}, err
	}
	if err := o.bindPrayer(&alarm); err != nil {
		return models.Alarm{}, err
	}

	cleanupErr := o.disable(ctx, &existing)
	alarm.CreatedAt = existing.CreatedAt
	alarm.NotificationID = existing.NotificationID
	alarm.WarningNotificationID = existing.WarningNotificationID
	alarm.CalendarEventID = existing.CalendarEventID
	alarm.LiveActivityID = existing.LiveActivityID

	if alarm.Enabled {
		o.enable(ctx, &alarm)
	}
	if err := o.store.UpdateAlarm(alarm); err != nil {
		o.unschedule(ctx, &alarm)
		return alarm, fmt.Errorf("failed to save alarm: %w", err)
	}
	return alarm, cleanupErr
}

// RescheduleAlarm re-creates the notifications and calendar event of an
// enabled alarm, for example after its prayer was renamed. A running session
// and its surface are left alone.
func (o *Orchestrator) RescheduleAlarm(ctx context.Context, id string) (models.Alarm, error) {
	alarm, err := o.store.GetAlarm(id)
	if err != nil {
		return models.Alarm{}, err
	}
	if !alarm.Enabled {
		return alarm, nil
	}
	if err := o.bindPrayer(&alarm); err != nil {
		return models.Alarm{}, err
	}

	var cleanupErr error
	if errs := o.releaseSchedule(ctx, &alarm); len(errs) > 0 {
		cleanupErr = errors.Join(append([]error{ErrPartialCleanup}, errs...)...)
	}
	o.enable(ctx, &alarm)
	if err := o.store.UpdateAlarmSchedule(alarm); err != nil {
		o.unschedule(ctx, &alarm)
		return alarm, fmt.Errorf("failed to save alarm handles: %w", err)
	}
	o.log.Info("Alarm rescheduled", "id", alarm.ID)
	return alarm, cleanupErr
}

// ToggleAlarm enables or disables an alarm. A disable that could only
// partly release the alarm's resources still completes; the failure is
// returned as ErrPartialCleanup after the alarm is saved.
func (o *Orchestrator) ToggleAlarm(ctx context.Context, id string, enabled bool) (models.Alarm, error) {
	alarm, err := o.store.GetAlarm(id)
	if err != nil {
		return models.Alarm{}, err
	}
	if err := o.bindPrayer(&alarm); err != nil {
		o.log.Warn("Alarm prayer missing, continuing unbound", "alarm_id", id, "error", err)
		alarm.Prayer = nil
	}

	alarm.Enabled = enabled
	var cleanupErr error
	if enabled {
		o.enable(ctx, &alarm)
	} else {
		cleanupErr = o.disable(ctx, &alarm)
	}
	if err := o.store.UpdateAlarm(alarm); err != nil {
		if enabled {
			o.unschedule(ctx, &alarm)
		}
		return alarm, fmt.Errorf("failed to save alarm: %w", err)
	}
	return alarm, cleanupErr
}

// DeleteAlarm releases every external resource of the alarm and removes it.
// If anything could not be released the alarm is kept with the handles that
// still reference live resources, so the delete can be retried.
func (o *Orchestrator) DeleteAlarm(ctx context.Context, id string) error {
	alarm, err := o.store.GetAlarm(id)
	if err != nil {
		return err
	}
	if err := o.release(ctx, &alarm); err != nil {
		return err
	}
	if err := o.store.DeleteAlarm(id); err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}
	o.log.Info("Alarm deleted", "id", id)
	return nil
}

// DeletePrayer releases every alarm bound to the prayer, then deletes the
// prayer with its check-ins and alarms.
func (o *Orchestrator) DeletePrayer(ctx context.Context, id string) error {
	if _, err := o.store.GetPrayer(id); err != nil {
		return err
	}
	alarms, err := o.store.GetAlarmsForPrayer(id)
	if err != nil {
		return err
	}
	var errs []error
	for i := range alarms {
		if err := o.release(ctx, &alarms[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := o.store.DeletePrayer(id); err != nil {
		return fmt.Errorf("failed to delete prayer: %w", err)
	}
	o.log.Info("Prayer deleted", "id", id, "alarms", len(alarms))
	return nil
}

// release disables alarm and saves it when some handles survived.
func (o *Orchestrator) release(ctx context.Context, alarm *models.Alarm) error {
	cleanupErr := o.disable(ctx, alarm)
	if cleanupErr == nil {
		return nil
	}
	alarm.Enabled = false
	if err := o.store.UpdateAlarm(*alarm); err != nil {
		return errors.Join(cleanupErr, fmt.Errorf("failed to save alarm handles: %w", err))
	}
	return cleanupErr
}

func (o *Orchestrator) bindPrayer(alarm *models.Alarm) error {
	alarm.Prayer = nil
	if alarm.PrayerID == nil {
		return nil
	}
	p, err := o.store.GetPrayer(*alarm.PrayerID)
	if err != nil {
		return fmt.Errorf("alarm prayer %s: %w", *alarm.PrayerID, err)
	}
	alarm.Prayer = &p
	return nil
}

// enable schedules the alarm's notifications and calendar event, replacing
// any handles left from an earlier schedule. Failures leave the affected
// handle nil.
func (o *Orchestrator) enable(ctx context.Context, alarm *models.Alarm) {
	stale := o.cancelNotifications(ctx, alarm)
	if len(stale) > 0 {
		o.log.Warn("Keeping previous notifications, stale handles could not be cancelled", "alarm_id", alarm.ID)
	} else if o.authorized(ctx, "notifications", o.notifications) {
		var wg sync.WaitGroup
		var warningID, alarmID *string
		if alarm.HasReminder {
			wg.Add(1)
			go func() {
				defer wg.Done()
				warningID = o.schedule(ctx, warningRequest(alarm))
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			alarmID = o.schedule(ctx, alarmRequest(alarm))
		}()
		wg.Wait()
		alarm.WarningNotificationID = warningID
		alarm.NotificationID = alarmID
	}

	if !alarm.AddToCalendar {
		return
	}
	if alarm.CalendarEventID != nil {
		if _, err := o.calendar.DeleteEvent(ctx, *alarm.CalendarEventID); err != nil {
			o.log.Warn("Failed to delete stale calendar event", "alarm_id", alarm.ID, "error", err)
			return
		}
		alarm.CalendarEventID = nil
	}
	if !o.authorized(ctx, "calendar", o.calendar) {
		return
	}
	id, err := o.calendar.CreateRecurringEvent(ctx, calendarEvent(alarm, o.now()))
	if err != nil {
		o.log.Warn("Failed to create calendar event", "alarm_id", alarm.ID, "error", err)
		return
	}
	alarm.CalendarEventID = &id
}

type authorizer interface {
	AuthorizationStatus(ctx context.Context) (services.AuthStatus, error)
	RequestAuthorization(ctx context.Context) (bool, error)
}

// authorized asks for access when it was never decided. Denial is logged,
// not returned.
func (o *Orchestrator) authorized(ctx context.Context, what string, a authorizer) bool {
	status, err := a.AuthorizationStatus(ctx)
	if err != nil {
		o.log.Warn("Failed to read authorization status", "service", what, "error", err)
		return false
	}
	switch status {
	case services.AuthAuthorized:
		return true
	case services.AuthDenied:
		o.log.Info("Access denied, skipping", "service", what)
		return false
	}
	granted, err := a.RequestAuthorization(ctx)
	if err != nil {
		o.log.Warn("Authorization request failed", "service", what, "error", err)
		return false
	}
	if !granted {
		o.log.Info("Access not granted, skipping", "service", what)
	}
	return granted
}

func (o *Orchestrator) schedule(ctx context.Context, req models.NotificationRequest) *string {
	id, err := o.notifications.Schedule(ctx, req)
	if err != nil {
		o.log.Warn("Failed to schedule notification", "alarm_id", req.Payload.AlarmID, "kind", req.Payload.Kind, "error", err)
		return nil
	}
	return &id
}

// cancelNotifications cancels both notifications and nils the handles that
// were released.
func (o *Orchestrator) cancelNotifications(ctx context.Context, alarm *models.Alarm) []error {
	var errs []error
	for _, handle := range []**string{&alarm.WarningNotificationID, &alarm.NotificationID} {
		if *handle == nil {
			continue
		}
		if err := o.notifications.Cancel(ctx, **handle); err != nil {
			o.log.Warn("Failed to cancel notification", "alarm_id", alarm.ID, "id", **handle, "error", err)
			errs = append(errs, err)
			continue
		}
		*handle = nil
	}
	return errs
}

// disable ends the alarm's session, cancels its notifications and deletes
// its calendar event. Every handle that was released is set to nil; the
// others are kept and the failures returned as ErrPartialCleanup.
func (o *Orchestrator) disable(ctx context.Context, alarm *models.Alarm) error {
	var errs []error

	for _, id := range o.sessionsForAlarm(alarm.ID) {
		if err := o.endSession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if alarm.LiveActivityID != nil {
		if err := o.surface.End(ctx, *alarm.LiveActivityID); err != nil {
			o.log.Warn("Failed to end session surface", "alarm_id", alarm.ID, "error", err)
			errs = append(errs, err)
		} else {
			alarm.LiveActivityID = nil
		}
	}

	errs = append(errs, o.releaseSchedule(ctx, alarm)...)
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrPartialCleanup}, errs...)...)
}

// releaseSchedule cancels the notifications and deletes the calendar event,
// niling each handle that was released.
func (o *Orchestrator) releaseSchedule(ctx context.Context, alarm *models.Alarm) []error {
	errs := o.cancelNotifications(ctx, alarm)
	if alarm.CalendarEventID == nil {
		return errs
	}
	removed, err := o.calendar.DeleteEvent(ctx, *alarm.CalendarEventID)
	if err != nil {
		o.log.Warn("Failed to delete calendar event", "alarm_id", alarm.ID, "error", err)
		return append(errs, err)
	}
	if !removed {
		o.log.Debug("Calendar event already gone", "alarm_id", alarm.ID, "event_id", *alarm.CalendarEventID)
	}
	alarm.CalendarEventID = nil
	return errs
}

// unschedule releases what enable created when the handles could not be
// saved, so no resource outlives its handle.
func (o *Orchestrator) unschedule(ctx context.Context, alarm *models.Alarm) {
	if errs := o.releaseSchedule(ctx, alarm); len(errs) > 0 {
		o.log.Error("Alarm resources left behind after a failed save", "alarm_id", alarm.ID, "error", errors.Join(errs...))
	}
}

func warningRequest(alarm *models.Alarm) models.NotificationRequest {
	hour, minute := utils.WarningTime(alarm.Hour, alarm.Minute, alarm.ReminderMinutes)
	return models.NotificationRequest{
		Title:    "Upcoming: " + alarm.DisplayTitle(),
		Body:     fmt.Sprintf("Prayer time in %d minutes", alarm.ReminderMinutes),
		Category: constants.CategoryPrayerWarning,
		Hour:     hour,
		Minute:   minute,
		Payload:  alarm.Payload(models.NotificationWarning),
	}
}

func alarmRequest(alarm *models.Alarm) models.NotificationRequest {
	return models.NotificationRequest{
		Title:    "It's time to pray for " + alarm.DisplayTitle(),
		Body:     fmt.Sprintf("Take %d minutes to pray", alarm.DurationMinutes),
		Category: constants.CategoryPrayerAlarm,
		Hour:     alarm.Hour,
		Minute:   alarm.Minute,
		Payload:  alarm.Payload(models.NotificationAlarm),
	}
}

func calendarEvent(alarm *models.Alarm, now time.Time) services.CalendarEvent {
	return services.CalendarEvent{
		Title:    "🙏 " + alarm.DisplayTitle(),
		Notes:    fmt.Sprintf("Prayer time - %d minutes", alarm.DurationMinutes),
		Start:    utils.NextOccurrence(alarm.Hour, alarm.Minute, now),
		Duration: time.Duration(alarm.DurationMinutes) * time.Minute,
	}
}

// isNotFound reports whether err means the record does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
