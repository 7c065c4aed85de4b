package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/vigil/internal/models"
)

const alarmColumns = `id, title, prayer_id, hour, minute, duration_minutes,
	enabled, has_reminder, reminder_minutes, add_to_calendar,
	notification_id, warning_notification_id, calendar_event_id, live_activity_id,
	created_at`

func scanAlarm(row rowScanner) (models.Alarm, error) {
	var a models.Alarm
	var prayerID, notificationID, warningID, calendarID, activityID sql.NullString
	var createdAt string
	err := row.Scan(
		&a.ID, &a.Title, &prayerID, &a.Hour, &a.Minute, &a.DurationMinutes,
		&a.Enabled, &a.HasReminder, &a.ReminderMinutes, &a.AddToCalendar,
		&notificationID, &warningID, &calendarID, &activityID,
		&createdAt,
	)
	if err != nil {
		return models.Alarm{}, err
	}
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Alarm{}, err
	}
	a.PrayerID = stringPtr(prayerID)
	a.NotificationID = stringPtr(notificationID)
	a.WarningNotificationID = stringPtr(warningID)
	a.CalendarEventID = stringPtr(calendarID)
	a.LiveActivityID = stringPtr(activityID)
	return a, nil
}

func (s *sqlStore) AddAlarm(a models.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := s.exec(`INSERT INTO alarms (`+alarmColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, nullString(a.PrayerID), a.Hour, a.Minute, a.DurationMinutes,
		a.Enabled, a.HasReminder, a.ReminderMinutes, a.AddToCalendar,
		nullString(a.NotificationID), nullString(a.WarningNotificationID),
		nullString(a.CalendarEventID), nullString(a.LiveActivityID),
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alarm: %w", err)
	}
	return nil
}

func (s *sqlStore) GetAlarm(id string) (models.Alarm, error) {
	a, err := scanAlarm(s.queryRow(`SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Alarm{}, fmt.Errorf("alarm %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Alarm{}, fmt.Errorf("failed to get alarm: %w", err)
	}
	return a, nil
}

func (s *sqlStore) GetAllAlarms() ([]models.Alarm, error) {
	return s.queryAlarms(`SELECT ` + alarmColumns + ` FROM alarms ORDER BY hour ASC, minute ASC, created_at ASC`)
}

func (s *sqlStore) GetAlarmsForPrayer(prayerID string) ([]models.Alarm, error) {
	return s.queryAlarms(`SELECT `+alarmColumns+` FROM alarms WHERE prayer_id = ? ORDER BY hour ASC, minute ASC`, prayerID)
}

func (s *sqlStore) UpdateAlarm(a models.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}
	result, err := s.exec(`
		UPDATE alarms SET
			title = ?, prayer_id = ?, hour = ?, minute = ?, duration_minutes = ?,
			enabled = ?, has_reminder = ?, reminder_minutes = ?, add_to_calendar = ?,
			notification_id = ?, warning_notification_id = ?, calendar_event_id = ?, live_activity_id = ?
		WHERE id = ?
	`,
		a.Title, nullString(a.PrayerID), a.Hour, a.Minute, a.DurationMinutes,
		a.Enabled, a.HasReminder, a.ReminderMinutes, a.AddToCalendar,
		nullString(a.NotificationID), nullString(a.WarningNotificationID),
		nullString(a.CalendarEventID), nullString(a.LiveActivityID),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alarm: %w", err)
	}
	return requireAffected(result, "alarm", a.ID)
}

// UpdateAlarmSchedule writes only the notification and calendar handles, so
// a concurrent edit of the other columns is not overwritten.
func (s *sqlStore) UpdateAlarmSchedule(a models.Alarm) error {
	result, err := s.exec(`UPDATE alarms SET notification_id = ?, warning_notification_id = ?, calendar_event_id = ? WHERE id = ?`,
		nullString(a.NotificationID), nullString(a.WarningNotificationID), nullString(a.CalendarEventID), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update alarm schedule: %w", err)
	}
	return requireAffected(result, "alarm", a.ID)
}

func (s *sqlStore) SetAlarmLiveActivity(id string, activityID *string) error {
	result, err := s.exec(`UPDATE alarms SET live_activity_id = ? WHERE id = ?`, nullString(activityID), id)
	if err != nil {
		return fmt.Errorf("failed to update alarm live activity: %w", err)
	}
	return requireAffected(result, "alarm", id)
}

func (s *sqlStore) DeleteAlarm(id string) error {
	result, err := s.exec(`DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}
	return requireAffected(result, "alarm", id)
}

func (s *sqlStore) queryAlarms(query string, args ...any) ([]models.Alarm, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarms: %w", err)
	}
	return alarms, nil
}
