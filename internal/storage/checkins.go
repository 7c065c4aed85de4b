package storage

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/vigil/internal/models"
)

const checkInColumns = "id, checked_in_at, title, prayer_id"

func (s *sqlStore) AddCheckIn(c models.CheckIn) error {
	if c.ID == "" {
		return fmt.Errorf("check-in id cannot be empty")
	}
	_, err := s.exec(`
		INSERT INTO check_ins (`+checkInColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, formatTime(c.Timestamp), nullString(c.Title), nullString(c.PrayerID))
	if err != nil {
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

func (s *sqlStore) GetCheckIns() ([]models.CheckIn, error) {
	return s.queryCheckIns(`SELECT ` + checkInColumns + ` FROM check_ins ORDER BY checked_in_at ASC`)
}

func (s *sqlStore) GetCheckInsForPrayer(prayerID string) ([]models.CheckIn, error) {
	return s.queryCheckIns(`SELECT `+checkInColumns+` FROM check_ins WHERE prayer_id = ? ORDER BY checked_in_at ASC`, prayerID)
}

func (s *sqlStore) DeleteCheckIn(id string) error {
	result, err := s.exec(`DELETE FROM check_ins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete check-in: %w", err)
	}
	return requireAffected(result, "check-in", id)
}

func (s *sqlStore) queryCheckIns(query string, args ...any) ([]models.CheckIn, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var out []models.CheckIn
	for rows.Next() {
		var c models.CheckIn
		var ts string
		var title, prayerID sql.NullString
		if err := rows.Scan(&c.ID, &ts, &title, &prayerID); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		if c.Timestamp, err = parseTime("checked_in_at", ts); err != nil {
			return nil, err
		}
		c.Title = stringPtr(title)
		c.PrayerID = stringPtr(prayerID)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}
	return out, nil
}
