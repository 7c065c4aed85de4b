package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/vigil/internal/models"
)

const prayerColumns = "id, title, subtitle, icon_name, color_hex, sort_order, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrayer(row rowScanner) (models.Prayer, error) {
	var p models.Prayer
	var createdAt string
	if err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.IconName, &p.ColorHex, &p.SortOrder, &createdAt); err != nil {
		return models.Prayer{}, err
	}
	t, err := parseTime("created_at", createdAt)
	if err != nil {
		return models.Prayer{}, err
	}
	p.CreatedAt = t
	return p, nil
}

func (s *sqlStore) AddPrayer(p models.Prayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ApplyDefaults()

	_, err := s.exec(`INSERT INTO prayers (`+prayerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Subtitle, p.IconName, p.ColorHex, p.SortOrder, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert prayer: %w", err)
	}
	return nil
}

func (s *sqlStore) GetPrayer(id string) (models.Prayer, error) {
	p, err := scanPrayer(s.queryRow(`SELECT `+prayerColumns+` FROM prayers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Prayer{}, fmt.Errorf("prayer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Prayer{}, fmt.Errorf("failed to get prayer: %w", err)
	}
	return p, nil
}

func (s *sqlStore) GetAllPrayers() ([]models.Prayer, error) {
	rows, err := s.query(`SELECT ` + prayerColumns + ` FROM prayers ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prayers: %w", err)
	}
	defer rows.Close()

	var prayers []models.Prayer
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prayer: %w", err)
		}
		prayers = append(prayers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prayers: %w", err)
	}
	return prayers, nil
}

func (s *sqlStore) UpdatePrayer(p models.Prayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ApplyDefaults()

	result, err := s.exec(`
		UPDATE prayers SET title = ?, subtitle = ?, icon_name = ?, color_hex = ?, sort_order = ?
		WHERE id = ?
	`, p.Title, p.Subtitle, p.IconName, p.ColorHex, p.SortOrder, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update prayer: %w", err)
	}
	return requireAffected(result, "prayer", p.ID)
}

func (s *sqlStore) DeletePrayer(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(`DELETE FROM check_ins WHERE prayer_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete check-ins: %w", err)
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM alarms WHERE prayer_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete alarms: %w", err)
	}
	result, err := tx.Exec(s.rebind(`DELETE FROM prayers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete prayer: %w", err)
	}
	if err := requireAffected(result, "prayer", id); err != nil {
		return err
	}
	return tx.Commit()
}
