package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Prayer is a user-defined recurring practice.
type Prayer struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Subtitle  string    `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	IconName  string    `json:"icon_name" yaml:"icon_name"`
	ColorHex  string    `json:"color_hex" yaml:"color_hex"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	SortOrder int       `json:"sort_order" yaml:"sort_order"`
}

func (p *Prayer) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("prayer title cannot be empty")
	}
	if p.ColorHex != "" && !hexColorPattern.MatchString(p.ColorHex) {
		return fmt.Errorf("invalid color %q (expected #RRGGBB)", p.ColorHex)
	}
	return nil
}

// ApplyDefaults fills in the icon and color when they were left blank.
func (p *Prayer) ApplyDefaults() {
	if p.IconName == "" {
		p.IconName = constants.DefaultIconName
	}
	if p.ColorHex == "" {
		p.ColorHex = constants.DefaultColorHex
	}
}

// CheckIn records that the user prayed. PrayerID is nil for generic check-ins.
type CheckIn struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Title     *string   `json:"title,omitempty" yaml:"title,omitempty"`
	PrayerID  *string   `json:"prayer_id,omitempty" yaml:"prayer_id,omitempty"`
}

// Timestamps extracts the check-in instants, in input order.
func Timestamps(checkIns []CheckIn) []time.Time {
	out := make([]time.Time, len(checkIns))
	for i, c := range checkIns {
		out[i] = c.Timestamp
	}
	return out
}
