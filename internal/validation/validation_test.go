package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/vigil/internal/models"
)

func alarm(id, title string, hour, minute, duration int) models.Alarm {
	return models.Alarm{ID: id, Title: title, Hour: hour, Minute: minute, DurationMinutes: duration, Enabled: true}
}

func conflictTypes(r ValidationResult) map[ConflictType]int {
	out := map[ConflictType]int{}
	for _, c := range r.Conflicts {
		out[c.Type]++
	}
	return out
}

func TestValidateAlarms(t *testing.T) {
	lauds := "lauds"
	gone := "gone"
	prayers := []models.Prayer{{ID: lauds, Title: "Lauds"}}

	disabled := alarm("d", "Sext", 12, 0, 30)
	disabled.Enabled = false
	bound := alarm("b", "", 7, 0, 10)
	bound.PrayerID = &lauds
	orphan := alarm("o", "", 9, 0, 10)
	orphan.PrayerID = &gone

	tests := []struct {
		name   string
		alarms []models.Alarm
		want   map[ConflictType]int
	}{
		{
			name:   "no conflicts",
			alarms: []models.Alarm{alarm("1", "Lauds", 7, 0, 15), alarm("2", "Vespers", 18, 0, 15)},
			want:   map[ConflictType]int{},
		},
		{
			name:   "back to back is fine",
			alarms: []models.Alarm{alarm("1", "Terce", 9, 0, 30), alarm("2", "Sext", 9, 30, 30)},
			want:   map[ConflictType]int{},
		},
		{
			name:   "overlapping sessions",
			alarms: []models.Alarm{alarm("1", "Terce", 9, 0, 30), alarm("2", "Sext", 9, 15, 30)},
			want:   map[ConflictType]int{ConflictOverlappingSessions: 1},
		},
		{
			name:   "overlap across midnight",
			alarms: []models.Alarm{alarm("1", "Vigil", 23, 50, 20), alarm("2", "Matins", 0, 5, 10)},
			want:   map[ConflictType]int{ConflictOverlappingSessions: 1},
		},
		{
			name:   "duplicate alarm by title or prayer",
			alarms: []models.Alarm{bound, alarm("2", "lauds", 7, 0, 5)},
			want:   map[ConflictType]int{ConflictDuplicateAlarm: 1},
		},
		{
			name:   "disabled alarms are ignored",
			alarms: []models.Alarm{alarm("1", "Sext", 12, 0, 30), disabled},
			want:   map[ConflictType]int{},
		},
		{
			name:   "missing prayer",
			alarms: []models.Alarm{orphan},
			want:   map[ConflictType]int{ConflictMissingPrayer: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(0).ValidateAlarms(prayers, tt.alarms)
			got := conflictTypes(result)
			if len(got) != len(tt.want) {
				t.Fatalf("conflicts = %v, want %v\n%s", got, tt.want, result.FormatReport())
			}
			for typ, n := range tt.want {
				if got[typ] != n {
					t.Errorf("%s conflicts = %d, want %d", typ, got[typ], n)
				}
			}
		})
	}
}

func TestValidateAlarms_TooManySessions(t *testing.T) {
	alarms := []models.Alarm{
		alarm("1", "A", 6, 0, 60),
		alarm("2", "B", 6, 10, 60),
		alarm("3", "C", 6, 20, 60),
	}

	result := New(2).ValidateAlarms(nil, alarms)
	got := conflictTypes(result)
	if got[ConflictTooManySessions] != 1 {
		t.Fatalf("expected a too-many-sessions conflict, got %v", got)
	}
	for _, c := range result.Conflicts {
		if c.Type == ConflictTooManySessions && !strings.Contains(c.Description, "06:20") {
			t.Errorf("peak reported at the wrong minute: %s", c.Description)
		}
	}

	if got := conflictTypes(New(3).ValidateAlarms(nil, alarms)); got[ConflictTooManySessions] != 0 {
		t.Errorf("limit of 3 should allow 3 sessions, got %v", got)
	}
}

func TestValidateAlarms_DuplicatePrayerNames(t *testing.T) {
	prayers := []models.Prayer{{ID: "1", Title: "Rosary"}, {ID: "2", Title: "rosary "}}
	result := New(0).ValidateAlarms(prayers, nil)
	if got := conflictTypes(result); got[ConflictDuplicatePrayerName] != 1 {
		t.Errorf("expected a duplicate prayer conflict, got %v", got)
	}
}

func TestFormatReport(t *testing.T) {
	empty := ValidationResult{}
	if got := empty.FormatReport(); got != "No conflicts detected." {
		t.Errorf("FormatReport() = %q", got)
	}

	r := ValidationResult{Conflicts: []Conflict{{Description: "one"}, {Description: "two"}}}
	if got := r.FormatReport(); got != "Conflicts detected:\n- one\n- two\n" {
		t.Errorf("FormatReport() = %q", got)
	}
}
