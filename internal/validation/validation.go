package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/vigil/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateAlarm      ConflictType = "duplicate_alarm"
	ConflictOverlappingSessions ConflictType = "overlapping_sessions"
	ConflictTooManySessions     ConflictType = "too_many_sessions"
	ConflictMissingPrayer       ConflictType = "missing_prayer"
	ConflictDuplicatePrayerName ConflictType = "duplicate_prayer_name"
)

// Conflict represents a detected conflict between alarms or prayers
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Alarm or prayer titles involved
	TimeRange   string   // Human-readable time range (if applicable)
	AlarmIDs    []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks alarms against each other and the prayers they are bound to.
type Validator struct {
	// MaxConcurrent is the number of sessions that may run at once; zero
	// disables the check.
	MaxConcurrent int
}

// New creates a new Validator
func New(maxConcurrent int) *Validator {
	return &Validator{MaxConcurrent: maxConcurrent}
}

const minutesPerDay = 24 * 60

// window is the daily span an enabled alarm's session occupies, from its
// alarm time until the countdown ends. end may pass midnight.
type window struct {
	alarm models.Alarm
	title string
	start int
	end   int
}

func (w window) overlaps(o window) bool {
	// Compare against o shifted a day either way so spans crossing
	// midnight are caught.
	for _, shift := range []int{-minutesPerDay, 0, minutesPerDay} {
		if w.start < o.end+shift && o.start+shift < w.end {
			return true
		}
	}
	return false
}

func (w window) String() string {
	end := w.end % minutesPerDay
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.start/60, w.start%60, end/60, end%60)
}

// ValidateAlarms checks prayers and alarms for conflicts.
func (v *Validator) ValidateAlarms(prayers []models.Prayer, alarms []models.Alarm) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	titles := make(map[string]string, len(prayers))
	names := make(map[string][]string)
	for _, p := range prayers {
		titles[p.ID] = p.Title
		key := strings.ToLower(strings.TrimSpace(p.Title))
		names[key] = append(names[key], p.ID)
	}
	for _, ids := range names {
		if len(ids) > 1 {
			title := titles[ids[0]]
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicatePrayerName,
				Description: fmt.Sprintf("Duplicate prayer title: \"%s\" (IDs: %v), refer to these prayers by ID", title, ids),
				Items:       []string{title},
			})
		}
	}

	var windows []window
	seen := make(map[string][]models.Alarm)
	for _, a := range alarms {
		title := a.Title
		if a.PrayerID != nil {
			t, ok := titles[*a.PrayerID]
			if !ok {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictMissingPrayer,
					Description: fmt.Sprintf("Alarm at %s is bound to a prayer that no longer exists (%s)", a.TimeString(), *a.PrayerID),
					AlarmIDs:    []string{a.ID},
				})
			} else {
				title = t
			}
		}
		if !a.Enabled {
			continue
		}

		key := fmt.Sprintf("%s|%s", a.TimeString(), strings.ToLower(title))
		seen[key] = append(seen[key], a)

		start := a.Hour*60 + a.Minute
		windows = append(windows, window{alarm: a, title: title, start: start, end: start + a.DurationMinutes})
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dups := seen[k]
		if len(dups) < 2 {
			continue
		}
		ids := make([]string, len(dups))
		for i, a := range dups {
			ids[i] = a.ID
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateAlarm,
			Description: fmt.Sprintf("%d enabled alarms for \"%s\" at %s", len(dups), strings.SplitN(k, "|", 2)[1], dups[0].TimeString()),
			AlarmIDs:    ids,
		})
	}

	// Sort by start time for overlap detection
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].start == windows[j].start {
			return windows[i].alarm.ID < windows[j].alarm.ID
		}
		return windows[i].start < windows[j].start
	})

	// O(n²) over enabled alarms, which are few.
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			w1, w2 := windows[i], windows[j]
			if w1.start == w2.start && strings.EqualFold(w1.title, w2.title) {
				continue // reported as a duplicate
			}
			if !w1.overlaps(w2) {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOverlappingSessions,
				Description: fmt.Sprintf("Sessions overlap: \"%s\" (%s) and \"%s\" (%s)", w1.title, w1, w2.title, w2),
				Items:       []string{w1.title, w2.title},
				TimeRange:   fmt.Sprintf("%s / %s", w1, w2),
				AlarmIDs:    []string{w1.alarm.ID, w2.alarm.ID},
			})
		}
	}

	if v.MaxConcurrent > 0 {
		if peak, at := peakConcurrency(windows); peak > v.MaxConcurrent {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type: ConflictTooManySessions,
				Description: fmt.Sprintf("%d sessions would run at %02d:%02d but only %d can be shown at once",
					peak, at/60, at%60, v.MaxConcurrent),
			})
		}
	}

	return result
}

// peakConcurrency returns the highest number of windows active in the same
// minute of the day, and the first minute it occurs.
func peakConcurrency(windows []window) (peak, at int) {
	var counts [minutesPerDay]int
	for _, w := range windows {
		for m := w.start; m < w.end; m++ {
			counts[m%minutesPerDay]++
		}
	}
	for m, c := range counts {
		if c > peak {
			peak, at = c, m
		}
	}
	return peak, at
}
