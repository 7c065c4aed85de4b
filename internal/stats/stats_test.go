package stats

import (
	"math"
	"testing"
	"time"
)

// Wednesday afternoon.
var refNow = time.Date(2026, time.March, 18, 15, 0, 0, 0, time.UTC)

func day(offset, hour int) time.Time {
	return time.Date(2026, time.March, 18+offset, hour, 0, 0, 0, time.UTC)
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		history []time.Time
		want    int
	}{
		{name: "empty history", history: nil, want: 0},
		{name: "only today", history: []time.Time{day(0, 9)}, want: 1},
		{name: "only yesterday is in grace", history: []time.Time{day(-1, 20)}, want: 1},
		{name: "three consecutive days", history: []time.Time{day(0, 8), day(-1, 8), day(-2, 8)}, want: 3},
		{name: "gap breaks the run", history: []time.Time{day(0, 8), day(-1, 8), day(-3, 8)}, want: 2},
		{name: "two day gap is zero", history: []time.Time{day(-2, 8), day(-3, 8)}, want: 0},
		{name: "yesterday run with today empty", history: []time.Time{day(-1, 8), day(-2, 8), day(-3, 8)}, want: 3},
		{name: "same day entries count once", history: []time.Time{day(0, 7), day(0, 12), day(0, 14), day(-1, 9)}, want: 2},
		{name: "unordered input", history: []time.Time{day(-2, 8), day(0, 8), day(-1, 8)}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.history, refNow).CurrentStreak()
			if got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name    string
		history []time.Time
		want    int
	}{
		{name: "empty history", history: nil, want: 0},
		{name: "single entry", history: []time.Time{day(-30, 8)}, want: 1},
		{
			name: "historical run beats current run",
			history: []time.Time{
				day(0, 8), day(-1, 8),
				day(-10, 8), day(-11, 8), day(-12, 8), day(-13, 8),
			},
			want: 4,
		},
		{
			name:    "duplicates on one day count once",
			history: []time.Time{day(-5, 6), day(-5, 7), day(-5, 8), day(-4, 9)},
			want:    2,
		},
		{
			name:    "run across month boundary",
			history: []time.Time{day(-18, 8), day(-17, 8), day(-16, 8)}, // Feb 28 - Mar 2
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.history, refNow).LongestStreak()
			if got != tt.want {
				t.Errorf("LongestStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEntryCountMatchesHistory(t *testing.T) {
	history := []time.Time{day(0, 1), day(0, 23), day(-1, 0), day(-1, 12), day(-1, 23), day(-7, 5)}
	e := New(history, refNow)

	for offset := -10; offset <= 0; offset++ {
		date := day(offset, 12)
		want := 0
		for _, ts := range history {
			if ts.Year() == date.Year() && ts.YearDay() == date.YearDay() {
				want++
			}
		}
		if got := e.EntryCount(date); got != want {
			t.Errorf("EntryCount(%s) = %d, want %d", date.Format("2006-01-02"), got, want)
		}
		if got := e.HasEntry(date); got != (want > 0) {
			t.Errorf("HasEntry(%s) = %v, want %v", date.Format("2006-01-02"), got, want > 0)
		}
		if got := e.Intensity(date); got != want {
			t.Errorf("Intensity(%s) = %d, want %d", date.Format("2006-01-02"), got, want)
		}
	}

	if got := e.TodayCount(); got != 2 {
		t.Errorf("TodayCount() = %d, want 2", got)
	}
}

func TestDayBoundariesFollowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 17th is 05:00 on the 18th in Tokyo.
	history := []time.Time{time.Date(2026, time.March, 17, 20, 0, 0, 0, time.UTC)}
	now := time.Date(2026, time.March, 18, 10, 0, 0, 0, time.UTC)

	utc := New(history, now)
	if utc.TodayCount() != 0 || utc.CurrentStreak() != 1 {
		t.Errorf("UTC: today=%d streak=%d, want 0 and 1", utc.TodayCount(), utc.CurrentStreak())
	}

	jst := New(history, now, WithLocation(tokyo))
	if jst.TodayCount() != 1 {
		t.Errorf("JST: TodayCount() = %d, want 1", jst.TodayCount())
	}
}

func TestPeriodCounts(t *testing.T) {
	history := []time.Time{
		time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC),
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 14, 23, 59, 59, 0, time.UTC), // Saturday
		time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),    // Sunday
		time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC),    // Monday
		refNow,
		refNow.Add(time.Hour), // future entries are not counted
	}

	tests := []struct {
		name      string
		weekStart time.Weekday
		wantWeek  int
		wantMonth int
	}{
		{name: "sunday week", weekStart: time.Sunday, wantWeek: 3, wantMonth: 5},
		{name: "monday week", weekStart: time.Monday, wantWeek: 2, wantMonth: 5},
		{name: "wednesday week starts today", weekStart: time.Wednesday, wantWeek: 1, wantMonth: 5},
		{name: "thursday week", weekStart: time.Thursday, wantWeek: 4, wantMonth: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(history, refNow, WithWeekStart(tt.weekStart))
			if got := e.ThisWeekCount(); got != tt.wantWeek {
				t.Errorf("ThisWeekCount() = %d, want %d (week starts %s)", got, tt.wantWeek, e.WeekStart())
			}
			if got := e.ThisMonthCount(); got != tt.wantMonth {
				t.Errorf("ThisMonthCount() = %d, want %d", got, tt.wantMonth)
			}
		})
	}
}

func TestWeeklyAverage(t *testing.T) {
	tests := []struct {
		name    string
		history []time.Time
		want    float64
	}{
		{name: "empty", history: nil, want: 0},
		{name: "under one week uses one", history: []time.Time{day(-3, 8), day(-2, 8), day(0, 8)}, want: 3},
		{
			name:    "three whole weeks",
			history: []time.Time{refNow.Add(-21 * 24 * time.Hour), day(-10, 8), day(-5, 8), day(-4, 8), day(-1, 8), day(0, 8)},
			want:    2,
		},
		{
			name:    "partial weeks are truncated",
			history: []time.Time{refNow.Add(-20 * 24 * time.Hour), day(0, 8)},
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.history, refNow).WeeklyAverage()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WeeklyAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpacity(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{0, 0.15},
		{1, 0.35},
		{2, 0.55},
		{3, 0.75},
		{4, 0.75},
		{5, 1.0},
		{12, 1.0},
	}

	for _, tt := range tests {
		if got := Opacity(tt.count); got != tt.want {
			t.Errorf("Opacity(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}

	e := New([]time.Time{day(0, 1), day(0, 2)}, refNow)
	if got := e.IntensityOpacity(refNow); got != 0.55 {
		t.Errorf("IntensityOpacity() = %v, want 0.55", got)
	}
}

func TestGrid(t *testing.T) {
	e := New([]time.Time{day(0, 8), day(-2, 8), day(-2, 9)}, refNow)
	grid := e.Grid(3)
	if len(grid) != 3 {
		t.Fatalf("Grid(3) returned %d days", len(grid))
	}
	wantCounts := []int{2, 0, 1}
	for i, d := range grid {
		if d.Count != wantCounts[i] {
			t.Errorf("grid[%d].Count = %d, want %d", i, d.Count, wantCounts[i])
		}
		if d.Opacity != Opacity(d.Count) {
			t.Errorf("grid[%d].Opacity = %v", i, d.Opacity)
		}
	}
	if !grid[2].Date.Equal(time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last grid day = %v, want today", grid[2].Date)
	}
	if e.Grid(0) != nil {
		t.Error("Grid(0) should be nil")
	}
}

func TestSummary(t *testing.T) {
	s := New([]time.Time{day(0, 8), day(-1, 8)}, refNow).Summary()
	want := Summary{Total: 2, Today: 1, CurrentStreak: 2, LongestStreak: 2, ThisWeek: 2, ThisMonth: 2, WeeklyAverage: 2}
	if s != want {
		t.Errorf("Summary() = %+v, want %+v", s, want)
	}

	if empty := New(nil, refNow).Summary(); empty != (Summary{}) {
		t.Errorf("empty Summary() = %+v", empty)
	}
}
