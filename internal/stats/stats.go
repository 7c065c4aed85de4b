// Package stats computes streak and intensity statistics over a check-in log.
//
// Every calculation is relative to an explicit reference time and location,
// so results are deterministic for a given input. The engine never fails:
// an empty history yields zero values throughout.
package stats

import (
	"sort"
	"time"
)

const week = 7 * 24 * time.Hour

// Engine answers statistics queries over a fixed set of check-in timestamps.
type Engine struct {
	now       time.Time
	loc       *time.Location
	weekStart time.Weekday

	timestamps []time.Time
	perDay     map[int]int
	earliest   time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeekStart sets the first day of the week used by ThisWeekCount.
// The default is Sunday.
func WithWeekStart(day time.Weekday) Option {
	return func(e *Engine) {
		if day >= time.Sunday && day <= time.Saturday {
			e.weekStart = day
		}
	}
}

// WithLocation overrides the calendar used for day boundaries. The default is
// the location of the reference time.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New builds an engine over timestamps as seen at now.
func New(timestamps []time.Time, now time.Time, opts ...Option) *Engine {
	e := &Engine{
		now:       now,
		loc:       now.Location(),
		weekStart: time.Sunday,
		perDay:    make(map[int]int, len(timestamps)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.now = now.In(e.loc)

	e.timestamps = make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		ts = ts.In(e.loc)
		e.timestamps = append(e.timestamps, ts)
		e.perDay[e.ordinal(ts)]++
		if e.earliest.IsZero() || ts.Before(e.earliest) {
			e.earliest = ts
		}
	}
	return e
}

// ordinal maps the calendar day of t (in the engine's location) to a day
// number. Consecutive calendar days always differ by exactly one, regardless
// of DST transitions in the location.
func (e *Engine) ordinal(t time.Time) int {
	y, m, d := t.In(e.loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func (e *Engine) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// Total returns the number of check-ins.
func (e *Engine) Total() int {
	return len(e.timestamps)
}

// TodayCount returns the number of check-ins on the reference day.
func (e *Engine) TodayCount() int {
	return e.perDay[e.ordinal(e.now)]
}

// CurrentStreak returns the run of consecutive days with at least one
// check-in ending today. If today has no entry yet the run ending yesterday
// still counts; a gap of two or more days breaks the streak.
func (e *Engine) CurrentStreak() int {
	day := e.ordinal(e.now)
	if e.perDay[day] == 0 {
		day--
		if e.perDay[day] == 0 {
			return 0
		}
	}

	streak := 0
	for e.perDay[day] > 0 {
		streak++
		day--
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days that each
// contain at least one check-in.
func (e *Engine) LongestStreak() int {
	if len(e.perDay) == 0 {
		return 0
	}

	days := make([]int, 0, len(e.perDay))
	for d := range e.perDay {
		days = append(days, d)
	}
	sort.Ints(days)

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// WeekStart returns the first instant of the current calendar week.
func (e *Engine) WeekStart() time.Time {
	today := e.startOfDay(e.now)
	offset := (int(today.Weekday()) - int(e.weekStart) + 7) % 7
	return time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, e.loc)
}

// MonthStart returns the first instant of the current calendar month.
func (e *Engine) MonthStart() time.Time {
	y, m, _ := e.now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, e.loc)
}

// ThisWeekCount returns the check-ins from the start of the current week
// through now.
func (e *Engine) ThisWeekCount() int {
	return e.countBetween(e.WeekStart(), e.now)
}

// ThisMonthCount returns the check-ins from the start of the current month
// through now.
func (e *Engine) ThisMonthCount() int {
	return e.countBetween(e.MonthStart(), e.now)
}

func (e *Engine) countBetween(from, to time.Time) int {
	n := 0
	for _, ts := range e.timestamps {
		if !ts.Before(from) && !ts.After(to) {
			n++
		}
	}
	return n
}

// WeeklyAverage returns the total count divided by the number of whole
// weeks since the earliest check-in, with a minimum of one week.
func (e *Engine) WeeklyAverage() float64 {
	if len(e.timestamps) == 0 {
		return 0
	}
	weeks := int(e.now.Sub(e.earliest) / week)
	if weeks < 1 {
		weeks = 1
	}
	return float64(len(e.timestamps)) / float64(weeks)
}

// HasEntry reports whether date's calendar day has at least one check-in.
func (e *Engine) HasEntry(date time.Time) bool {
	return e.EntryCount(date) > 0
}

// EntryCount returns the number of check-ins on date's calendar day.
func (e *Engine) EntryCount(date time.Time) int {
	return e.perDay[e.ordinal(date)]
}

// Intensity returns the check-in count for date's calendar day.
func (e *Engine) Intensity(date time.Time) int {
	return e.EntryCount(date)
}

// IntensityOpacity returns the banded visual weight for date's calendar day.
func (e *Engine) IntensityOpacity(date time.Time) float64 {
	return Opacity(e.EntryCount(date))
}

// Opacity maps a per-day count to its visual weight band.
func Opacity(count int) float64 {
	switch {
	case count <= 0:
		return 0.15
	case count == 1:
		return 0.35
	case count == 2:
		return 0.55
	case count <= 4:
		return 0.75
	default:
		return 1.0
	}
}

// Day is one cell of an intensity grid.
type Day struct {
	Date    time.Time `json:"date" yaml:"date"`
	Count   int       `json:"count" yaml:"count"`
	Opacity float64   `json:"opacity" yaml:"opacity"`
}

// Grid returns the last n calendar days ending today, oldest first.
func (e *Engine) Grid(n int) []Day {
	if n <= 0 {
		return nil
	}
	today := e.startOfDay(e.now)
	grid := make([]Day, 0, n)
	for i := n - 1; i >= 0; i-- {
		date := time.Date(today.Year(), today.Month(), today.Day()-i, 0, 0, 0, 0, e.loc)
		count := e.EntryCount(date)
		grid = append(grid, Day{Date: date, Count: count, Opacity: Opacity(count)})
	}
	return grid
}

// Summary bundles the headline counters.
type Summary struct {
	Total         int     `json:"total" yaml:"total"`
	Today         int     `json:"today" yaml:"today"`
	CurrentStreak int     `json:"current_streak" yaml:"current_streak"`
	LongestStreak int     `json:"longest_streak" yaml:"longest_streak"`
	ThisWeek      int     `json:"this_week" yaml:"this_week"`
	ThisMonth     int     `json:"this_month" yaml:"this_month"`
	WeeklyAverage float64 `json:"weekly_average" yaml:"weekly_average"`
}

// Summary computes every headline counter.
func (e *Engine) Summary() Summary {
	return Summary{
		Total:         e.Total(),
		Today:         e.TodayCount(),
		CurrentStreak: e.CurrentStreak(),
		LongestStreak: e.LongestStreak(),
		ThisWeek:      e.ThisWeekCount(),
		ThisMonth:     e.ThisMonthCount(),
		WeeklyAverage: e.WeeklyAverage(),
	}
}
