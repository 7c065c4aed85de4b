package utils

import (
	"testing"
	"time"
)

func TestWarningTime(t *testing.T) {
	tests := []struct {
		name                 string
		hour, minute, lead   int
		wantHour, wantMinute int
	}{
		{name: "simple subtraction", hour: 7, minute: 30, lead: 5, wantHour: 7, wantMinute: 25},
		{name: "exact hour boundary", hour: 7, minute: 5, lead: 5, wantHour: 7, wantMinute: 0},
		{name: "borrow from hour", hour: 7, minute: 2, lead: 5, wantHour: 6, wantMinute: 57},
		{name: "wrap past midnight", hour: 0, minute: 2, lead: 5, wantHour: 23, wantMinute: 57},
		{name: "midnight exactly", hour: 0, minute: 0, lead: 1, wantHour: 23, wantMinute: 59},
		{name: "thirty minute lead", hour: 12, minute: 10, lead: 30, wantHour: 11, wantMinute: 40},
		{name: "lead of an hour", hour: 6, minute: 15, lead: 60, wantHour: 5, wantMinute: 15},
		{name: "lead over an hour", hour: 1, minute: 10, lead: 95, wantHour: 23, wantMinute: 35},
		{name: "lead longer than a day", hour: 8, minute: 0, lead: 24*60 + 10, wantHour: 7, wantMinute: 50},
		{name: "zero lead", hour: 9, minute: 45, lead: 0, wantHour: 9, wantMinute: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := WarningTime(tt.hour, tt.minute, tt.lead)
			if h != tt.wantHour || m != tt.wantMinute {
				t.Errorf("WarningTime(%d, %d, %d) = %02d:%02d, want %02d:%02d",
					tt.hour, tt.minute, tt.lead, h, m, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC
	at := func(day, hour, minute, sec int) time.Time {
		return time.Date(2026, time.March, day, hour, minute, sec, 0, loc)
	}

	tests := []struct {
		name         string
		hour, minute int
		now          time.Time
		want         time.Time
	}{
		{name: "later today", hour: 7, minute: 0, now: at(10, 6, 0, 0), want: at(10, 7, 0, 0)},
		{name: "already passed rolls to tomorrow", hour: 7, minute: 0, now: at(10, 7, 30, 0), want: at(11, 7, 0, 0)},
		{name: "exactly now rolls to tomorrow", hour: 7, minute: 0, now: at(10, 7, 0, 0), want: at(11, 7, 0, 0)},
		{name: "one second before", hour: 7, minute: 0, now: at(10, 6, 59, 59), want: at(10, 7, 0, 0)},
		{name: "seconds past the minute", hour: 7, minute: 0, now: at(10, 7, 0, 1), want: at(11, 7, 0, 0)},
		{name: "month rollover", hour: 0, minute: 30, now: at(31, 23, 0, 0), want: time.Date(2026, time.April, 1, 0, 30, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.hour, tt.minute, tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%d, %d, %v) = %v, want %v", tt.hour, tt.minute, tt.now, got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("result %v is not strictly after now %v", got, tt.now)
			}
		})
	}
}

func TestNextOccurrenceAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 2026-03-08 is the spring-forward day in New York.
	now := time.Date(2026, time.March, 7, 8, 0, 0, 0, loc)
	got := NextOccurrence(7, 0, now)
	want := time.Date(2026, time.March, 8, 7, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence across DST = %v, want %v", got, want)
	}
	if gap := got.Sub(now); gap != 22*time.Hour {
		t.Errorf("expected a 22h gap across spring-forward, got %v", gap)
	}
}

func TestPreviousOccurrence(t *testing.T) {
	now := time.Date(2026, time.May, 2, 7, 0, 0, 0, time.UTC)
	if got := PreviousOccurrence(7, 0, now); !got.Equal(now) {
		t.Errorf("PreviousOccurrence at exactly the alarm time = %v, want %v", got, now)
	}
	if got := PreviousOccurrence(8, 0, now); !got.Equal(time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("PreviousOccurrence for a later time = %v, want yesterday", got)
	}
}

func TestParseAndFormatClock(t *testing.T) {
	h, m, err := ParseClock("05:09")
	if err != nil || h != 5 || m != 9 {
		t.Fatalf("ParseClock() = %d, %d, %v", h, m, err)
	}
	if _, _, err := ParseClock("25:00"); err == nil {
		t.Error("expected error for invalid hour")
	}
	if got := FormatClock(h, m); got != "05:09" {
		t.Errorf("FormatClock() = %q", got)
	}
}

func TestLoadLocation(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := LoadLocation(tz)
		if err != nil || loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, %v; want time.Local", tz, loc, err)
		}
	}
	if ValidateTimezone("Not/AZone") {
		t.Error("ValidateTimezone accepted garbage")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, time.June, 3, 17, 45, 12, 99, time.UTC)
	if got := StartOfDay(in); !got.Equal(time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfDay() = %v", got)
	}
}
