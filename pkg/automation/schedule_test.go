package automation

import (
	"testing"
	"time"
)

func TestScheduleNext(t *testing.T) {
	// Friday
	from := time.Date(2026, 10, 16, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		kind string
		expr string
		tz   string
		want time.Time
	}{
		{"interval", "interval", "90m", "", from.Add(90 * time.Minute)},
		{"hourly", "cron", "@hourly", "", time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)},
		{"daily", "cron", "@daily", "", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
		{"weekly", "cron", "@weekly", "", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
		{"friday evening", "cron", "0 18 * * 5", "", time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)},
		{"next monday", "cron", "15 9 * * 1", "", time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)},
		{"every 20 minutes", "cron", "*/20 * * * *", "", time.Date(2026, 10, 16, 17, 40, 0, 0, time.UTC)},
		{"first of month", "cron", "0 8 1 * *", "", time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)},
		{"timezone", "cron", "0 18 * * *", "Europe/Warsaw", time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchedule(tt.kind, tt.expr, tt.tz)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := s.Next(from)
			if !ok {
				t.Fatal("expected a next run")
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScheduleOneshot(t *testing.T) {
	s, err := ParseSchedule("oneshot", "2026-10-20T10:00:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.OneShot() {
		t.Error("expected oneshot schedule")
	}

	next, ok := s.Next(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	if !ok || !next.Equal(time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected next run %v (ok=%v)", next, ok)
	}
	if _, ok := s.Next(time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("expected no run after the oneshot time")
	}
}

func TestParseScheduleErrors(t *testing.T) {
	tests := []struct {
		kind, expr, tz string
	}{
		{"interval", "soon", ""},
		{"interval", "-5m", ""},
		{"oneshot", "tomorrow", ""},
		{"cron", "* * *", ""},
		{"cron", "61 * * * *", ""},
		{"cron", "0 25 * * *", ""},
		{"cron", "0 0 * * 8", ""},
		{"cron", "5-1 * * * *", ""},
		{"cron", "*/0 * * * *", ""},
		{"cron", "0 0 * * *", "Mars/Olympus"},
		{"weekly", "friday", ""},
	}
	for _, tt := range tests {
		if _, err := ParseSchedule(tt.kind, tt.expr, tt.tz); err == nil {
			t.Errorf("expected error for %s %q %q", tt.kind, tt.expr, tt.tz)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := map[time.Time]string{
		time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC): "2026-10-12",
		time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC):  "2026-10-12",
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC):  "2026-10-19",
	}
	for in, want := range tests {
		if got := startOfWeek(in).Format("2006-01-02"); got != want {
			t.Errorf("startOfWeek(%v) = %s, want %s", in, got, want)
		}
	}
}
