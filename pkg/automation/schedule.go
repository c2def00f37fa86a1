package automation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule kinds.
const (
	KindInterval = "interval"
	KindOneshot  = "oneshot"
	KindCron     = "cron"
)

// Schedule decides when a job runs next.
type Schedule struct {
	kind     string
	location *time.Location
	interval time.Duration
	at       time.Time
	cron     *cronSpec
}

// ParseSchedule validates a schedule definition once so a running scheduler
// never meets a malformed expression.
func ParseSchedule(kind, expr, tz string) (*Schedule, error) {
	s := &Schedule{kind: strings.ToLower(kind), location: time.UTC}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		s.location = loc
	}

	switch s.kind {
	case KindInterval:
		d, err := time.ParseDuration(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid interval expression %q: %w", expr, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		s.interval = d
	case KindOneshot:
		t, err := time.Parse(time.RFC3339, expr)
		if err != nil {
			return nil, fmt.Errorf("invalid oneshot expression %q: %w", expr, err)
		}
		s.at = t
	case KindCron:
		spec, err := parseCron(expr)
		if err != nil {
			return nil, err
		}
		s.cron = spec
	default:
		return nil, fmt.Errorf("unsupported schedule kind %q", kind)
	}
	return s, nil
}

// Next returns the first run strictly after from. ok is false when the
// schedule will never fire again.
func (s *Schedule) Next(from time.Time) (next time.Time, ok bool) {
	local := from.In(s.location)
	switch s.kind {
	case KindInterval:
		return local.Add(s.interval).UTC(), true
	case KindOneshot:
		if !s.at.After(from) {
			return time.Time{}, false
		}
		return s.at.UTC(), true
	default:
		t, found := s.cron.next(local)
		if !found {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
}

// OneShot reports whether the schedule fires at most once.
func (s *Schedule) OneShot() bool {
	return s.kind == KindOneshot
}

type cronSpec struct {
	macro      string
	minute     map[int]bool
	hour       map[int]bool
	dayOfMonth map[int]bool
	month      map[int]bool
	dayOfWeek  map[int]bool
	domAny     bool
	dowAny     bool
}

func parseCron(expr string) (*cronSpec, error) {
	expr = strings.TrimSpace(expr)
	switch expr {
	case "@hourly", "@daily", "@weekly":
		return &cronSpec{macro: expr}, nil
	}

	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q (expected 5 fields)", expr)
	}

	var (
		spec = &cronSpec{domAny: parts[2] == "*", dowAny: parts[4] == "*"}
		err  error
	)
	if spec.minute, err = parseCronField(parts[0], 0, 59); err != nil {
		return nil, fmt.Errorf("invalid minute field: %w", err)
	}
	if spec.hour, err = parseCronField(parts[1], 0, 23); err != nil {
		return nil, fmt.Errorf("invalid hour field: %w", err)
	}
	if spec.dayOfMonth, err = parseCronField(parts[2], 1, 31); err != nil {
		return nil, fmt.Errorf("invalid day-of-month field: %w", err)
	}
	if spec.month, err = parseCronField(parts[3], 1, 12); err != nil {
		return nil, fmt.Errorf("invalid month field: %w", err)
	}
	if spec.dayOfWeek, err = parseCronField(parts[4], 0, 7); err != nil {
		return nil, fmt.Errorf("invalid day-of-week field: %w", err)
	}
	if spec.dayOfWeek[7] {
		spec.dayOfWeek[0] = true
	}
	return spec, nil
}

func (c *cronSpec) next(from time.Time) (time.Time, bool) {
	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	switch c.macro {
	case "@hourly":
		return startOfHour(from).Add(time.Hour), true
	case "@daily":
		return midnight.AddDate(0, 0, 1), true
	case "@weekly":
		// next Sunday midnight
		offset := (7 - int(from.Weekday())) % 7
		if offset == 0 {
			offset = 7
		}
		return midnight.AddDate(0, 0, offset), true
	}

	candidate := from.Truncate(time.Minute).Add(time.Minute)
	limit := candidate.AddDate(2, 0, 0)
	for !candidate.After(limit) {
		if !c.month[int(candidate.Month())] {
			candidate = time.Date(candidate.Year(), candidate.Month(), 1, 0, 0, 0, 0, candidate.Location()).AddDate(0, 1, 0)
			continue
		}
		if !c.dayMatches(candidate) {
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, candidate.Location()).AddDate(0, 0, 1)
			continue
		}
		if !c.hour[candidate.Hour()] {
			candidate = startOfHour(candidate).Add(time.Hour)
			continue
		}
		if !c.minute[candidate.Minute()] {
			candidate = candidate.Add(time.Minute)
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func (c *cronSpec) dayMatches(t time.Time) bool {
	dom := c.dayOfMonth[t.Day()]
	dow := c.dayOfWeek[int(t.Weekday())]
	switch {
	case c.domAny && c.dowAny:
		return true
	case c.domAny:
		return dow
	case c.dowAny:
		return dom
	default:
		return dom || dow
	}
}

func parseCronField(field string, min, max int) (map[int]bool, error) {
	allowed := make(map[int]bool, max-min+1)
	if field == "*" {
		for i := min; i <= max; i++ {
			allowed[i] = true
		}
		return allowed, nil
	}

	items := strings.Split(field, ",")
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("empty token")
		}
		step := 1
		rangePart := item
		if strings.Contains(item, "/") {
			parts := strings.Split(item, "/")
			if len(parts) != 2 {
				return nil, fmt.Errorf("invalid step expression %q", item)
			}
			rangePart = parts[0]
			s, err := strconv.Atoi(parts[1])
			if err != nil || s <= 0 {
				return nil, fmt.Errorf("invalid step in %q", item)
			}
			step = s
		}

		if rangePart == "*" {
			for i := min; i <= max; i += step {
				allowed[i] = true
			}
			continue
		}

		start, end, err := parseRange(rangePart, min, max)
		if err != nil {
			return nil, err
		}
		for i := start; i <= end; i += step {
			allowed[i] = true
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("no values selected")
	}
	return allowed, nil
}

func parseRange(part string, min, max int) (int, int, error) {
	if strings.Contains(part, "-") {
		r := strings.Split(part, "-")
		if len(r) != 2 {
			return 0, 0, fmt.Errorf("invalid range %q", part)
		}
		start, err := strconv.Atoi(r[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range start %q", part)
		}
		end, err := strconv.Atoi(r[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range end %q", part)
		}
		if start > end || start < min || end > max {
			return 0, 0, fmt.Errorf("range out of bounds %q", part)
		}
		return start, end, nil
	}

	v, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid value %q", part)
	}
	if v < min || v > max {
		return 0, 0, fmt.Errorf("value %d out of bounds [%d,%d]", v, min, max)
	}
	return v, v, nil
}
