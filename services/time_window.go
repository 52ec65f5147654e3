package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSeatingDuration is used when no duration has been configured.
const DefaultSeatingDuration = 2 * time.Hour

const (
	dateLayout  = "2006-01-02"
	minutesADay = 24 * 60
)

// Clock is a time of day with minute precision, counted from midnight.
// EndOfDay (24:00) is only valid as the end of a window.
type Clock int

const EndOfDay Clock = minutesADay

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseClock accepts HH:MM or HH:MM:SS. Seconds are dropped.
func ParseClock(s string) (Clock, error) {
	return parseClock(s, false)
}

// ParseEndClock is ParseClock that also accepts 24:00.
func ParseEndClock(s string) (Clock, error) {
	return parseClock(s, true)
}

func parseClock(s string, allowEndOfDay bool) (Clock, error) {
	raw := strings.TrimSpace(s)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || (i > 0 && len(p) != 2) || !isDigits(p) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		fields[i], _ = strconv.Atoi(p)
	}

	hour, minute := fields[0], fields[1]
	second := 0
	if len(fields) == 3 {
		second = fields[2]
	}
	if minute > 59 || second > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, s)
	}
	if hour == 24 && allowEndOfDay && minute == 0 && second == 0 {
		return EndOfDay, nil
	}
	if hour > 23 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, s)
	}
	return Clock(hour*60 + minute), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseDate validates a YYYY-MM-DD calendar day and returns it normalized.
func ParseDate(s string) (string, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: date %q", ErrInvalidTimeFormat, s)
	}
	return d.Format(dateLayout), nil
}

// TimeWindow is the half-open interval [Start, End) on a single day.
type TimeWindow struct {
	Start Clock
	End   Clock
}

// Overlaps uses half-open semantics: windows that only touch do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// TimeWindowResolver turns a reservation's start and optional end into a
// concrete window.
type TimeWindowResolver struct {
	DefaultDuration time.Duration
}

func NewTimeWindowResolver(defaultDuration time.Duration) TimeWindowResolver {
	if defaultDuration <= 0 {
		defaultDuration = DefaultSeatingDuration
	}
	return TimeWindowResolver{DefaultDuration: defaultDuration}
}

// Resolve returns [start, end) verbatim when end is given. Otherwise the end
// is start plus the default duration, capped at 24:00 because windows never
// cross into the next day.
func (r TimeWindowResolver) Resolve(start string, end *string) (TimeWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}

	if end != nil && strings.TrimSpace(*end) != "" {
		e, err := parseClock(*end, true)
		if err != nil {
			return TimeWindow{}, err
		}
		if e <= s {
			return TimeWindow{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTimeFormat, e, s)
		}
		return TimeWindow{Start: s, End: e}, nil
	}

	duration := r.DefaultDuration
	if duration <= 0 {
		duration = DefaultSeatingDuration
	}
	e := s + Clock(duration/time.Minute)
	if e > EndOfDay {
		e = EndOfDay
	}
	if e <= s {
		e = s + 1
	}
	return TimeWindow{Start: s, End: e}, nil
}
