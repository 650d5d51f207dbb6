// Package duration parses and formats durations for configuration values
// such as the artifact TTL. It extends Go's time.ParseDuration with day and
// week units and accepts spelled-out unit names: "7d", "2 weeks" and "36h"
// are all valid.
package duration

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Extended units.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var unitValues = map[string]time.Duration{
	"ns": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
	"us": time.Microsecond, "µs": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ms": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": Day, "day": Day, "days": Day,
	"w": Week, "wk": Week, "wks": Week, "week": Week, "weeks": Week,
}

// Parse converts a human-readable duration string into a time.Duration.
// The string is a sequence of number/unit pairs with optional whitespace:
// "7d", "1w2d12h", "2 weeks", "90m". A leading "-" negates the whole value.
func Parse(s string) (time.Duration, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	negative := strings.HasPrefix(input, "-")
	if negative {
		input = strings.TrimSpace(input[1:])
	}
	if input == "0" {
		return 0, nil
	}

	var total time.Duration
	rest := input
	for rest != "" {
		rest = strings.TrimSpace(rest)

		// Numeric part (integer or decimal).
		i := 0
		for i < len(rest) && (rest[i] >= '0' && rest[i] <= '9' || rest[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("duration: expected number in %q", s)
		}
		numStr := rest[:i]
		rest = strings.TrimSpace(rest[i:])

		// Unit part: letters (including µ).
		j := 0
		for j < len(rest) {
			r := []rune(rest[j:])[0]
			if !unicode.IsLetter(r) {
				break
			}
			j += len(string(r))
		}
		if j == 0 {
			return 0, fmt.Errorf("duration: missing unit after %q in %q", numStr, s)
		}
		unitStr := strings.ToLower(rest[:j])
		rest = rest[j:]

		unit, ok := unitValues[unitStr]
		if !ok {
			return 0, fmt.Errorf("duration: unknown unit %q in %q", unitStr, s)
		}

		// Reuse the stdlib parser for the numeric conversion so decimals
		// behave identically to time.ParseDuration.
		part, err := time.ParseDuration(numStr + "ns")
		if err != nil {
			return 0, fmt.Errorf("duration: invalid number %q in %q", numStr, s)
		}
		total += time.Duration(float64(part) * float64(unit) / float64(time.Nanosecond))
	}

	if negative {
		total = -total
	}
	return total, nil
}

// Format renders a duration using the largest fitting units, omitting zero
// components: 36h becomes "1d12h", 90s becomes "1m30s".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}

	steps := []struct {
		unit time.Duration
		name string
	}{
		{Week, "w"},
		{Day, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "µs"},
		{time.Nanosecond, "ns"},
	}
	for _, st := range steps {
		if n := d / st.unit; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, st.name)
			d -= n * st.unit
		}
	}
	return b.String()
}
