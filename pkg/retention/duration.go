package retention

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is the length of one calendar day on the retention grid.
const Day = 24 * time.Hour

var (
	isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	isoCalendarPattern = regexp.MustCompile(`^P(?:\d+Y)|^P(?:\d+Y)?\d+M`)
	timeSpanPattern    = regexp.MustCompile(`^(-)?(?:(\d+)\.)?(\d{1,2}):(\d{2})(?::(\d{2})(?:\.(\d{1,7}))?)?$`)
	shorthandPattern   = regexp.MustCompile(`^(-)?(\d+)\s*([dw])$`)
	bareDaysPattern    = regexp.MustCompile(`^(-)?\d+$`)
)

var errOutOfRange = errors.New("out of range")

// scale returns n units, or errOutOfRange when the product does not fit a
// time.Duration.
func scale(n int64, unit time.Duration) (time.Duration, error) {
	if limit := math.MaxInt64 / int64(unit); n > limit || n < -limit {
		return 0, errOutOfRange
	}
	return time.Duration(n) * unit, nil
}

// sum adds non-negative durations, or returns errOutOfRange on overflow.
func sum(parts ...time.Duration) (time.Duration, error) {
	var total time.Duration
	for _, d := range parts {
		if d > math.MaxInt64-total {
			return 0, errOutOfRange
		}
		total += d
	}
	return total, nil
}

// ParseDuration parses a retention duration string. Accepted forms:
//
//	P14D, P2W, PT48H, P1DT12H   ISO-8601 (no years or months)
//	14.00:00:00, 1.00:00:00     d.hh:mm:ss timespan
//	14                          bare number of days
//	14d, 2w                     day and week shorthands
//	336h, 90m                   Go duration syntax
func ParseDuration(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}

	upper := strings.ToUpper(raw)
	if strings.HasPrefix(upper, "P") {
		return parseISODuration(raw, upper)
	}

	if m := timeSpanPattern.FindStringSubmatch(raw); m != nil {
		return parseTimeSpan(raw, m)
	}

	if m := shorthandPattern.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		unit := Day
		if m[3] == "w" {
			unit = 7 * Day
		}
		d, err := scale(n, unit)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		if m[1] == "-" {
			d = -d
		}
		return d, nil
	}

	if bareDaysPattern.MatchString(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		d, err := scale(n, Day)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		return d, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected ISO-8601 (P14D), d.hh:mm:ss (14.00:00:00), 14d or 336h", raw)
	}
	return d, nil
}

func parseISODuration(raw, upper string) (time.Duration, error) {
	if isoCalendarPattern.MatchString(upper) {
		return 0, fmt.Errorf("invalid duration %q: years and months have no fixed length, use days or weeks", raw)
	}

	m := isoDurationPattern.FindStringSubmatch(upper)
	if m == nil || upper == "P" || strings.HasSuffix(upper, "T") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", raw)
	}

	var parts []time.Duration
	units := []time.Duration{7 * Day, Day, time.Hour, time.Minute}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, err)
		}
		d, err := scale(n, unit)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, err)
		}
		parts = append(parts, d)
	}
	if m[5] != "" {
		secs, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, err)
		}
		if secs > float64(math.MaxInt64/int64(time.Second)) {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, errOutOfRange)
		}
		parts = append(parts, time.Duration(secs*float64(time.Second)))
	}

	total, err := sum(parts...)
	if err != nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, err)
	}
	return total, nil
}

func parseTimeSpan(raw string, m []string) (time.Duration, error) {
	atoi := func(v string) int64 {
		if v == "" {
			return 0
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}

	hours, minutes, seconds := atoi(m[3]), atoi(m[4]), atoi(m[5])
	if hours > 23 || minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid duration %q: hours, minutes or seconds out of range", raw)
	}

	days, err := scale(atoi(m[2]), Day)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	var ticks time.Duration
	if frac := m[6]; frac != "" {
		// Fractional seconds are expressed in ticks of 100ns.
		frac += strings.Repeat("0", 7-len(frac))
		ticks = time.Duration(atoi(frac)) * 100 * time.Nanosecond
	}

	d, err := sum(days,
		time.Duration(hours)*time.Hour,
		time.Duration(minutes)*time.Minute,
		time.Duration(seconds)*time.Second,
		ticks,
	)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// FormatDays renders a duration as a compact day count ("14d"), falling back
// to Go syntax when the duration is not a whole number of days.
func FormatDays(d time.Duration) string {
	if d%Day == 0 {
		return fmt.Sprintf("%dd", d/Day)
	}
	return d.String()
}
