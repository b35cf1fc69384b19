// Package regiontime renders timestamps in the fixed business timezone,
// Asia/Riyadh (UTC+3). The region is authoritative for both display and form
// input regardless of where the process runs, so nothing in this package
// consults the host's local timezone.
package regiontime

import (
	"fmt"
	"strings"
	"time"
)

// ZoneName is the IANA name of the business timezone.
const ZoneName = "Asia/Riyadh"

// offsetSeconds is the fixed UTC offset of the region. The region observes no
// daylight saving, so a constant offset is exact rather than an approximation,
// and the fallback path produces the same field values as the IANA path.
const offsetSeconds = 3 * 60 * 60

var location = loadLocation()

// loadLocation selects the rendering location once at init: the IANA zone
// database when available, otherwise a fixed +3h offset. Selection is a
// capability check, not exception-driven control flow, so both paths stay
// independently testable.
func loadLocation() *time.Location {
	if loc, err := time.LoadLocation(ZoneName); err == nil {
		return loc
	}
	return fixedLocation()
}

func fixedLocation() *time.Location {
	return time.FixedZone("UTC+3", offsetSeconds)
}

// Location returns the location used for all regional rendering.
func Location() *time.Location {
	return location
}

// parseLayouts are tried in order. Layouts without an explicit offset are
// interpreted as UTC instants.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse parses an ISO-8601-ish timestamp. Empty or unparseable input returns
// ok=false; it never panics.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToRegional returns the same instant viewed in the region's timezone. The
// zero time passes through unchanged so callers can chain into Format.
func ToRegional(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(location)
}

// ParseRegional parses a timestamp and views it in the region's timezone.
func ParseRegional(s string) (time.Time, bool) {
	t, ok := Parse(s)
	if !ok {
		return time.Time{}, false
	}
	return t.In(location), true
}

// Now returns the current instant in the region's timezone.
func Now() time.Time {
	return time.Now().In(location)
}

// UTCToRegional parses a UTC ISO-8601 instant and views it in the region.
func UTCToRegional(iso string) (time.Time, bool) {
	return ParseRegional(iso)
}

// WallToUTC interprets the broken-down fields of wall as a clock reading in
// the region, regardless of which location wall was constructed in, and
// returns the equivalent UTC instant in ISO-8601. The zero time yields "".
func WallToUTC(wall time.Time) string {
	if wall.IsZero() {
		return ""
	}
	y, mo, d := wall.Date()
	h, mi, s := wall.Clock()
	t := time.Date(y, mo, d, h, mi, s, wall.Nanosecond(), location)
	return t.UTC().Format(time.RFC3339)
}

// MonthStyle selects how Format renders the month field.
type MonthStyle int

const (
	MonthNone MonthStyle = iota
	MonthNumeric
	MonthShort
	MonthLong
)

// Options selects the fields Format includes.
type Options struct {
	Year       bool
	Month      MonthStyle
	Day        bool
	Hour       bool
	Minute     bool
	TwelveHour bool
}

// DateTimeOptions is the default table/list rendering: full date plus 24h time.
func DateTimeOptions() Options {
	return Options{Year: true, Month: MonthNumeric, Day: true, Hour: true, Minute: true}
}

// DateOptions renders date fields only.
func DateOptions() Options {
	return Options{Year: true, Month: MonthNumeric, Day: true}
}

// TimeOptions renders time fields only.
func TimeOptions() Options {
	return Options{Hour: true, Minute: true}
}

// Format renders t in the region using the selected fields. The zero time
// renders as the empty string. It never panics.
func Format(t time.Time, opts Options) string {
	if t.IsZero() {
		return ""
	}
	return formatIn(t, location, opts)
}

// FormatString parses then formats; unparseable input renders as "".
func FormatString(s string, opts Options) string {
	t, ok := Parse(s)
	if !ok {
		return ""
	}
	return formatIn(t, location, opts)
}

// FormatDateTime renders "2006-01-02 15:04" in region time.
func FormatDateTime(t time.Time) string { return Format(t, DateTimeOptions()) }

// FormatDate renders "2006-01-02" in region time.
func FormatDate(t time.Time) string { return Format(t, DateOptions()) }

// FormatTime renders "15:04" in region time.
func FormatTime(t time.Time) string { return Format(t, TimeOptions()) }

// formatIn builds a layout from opts and formats t in loc. Kept separate from
// Format so tests can compare the IANA path against the fixed-offset path.
func formatIn(t time.Time, loc *time.Location, opts Options) string {
	layout := buildLayout(opts)
	if layout == "" {
		return ""
	}
	return t.In(loc).Format(layout)
}

func buildLayout(opts Options) string {
	var date string
	switch opts.Month {
	case MonthNumeric:
		var parts []string
		if opts.Year {
			parts = append(parts, "2006")
		}
		parts = append(parts, "01")
		if opts.Day {
			parts = append(parts, "02")
		}
		date = strings.Join(parts, "-")
	case MonthShort, MonthLong:
		month := "Jan"
		if opts.Month == MonthLong {
			month = "January"
		}
		date = month
		if opts.Day {
			date = month + " 2"
		}
		if opts.Year {
			date += ", 2006"
		}
	default:
		var parts []string
		if opts.Year {
			parts = append(parts, "2006")
		}
		if opts.Day {
			parts = append(parts, "02")
		}
		date = strings.Join(parts, "-")
	}

	var clock string
	switch {
	case opts.Hour && opts.Minute && opts.TwelveHour:
		clock = "3:04 PM"
	case opts.Hour && opts.Minute:
		clock = "15:04"
	case opts.Hour && opts.TwelveHour:
		clock = "3 PM"
	case opts.Hour:
		clock = "15"
	}

	switch {
	case date != "" && clock != "":
		return fmt.Sprintf("%s %s", date, clock)
	case date != "":
		return date
	default:
		return clock
	}
}

// Window is a closed date range in region time used by list filters.
type Window struct {
	Start time.Time
	End   time.Time
}

// Range resolves a named filter period to a concrete window in region time.
// Recognized periods: "today", "week", "month", and "custom" with YYYY-MM-DD
// bounds. Anything else (including "all" and malformed custom bounds) returns
// nil, meaning no date restriction.
func Range(period, startDate, endDate string) *Window {
	now := Now()
	switch period {
	case "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)
		return &Window{Start: start, End: start.Add(24*time.Hour - time.Nanosecond)}
	case "week":
		return &Window{Start: now.AddDate(0, 0, -7), End: now}
	case "month":
		return &Window{Start: now.AddDate(0, 0, -30), End: now}
	case "custom":
		start, okS := parseDate(startDate)
		end, okE := parseDate(endDate)
		if !okS || !okE {
			return nil
		}
		return &Window{Start: start, End: end.Add(24*time.Hour - time.Nanosecond)}
	default:
		return nil
	}
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
