package regiontime

import (
	"testing"
	"time"
)

func TestParseInvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "not-a-date", "2024-13-45T99:00:00Z"} {
		if _, ok := Parse(input); ok {
			t.Errorf("Parse(%q) ok = true, want false", input)
		}
	}
}

func TestParseLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-15T10:00:00Z", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00+03:00", time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15 10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.input)
		if !ok {
			t.Errorf("Parse(%q) failed", tt.input)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFixedOffsetExample(t *testing.T) {
	// UTC 10:00 on 2024-01-15 reads 13:00 on the same date in the region.
	r, ok := UTCToRegional("2024-01-15T10:00:00Z")
	if !ok {
		t.Fatal("UTCToRegional failed")
	}
	if got := FormatTime(r); got != "13:00" {
		t.Errorf("FormatTime = %q, want %q", got, "13:00")
	}
	if got := FormatDate(r); got != "2024-01-15" {
		t.Errorf("FormatDate = %q, want %q", got, "2024-01-15")
	}
	if got := FormatDateTime(r); got != "2024-01-15 13:00" {
		t.Errorf("FormatDateTime = %q, want %q", got, "2024-01-15 13:00")
	}
}

func TestPrimaryAndFallbackAgree(t *testing.T) {
	// The region has no DST, so the IANA zone and the fixed +3h offset must
	// produce identical year/month/day/hour/minute fields for any instant.
	instants := []time.Time{
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 21, 0, 0, 0, time.UTC),
		time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	opts := DateTimeOptions()
	for _, instant := range instants {
		primary := formatIn(instant, location, opts)
		fallback := formatIn(instant, fixedLocation(), opts)
		if primary != fallback {
			t.Errorf("instant %v: primary %q != fallback %q", instant, primary, fallback)
		}
	}
}

func TestWallToUTCRoundTrip(t *testing.T) {
	inputs := []string{
		"2024-01-15T10:00:00Z",
		"2024-06-30T21:30:00Z",
		"2000-02-29T00:00:00Z",
	}
	for _, iso := range inputs {
		regional, ok := UTCToRegional(iso)
		if !ok {
			t.Fatalf("UTCToRegional(%q) failed", iso)
		}
		back := WallToUTC(regional)
		want, _ := Parse(iso)
		got, ok := Parse(back)
		if !ok {
			t.Fatalf("Parse(%q) failed", back)
		}
		if !got.Equal(want) {
			t.Errorf("round trip %q -> %q, instants differ", iso, back)
		}
	}
}

func TestWallToUTCIgnoresHostOffset(t *testing.T) {
	// A wall reading of 13:00 means 13:00 in the region no matter which
	// location the value was constructed in.
	weird := time.FixedZone("weird", -5*3600)
	wall := time.Date(2024, 1, 15, 13, 0, 0, 0, weird)
	if got := WallToUTC(wall); got != "2024-01-15T10:00:00Z" {
		t.Errorf("WallToUTC = %q, want %q", got, "2024-01-15T10:00:00Z")
	}
}

func TestWallToUTCZero(t *testing.T) {
	if got := WallToUTC(time.Time{}); got != "" {
		t.Errorf("WallToUTC(zero) = %q, want empty", got)
	}
}

func TestFormatZeroAndUnparseable(t *testing.T) {
	if got := Format(time.Time{}, DateTimeOptions()); got != "" {
		t.Errorf("Format(zero) = %q, want empty", got)
	}
	if got := FormatString("garbage", DateTimeOptions()); got != "" {
		t.Errorf("FormatString(garbage) = %q, want empty", got)
	}
	if got := FormatString("", DateTimeOptions()); got != "" {
		t.Errorf("FormatString(empty) = %q, want empty", got)
	}
}

func TestFormatFieldSelection(t *testing.T) {
	instant := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) // 13:00 regional
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"date and 24h time", DateTimeOptions(), "2024-01-15 13:00"},
		{"date only", DateOptions(), "2024-01-15"},
		{"time only", TimeOptions(), "13:00"},
		{"12-hour clock", Options{Hour: true, Minute: true, TwelveHour: true}, "1:00 PM"},
		{"short month", Options{Year: true, Month: MonthShort, Day: true}, "Jan 15, 2024"},
		{"long month", Options{Year: true, Month: MonthLong, Day: true}, "January 15, 2024"},
		{"year only", Options{Year: true}, "2024"},
	}
	for _, tt := range tests {
		if got := Format(instant, tt.opts); got != tt.want {
			t.Errorf("%s: Format = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRangeToday(t *testing.T) {
	w := Range("today", "", "")
	if w == nil {
		t.Fatal("Range(today) = nil")
	}
	now := Now()
	if w.Start.Year() != now.Year() || w.Start.Month() != now.Month() || w.Start.Day() != now.Day() {
		t.Errorf("start %v is not today", w.Start)
	}
	if w.Start.Hour() != 0 || w.Start.Minute() != 0 {
		t.Errorf("start %v is not midnight", w.Start)
	}
	if !w.End.After(w.Start) {
		t.Errorf("end %v not after start %v", w.End, w.Start)
	}
}

func TestRangeWeekAndMonth(t *testing.T) {
	for period, days := range map[string]int{"week": 7, "month": 30} {
		w := Range(period, "", "")
		if w == nil {
			t.Fatalf("Range(%s) = nil", period)
		}
		span := w.End.Sub(w.Start)
		want := time.Duration(days) * 24 * time.Hour
		if span < want-time.Minute || span > want+time.Minute {
			t.Errorf("Range(%s) span = %v, want ~%v", period, span, want)
		}
	}
}

func TestRangeCustom(t *testing.T) {
	w := Range("custom", "2024-01-01", "2024-01-31")
	if w == nil {
		t.Fatal("Range(custom) = nil")
	}
	if w.Start.Day() != 1 || w.Start.Month() != time.January {
		t.Errorf("start = %v", w.Start)
	}
	// End extends to the end of the named day.
	if w.End.Day() != 31 || w.End.Hour() != 23 {
		t.Errorf("end = %v, want end of Jan 31", w.End)
	}
}

func TestRangeUnrestricted(t *testing.T) {
	for _, period := range []string{"all", "", "bogus"} {
		if w := Range(period, "", ""); w != nil {
			t.Errorf("Range(%q) = %+v, want nil", period, w)
		}
	}
	// Malformed custom bounds degrade to no restriction.
	if w := Range("custom", "2024-01-01", "not-a-date"); w != nil {
		t.Errorf("Range(custom, bad end) = %+v, want nil", w)
	}
}
