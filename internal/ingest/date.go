package ingest

import (
	"strconv"
	"strings"
	"time"
)

// fallbackDateLayouts are tried when the day/month/year heuristic does not
// apply. All are interpreted in UTC.
var fallbackDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

var rangeSeparators = []string{" - ", " – ", " — "}

// ParseDate reads a report date. Three parts split on '.', '/' or '-' are
// read as year-month-day when the first part has four digits and as
// day-month-year otherwise. Other shapes go through fallbackDateLayouts.
// A "start - end" range yields its start. When nothing works the result is
// now() with ok set to false.
func ParseDate(raw string, now func() time.Time) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now(), false
	}

	for _, sep := range rangeSeparators {
		if start, _, found := strings.Cut(raw, sep); found {
			raw = strings.TrimSpace(start)
			break
		}
	}

	if t, ok := parseDayMonthYear(raw); ok {
		return t, true
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}

	return now(), false
}

func parseDayMonthYear(raw string) (time.Time, bool) {
	parts := splitDate(raw)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	dayPart, monthPart, yearPart := parts[0], parts[1], parts[2]
	if len(parts[0]) == 4 {
		yearPart, dayPart = parts[0], parts[2]
	}

	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil {
		return time.Time{}, false
	}

	if year >= 0 && year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// splitDate splits on '.', '/' and '-' keeping empty parts.
func splitDate(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i, r := range s {
		if r == '.' || r == '/' || r == '-' {
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
