package domain

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKey groups campaigns by reporting month. Comparison is structural;
// String is only for display.
type PeriodKey struct {
	Year  int
	Month time.Month
}

// periodLayouts are the stored representations PeriodKeyOf accepts.
var periodLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PeriodKeyOf derives the key from an ISO-8601 period string.
func PeriodKeyOf(period string) (PeriodKey, bool) {
	period = strings.TrimSpace(period)
	if period == "" {
		return PeriodKey{}, false
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, period); err == nil {
			return PeriodKeyFromTime(t), true
		}
	}
	return PeriodKey{}, false
}

func PeriodKeyFromTime(t time.Time) PeriodKey {
	t = t.UTC()
	return PeriodKey{Year: t.Year(), Month: t.Month()}
}

// ParsePeriodKey reads the "2006-01" query form.
func ParsePeriodKey(s string) (PeriodKey, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return PeriodKey{}, fmt.Errorf("period must be in YYYY-MM format: %w", err)
	}
	return PeriodKey{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the key as "March 2024".
func (k PeriodKey) String() string {
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// Param renders the key in the "2006-01" query form.
func (k PeriodKey) Param() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (k PeriodKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}
