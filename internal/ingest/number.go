package ingest

import (
	"strconv"
	"strings"
)

// ParseNumber reads a locale-formatted number. It is total: anything it
// cannot read becomes 0 with ok set to false.
//
// When both '.' and ',' occur, the one appearing last is the decimal
// separator. When only one kind occurs it is a decimal separator, except
// that it groups thousands if it repeats, or if integer is set and it
// splits the digits into two groups with exactly three trailing digits.
func ParseNumber(raw string, integer bool) (value float64, ok bool) {
	cleaned := cleanNumber(raw)
	if cleaned == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		cleaned = singleSeparator(cleaned, ".", integer)
	case lastComma >= 0:
		cleaned = singleSeparator(cleaned, ",", integer)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func singleSeparator(s, sep string, integer bool) string {
	groups := strings.Split(s, sep)
	switch {
	case len(groups) > 2:
		return strings.Join(groups, "")
	case integer && len(groups) == 2 && len(groups[1]) == 3:
		return strings.Join(groups, "")
	default:
		return strings.Replace(s, sep, ".", 1)
	}
}

// cleanNumber keeps digits, '.', ',' and '-'. Whitespace of any kind,
// including non-breaking spaces, currency symbols and percent signs go.
func cleanNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
