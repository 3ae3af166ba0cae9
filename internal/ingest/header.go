package ingest

import (
	"strings"
)

const (
	byteOrderMark = "\uFEFF"

	// DefaultScanWindow is how many non-blank lines are searched for the header.
	DefaultScanWindow = 20
)

// Delimiters in tie-break priority order.
var Delimiters = []rune{',', ';', '\t'}

// DefaultHeaderMarkers locate the header row among export metadata.
var DefaultHeaderMarkers = []string{"campaign", "кампания"}

// SplitLines strips a leading BOM, splits on newlines and drops blank lines.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, byteOrderMark)

	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// LocateHeader returns the index of the first line among the first window
// lines that contains any marker, case-insensitively.
func LocateHeader(lines []string, markers []string, window int) (int, bool) {
	return locate(len(lines), window, func(i int) bool {
		return containsMarker(lines[i], markers)
	})
}

// LocateHeaderRow is LocateHeader for pre-split rows (spreadsheets).
func LocateHeaderRow(rows [][]string, markers []string, window int) (int, bool) {
	return locate(len(rows), window, func(i int) bool {
		return containsMarker(strings.Join(rows[i], " "), markers)
	})
}

func locate(n, window int, match func(int) bool) (int, bool) {
	if window <= 0 {
		window = DefaultScanWindow
	}
	for i := 0; i < n && i < window; i++ {
		if match(i) {
			return i, true
		}
	}
	return -1, false
}

func containsMarker(line string, markers []string) bool {
	lower := strings.ToLower(line)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// SniffDelimiter picks the delimiter that splits the header line into the
// most cells. Quoted text is honoured, so commas inside quoted names do not
// count for the comma candidate.
func SniffDelimiter(line string) rune {
	best, bestCount := Delimiters[0], 0
	for _, delim := range Delimiters {
		if n := len(Tokenize(line, delim)); n > bestCount {
			best, bestCount = delim, n
		}
	}
	return best
}

func delimiterName(d rune) string {
	switch d {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	}
	return string(d)
}
