// Package ingest turns locale-ambiguous campaign report exports into
// normalized domain.Campaign records.
package ingest

import (
	"strings"
)

const quote = '"'

// Tokenize splits a single line into cells on delim. A double quote toggles
// the quoted state, so delimiters inside quotes do not split; a doubled
// quote inside a quoted cell is a literal quote. Cells are whitespace
// trimmed and lose their surrounding quotes.
func Tokenize(line string, delim rune) []string {
	var (
		cells    []string
		current  strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == quote:
			if inQuotes && i+1 < len(runes) && runes[i+1] == quote {
				current.WriteRune(quote)
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(cells, strings.TrimSpace(current.String()))
}
