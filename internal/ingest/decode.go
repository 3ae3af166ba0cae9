package ingest

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText turns uploaded bytes into text. Valid UTF-8 passes through
// with its BOM removed. Anything else is decoded according to its BOM
// (UTF-16 LE/BE or UTF-8) and, without one, as Windows-1252. When the
// Windows-1252 text contains none of the header markers it is decoded
// again as Windows-1251, the code page of Cyrillic exports. Markers
// default to DefaultHeaderMarkers.
func DecodeText(data []byte, markers ...string) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), byteOrderMark)
	}
	if len(markers) == 0 {
		markers = DefaultHeaderMarkers
	}

	text, ok := decodeWith(charmap.Windows1252, data)
	if ok && containsMarker(text, markers) {
		return text
	}
	if cyrillic, ok := decodeWith(charmap.Windows1251, data); ok && containsMarker(cyrillic, markers) {
		return cyrillic
	}
	if ok {
		return text
	}
	return strings.ToValidUTF8(string(data), "�")
}

// Decode is DecodeText with the parser's header markers.
func (p *Parser) Decode(data []byte) string {
	return DecodeText(data, p.opts.Markers...)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", false
	}
	return strings.TrimPrefix(string(out), byteOrderMark), true
}

func containsMarker(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
