package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	lines := SplitLines("\uFEFFReport\r\n\r\nCampaign,Cost\r\n  \nA,1\n")
	assert.Equal(t, []string{"Report", "Campaign,Cost", "A,1"}, lines)
}

func TestLocateHeader_SkipsMetadata(t *testing.T) {
	lines := []string{
		"Campaign performance report",
		"All time",
	}
	idx, ok := LocateHeader(lines, DefaultHeaderMarkers, DefaultScanWindow)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	lines = []string{"Account: Shop", "Date range: March", "Кампания;Показы"}
	idx, ok = LocateHeader(lines, DefaultHeaderMarkers, DefaultScanWindow)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestLocateHeader_ScanWindowBoundary(t *testing.T) {
	build := func(noise int) []string {
		var lines []string
		for i := 0; i < noise; i++ {
			lines = append(lines, fmt.Sprintf("metadata %d", i))
		}
		return append(lines, "Campaign,Cost")
	}

	idx, ok := LocateHeader(build(19), DefaultHeaderMarkers, 20)
	assert.True(t, ok, "header on line 20 is inside the window")
	assert.Equal(t, 19, idx)

	_, ok = LocateHeader(build(20), DefaultHeaderMarkers, 20)
	assert.False(t, ok, "header on line 21 is outside the window")
}

func TestLocateHeaderRow(t *testing.T) {
	rows := [][]string{{"Report"}, {"", "CAMPAIGN NAME", "Cost"}}
	idx, ok := LocateHeaderRow(rows, DefaultHeaderMarkers, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = LocateHeaderRow([][]string{{"x"}}, DefaultHeaderMarkers, 0)
	assert.False(t, ok)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"Campaign,Impressions,Clicks", ','},
		{"Campaign;Impressions;Clicks", ';'},
		{"Campaign\tImpressions\tClicks", '\t'},
		{`"Campaign, all";Impr.;"Cost, USD"`, ';'},
		{"Campaign", ','},
		{"Campaign,Cost;Clicks", ','},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.line, "\t", "\\t"), func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDelimiter(tt.line))
		})
	}
}
