package ingest

import (
	"strings"
	"time"

	"adsimport/internal/domain"
)

// Reasons reported when a parse yields no campaigns.
const (
	ReasonHeaderNotFound = "header not found"
	ReasonMissingColumns = "name and spend or impressions columns required"
	ReasonNoDataRows     = "no data rows"
)

// Options configures a Parser. Empty fields fall back to the defaults of
// DefaultOptions, except SkipTotalRows which is taken as given.
type Options struct {
	Markers         []string
	ScanWindow      int
	Rules           []FieldRule
	DefaultCurrency string
	DefaultType     string
	DefaultStatus   string
	DefaultStrategy string
	SkipTotalRows   bool
	Clock           domain.Clock
}

func DefaultOptions() Options {
	return Options{
		Markers:         DefaultHeaderMarkers,
		ScanWindow:      DefaultScanWindow,
		Rules:           DefaultFieldRules,
		DefaultCurrency: "USD",
		DefaultType:     "Search",
		DefaultStatus:   "Enabled",
		DefaultStrategy: "Not set",
		SkipTotalRows:   true,
		Clock:           time.Now,
	}
}

// Result is the outcome of one parse. An empty Campaigns slice means the
// input was not recognized as a campaign export; Report says why.
type Result struct {
	Campaigns []domain.Campaign
	Report    domain.ParseReport
}

func (r Result) Recognized() bool {
	return len(r.Campaigns) > 0
}

// Parser runs the header locator, field mapper and record builder over
// an export. It holds no state between calls.
type Parser struct {
	opts Options
}

func NewParser(opts Options) *Parser {
	def := DefaultOptions()
	if len(opts.Markers) == 0 {
		opts.Markers = def.Markers
	}
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = def.ScanWindow
	}
	if len(opts.Rules) == 0 {
		opts.Rules = def.Rules
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = def.DefaultCurrency
	}
	if opts.DefaultType == "" {
		opts.DefaultType = def.DefaultType
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = def.DefaultStatus
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = def.DefaultStrategy
	}
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	return &Parser{opts: opts}
}

// Parse reads delimited text. The delimiter is sniffed from the header
// line and applied to every following line.
func (p *Parser) Parse(text string) Result {
	lines := SplitLines(text)

	headerIdx, ok := LocateHeader(lines, p.opts.Markers, p.opts.ScanWindow)
	if !ok {
		return Result{Report: domain.ParseReport{HeaderLine: -1, Reason: ReasonHeaderNotFound}}
	}

	delim := SniffDelimiter(lines[headerIdx])
	header := Tokenize(lines[headerIdx], delim)

	rows := make([][]string, 0, len(lines)-headerIdx-1)
	for _, line := range lines[headerIdx+1:] {
		rows = append(rows, Tokenize(line, delim))
	}

	return p.build(header, rows, domain.ParseReport{
		HeaderLine: headerIdx,
		Delimiter:  delimiterName(delim),
	})
}

// ParseRows reads rows that are already split into cells, as spreadsheets
// are. Blank rows are ignored. Spreadsheets omit trailing empty cells, so
// data rows are padded to the header width instead of being dropped.
func (p *Parser) ParseRows(rows [][]string) Result {
	rows = dropBlankRows(rows)

	headerIdx, ok := LocateHeaderRow(rows, p.opts.Markers, p.opts.ScanWindow)
	if !ok {
		return Result{Report: domain.ParseReport{HeaderLine: -1, Reason: ReasonHeaderNotFound}}
	}

	header := trimTrailingBlank(rows[headerIdx])
	data := make([][]string, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		data = append(data, padRow(row, len(header)))
	}

	return p.build(header, data, domain.ParseReport{HeaderLine: headerIdx})
}

func (p *Parser) build(header []string, rows [][]string, report domain.ParseReport) Result {
	fields := ResolveFields(header, p.opts.Rules)
	report.Fields = fields.Names()
	for idx, claimed := range fields.Collisions() {
		if report.Collisions == nil {
			report.Collisions = make(map[int][]string)
		}
		for _, f := range claimed {
			report.Collisions[idx] = append(report.Collisions[idx], string(f))
		}
	}
	if !fields.Valid() {
		report.Reason = ReasonMissingColumns
		return Result{Report: report}
	}

	b := newRowBuilder(p.opts, header, fields)
	campaigns := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(header) {
			report.DroppedShort++
			continue
		}
		if p.opts.SkipTotalRows && b.isSummary(row) {
			report.DroppedTotals++
			continue
		}
		campaigns = append(campaigns, b.build(row))
	}

	report.DataRows = len(campaigns)
	if len(b.coerced) > 0 {
		report.Coerced = b.coerced
	}
	if len(campaigns) == 0 {
		report.Reason = ReasonNoDataRows
		return Result{Report: report}
	}
	return Result{Campaigns: campaigns, Report: report}
}

func dropBlankRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
