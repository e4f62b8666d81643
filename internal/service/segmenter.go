package service

import (
	"strconv"
	"strings"
)

// TableRow is one data row of a segmented table. Index is the 0-based row
// index in the original sheet, kept for error attribution.
type TableRow struct {
	Index int
	Cells []string
}

// SegmentedTable is a contiguous rectangular region of a sheet identified as
// one logical table. Data rows never include the header row. ColOffset is the
// 0-based column of the table's left edge in the original sheet, non-zero for
// side-by-side tables split on a blank column run.
type SegmentedTable struct {
	SheetName string
	Header    []string
	// HeaderRow is the 0-based sheet row of the header, -1 when HasHeader is
	// false. Without a header the transformer falls back to positional guesses.
	HeaderRow int
	HasHeader bool
	ColOffset int
	Rows      []TableRow
}

// blankRunBoundary is the minimum run of fully-blank rows (or columns) that
// separates two tables. A single blank row is treated as formatting inside one
// table.
const blankRunBoundary = 2

// SegmentSheet detects the logical tables inside one sheet: row bands split on
// runs of >=2 blank rows, then side-by-side tables split on runs of >=2 blank
// columns within a band. A sheet with no boundaries comes back as one table
// spanning the whole sheet.
func SegmentSheet(sheet Sheet) []SegmentedTable {
	var tables []SegmentedTable
	for _, band := range splitRowBands(sheet.Rows) {
		for _, span := range splitColumnSpans(sheet.Rows, band) {
			if t, ok := buildTable(sheet, band, span); ok {
				tables = append(tables, t)
			}
		}
	}
	return tables
}

type rowBand struct{ start, end int } // inclusive row range
type colSpan struct{ start, end int } // inclusive column range

func splitRowBands(rows [][]string) []rowBand {
	var bands []rowBand
	start := -1
	blanks := 0
	for i := 0; i <= len(rows); i++ {
		blank := i == len(rows) || isBlankRow(rows[i])
		if blank {
			blanks++
		} else {
			if start == -1 {
				start = i
			}
			blanks = 0
		}
		atBoundary := i == len(rows) || (blanks >= blankRunBoundary)
		if atBoundary && start != -1 {
			end := i - blanks
			if end >= start {
				bands = append(bands, rowBand{start: start, end: end})
			}
			start = -1
		}
	}
	return bands
}

func splitColumnSpans(rows [][]string, band rowBand) []colSpan {
	width := 0
	for r := band.start; r <= band.end && r < len(rows); r++ {
		if len(rows[r]) > width {
			width = len(rows[r])
		}
	}
	if width == 0 {
		return nil
	}

	var spans []colSpan
	start := -1
	blanks := 0
	for c := 0; c <= width; c++ {
		blank := c == width || isBlankColumn(rows, band, c)
		if blank {
			blanks++
		} else {
			if start == -1 {
				start = c
			}
			blanks = 0
		}
		atBoundary := c == width || (blanks >= blankRunBoundary)
		if atBoundary && start != -1 {
			end := c - blanks
			if end >= start {
				spans = append(spans, colSpan{start: start, end: end})
			}
			start = -1
		}
	}
	return spans
}

func buildTable(sheet Sheet, band rowBand, span colSpan) (SegmentedTable, bool) {
	t := SegmentedTable{
		SheetName: sheet.Name,
		HeaderRow: -1,
		ColOffset: span.start,
	}

	for r := band.start; r <= band.end && r < len(sheet.Rows); r++ {
		cells := sliceCells(sheet.Rows[r], span)
		if isBlankRow(cells) {
			continue
		}
		if t.HeaderRow == -1 && len(t.Rows) == 0 && !t.HasHeader {
			if looksLikeHeader(cells) {
				t.Header = cells
				t.HeaderRow = r
				t.HasHeader = true
				continue
			}
		}
		t.Rows = append(t.Rows, TableRow{Index: r, Cells: cells})
	}

	if !t.HasHeader && len(t.Rows) == 0 {
		return t, false
	}
	return t, true
}

func sliceCells(row []string, span colSpan) []string {
	cells := make([]string, span.end-span.start+1)
	for c := span.start; c <= span.end; c++ {
		if c < len(row) {
			cells[c-span.start] = row[c]
		}
	}
	return cells
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isBlankColumn(rows [][]string, band rowBand, col int) bool {
	for r := band.start; r <= band.end && r < len(rows); r++ {
		if col < len(rows[r]) && strings.TrimSpace(rows[r][col]) != "" {
			return false
		}
	}
	return true
}

// looksLikeHeader tests the first non-blank row of a region: a header is a row
// whose non-empty cells are mostly short textual tokens rather than numbers or
// dates. Empirical; tables failing the test are still emitted with
// HasHeader=false.
func looksLikeHeader(cells []string) bool {
	nonEmpty := 0
	textual := 0
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if v == "" {
			continue
		}
		nonEmpty++
		if !isNumericToken(v) && len(v) <= 40 {
			textual++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return textual*2 > nonEmpty
}

func isNumericToken(v string) bool {
	cleaned := strings.NewReplacer("R$", "", "$", "", ".", "", ",", ".", " ", "", "%", "").Replace(v)
	if cleaned == "" {
		return false
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}
