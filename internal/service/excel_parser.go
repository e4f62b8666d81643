package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fluxodocs/internal/models"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var ErrEmptyFile = errors.New("file is empty")

// Sheet is a named rectangular cell grid. Row and column indices match the
// source document so later stages can attribute errors to exact cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is the in-memory form of one tabular upload. A CSV becomes a
// single-sheet workbook.
type Workbook struct {
	Sheets []Sheet
}

// ParseWorkbook decodes a spreadsheet or CSV buffer into a Workbook. Pure
// in-memory transform, no I/O. Decoding failures are file-fatal and fail fast.
func ParseWorkbook(data []byte, fileName string, kind models.FileKind) (*Workbook, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	switch kind {
	case models.FileKindCSV:
		return parseCSV(data, fileName)
	case models.FileKindSpreadsheet:
		if bytes.HasPrefix(data, magicOLE2) {
			return parseXLS(data)
		}
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("file kind %q is not tabular", kind)
	}
}

func parseXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}

	if len(wb.Sheets) == 0 {
		return nil, errors.New("spreadsheet contains no sheets")
	}
	return wb, nil
}

func parseXLS(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy xls: %w", err)
	}

	wb := &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol()+1)
			for c := row.FirstCol(); c <= row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: ws.Name, Rows: rows})
	}

	if len(wb.Sheets) == 0 {
		return nil, errors.New("legacy xls contains no sheets")
	}
	return wb, nil
}

func parseCSV(data []byte, fileName string) (*Workbook, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if name == "" {
		name = "Sheet1"
	}
	return &Workbook{Sheets: []Sheet{{Name: name, Rows: rows}}}, nil
}

// sniffDelimiter picks between comma and semicolon based on the first line.
// Brazilian spreadsheet exports commonly use semicolons because the comma is
// the decimal separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
