package parser

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// LegacyCellKind is the value category of a legacy (BIFF) cell.
type LegacyCellKind int

const (
	LegacyBlank LegacyCellKind = iota
	LegacyText
	LegacyNumber
	LegacyDate
)

// LegacyCell is one cell of a legacy sheet. Formula cells report the kind of
// their cached result.
type LegacyCell struct {
	Kind   LegacyCellKind
	Text   string
	Number float64
	Date   time.Time
}

// LegacyRow is one physical row of a legacy sheet.
type LegacyRow interface {
	// LastCol returns the index of the last column that may hold a value.
	LastCol() int
	// Cell returns the cell at col. Columns past the end are blank.
	Cell(col int) LegacyCell
}

// LegacySheet is a fully materialized legacy sheet.
type LegacySheet interface {
	// LastRow returns the index of the last physical row, or -1 when the
	// sheet has no rows.
	LastRow() int
	// Row returns the row at index, and false when the sheet has no such row.
	Row(index int) (LegacyRow, bool)
}

// ReadLegacySheet reads the leftmost columns of every row of a legacy sheet.
// Trailing blank rows are dropped, row 0 is the header, numbers are shown
// with three decimals and dates as yyyy-MM-dd.
func ReadLegacySheet(sheet LegacySheet, columns int) (rows []models.Row, err error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read legacy sheet: %v", r)
		}
	}()

	last := sheet.LastRow()
	for last >= 0 {
		row, ok := sheet.Row(last)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingRow, last)
		}
		if !isBlankLegacyRow(row) {
			break
		}
		last--
	}

	headers := make([]string, columns)
	rows = make([]models.Row, 0, last+1)
	for r := 0; r <= last; r++ {
		row, ok := sheet.Row(r)
		cells := make([]models.Cell, columns)
		for col := 0; col < columns; col++ {
			var cell LegacyCell
			if ok {
				cell = row.Cell(col)
			}
			if r == 0 {
				headers[col] = cell.Text
				cells[col] = models.Cell{Name: models.HeaderColumnName, Value: cell.Text}
				continue
			}
			cells[col] = models.Cell{Name: headers[col], Value: legacyValue(cell)}
		}
		rows = append(rows, models.Row{Index: r, Cells: cells})
	}
	return rows, nil
}

func isBlankLegacyRow(row LegacyRow) bool {
	for col := 0; col <= row.LastCol(); col++ {
		if row.Cell(col).Kind != LegacyBlank {
			return false
		}
	}
	return true
}

func legacyValue(cell LegacyCell) string {
	switch cell.Kind {
	case LegacyNumber:
		return strconv.FormatFloat(cell.Number, 'f', 3, 64)
	case LegacyDate:
		return cell.Date.Format(isoDateLayout)
	case LegacyText:
		return cell.Text
	}
	return ""
}

// OpenLegacySheet decodes a legacy workbook and returns its 1-based sheet.
// Number cells are classified through the number format of their XF record,
// and formula cells report their cached result.
func OpenLegacySheet(r io.ReaderAt, size int64, sheet int) (ls LegacySheet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ls, err = nil, fmt.Errorf("decode legacy workbook: %v", rec)
		}
	}()

	wb, err := xls.OpenReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("decode legacy workbook: %w", err)
	}
	if sheet < 1 || sheet > wb.GetNumberSheets() {
		return nil, fmt.Errorf("%w: %d of %d", ErrSheetNotFound, sheet, wb.GetNumberSheets())
	}
	ws, err := wb.GetSheet(sheet - 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %d: %w", ErrSheetNotFound, sheet, err)
	}
	stream, err := scanLegacyStream(r, size, sheet)
	if err != nil {
		return nil, err
	}
	return &xlsSheet{
		wb:     &wb,
		sheet:  ws,
		stream: stream,
		dateXF: make(map[int]bool),
	}, nil
}

// xlsSheet adapts a shakinm/xlsReader worksheet. The library skips formula
// records, so their cached results come from the workbook stream scan.
type xlsSheet struct {
	wb     *xls.Workbook
	sheet  *xls.Sheet
	stream *legacyStream
	dateXF map[int]bool
}

type xlsCells interface {
	GetCol(index int) (structure.CellData, error)
	GetCols() []structure.CellData
}

func (s *xlsSheet) LastRow() int {
	last := s.sheet.GetNumberRows() - 1
	for index := range s.stream.formulas {
		last = max(last, index)
	}
	return last
}

func (s *xlsSheet) Row(index int) (LegacyRow, bool) {
	cells, err := s.sheet.GetRow(index)
	if err != nil {
		return nil, false
	}
	return xlsRow{sheet: s, cells: cells, formulas: s.stream.formulas[index]}, true
}

type xlsRow struct {
	sheet    *xlsSheet
	cells    xlsCells
	formulas map[int]legacyFormula
}

func (r xlsRow) LastCol() int {
	last := len(r.cells.GetCols()) - 1
	for col := range r.formulas {
		last = max(last, col)
	}
	return last
}

func (r xlsRow) Cell(col int) LegacyCell {
	if f, ok := r.formulas[col]; ok {
		if f.cell.Kind == LegacyNumber {
			return r.sheet.numberCell(f.cell.Number, f.xf)
		}
		return f.cell
	}

	data, err := r.cells.GetCol(col)
	if err != nil || data == nil {
		return LegacyCell{Kind: LegacyBlank}
	}
	switch data.(type) {
	case *record.Number, *record.Rk:
		return r.sheet.numberCell(data.GetFloat64(), data.GetXFIndex())
	case *record.Blank, *record.FakeBlank:
		return LegacyCell{Kind: LegacyBlank}
	}
	text := data.GetString()
	if text == "" {
		return LegacyCell{Kind: LegacyBlank}
	}
	return LegacyCell{Kind: LegacyText, Text: text}
}

func (s *xlsSheet) numberCell(value float64, xf int) LegacyCell {
	if s.isDateXF(xf) {
		if t, err := excelize.ExcelDateToTime(value, s.stream.date1904); err == nil && value >= 0 {
			return LegacyCell{Kind: LegacyDate, Number: value, Date: t}
		}
	}
	return LegacyCell{Kind: LegacyNumber, Number: value}
}

func (s *xlsSheet) isDateXF(xf int) bool {
	date, ok := s.dateXF[xf]
	if !ok {
		date = s.classifyXF(xf)
		s.dateXF[xf] = date
	}
	return date
}

// classifyXF reports whether the number format of an XF record renders a
// date. Format ids 27 to 36 and 50 to 58 are the locale date formats of East
// Asian builds and are never stored as FORMAT records.
func (s *xlsSheet) classifyXF(xf int) (date bool) {
	defer func() {
		if recover() != nil {
			date = false
		}
	}()

	rec := s.wb.GetXFbyIndex(xf)
	formatIndex := rec.GetFormatIndex()
	if (formatIndex >= 27 && formatIndex <= 36) || (formatIndex >= 50 && formatIndex <= 58) {
		return true
	}
	format := s.wb.GetFormatByIndex(formatIndex)
	pattern := format.String()
	if pattern == "" {
		pattern, _ = BuiltinFormat(formatIndex)
	}
	return pattern != "" && isDateFormat(pattern)
}
