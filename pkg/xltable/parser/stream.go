package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

var (
	// errNoColumns is returned when a sheet is parsed with a non-positive column limit.
	errNoColumns = errors.New("column limit must be positive")
	// errTooManyColumns is returned when the column limit exceeds the sheet width.
	errTooManyColumns = fmt.Errorf("column limit must not exceed %d", excelize.MaxColumns)
)

// rowCapacity bounds the cell slice preallocated per row.
const rowCapacity = 16

func checkColumns(columns int) error {
	switch {
	case columns <= 0:
		return errNoColumns
	case columns > excelize.MaxColumns:
		return errTooManyColumns
	}
	return nil
}

// SheetOptions configures the parse of one worksheet part.
type SheetOptions struct {
	// Columns is the number of leftmost columns to read.
	Columns int
	// SharedStrings resolves shared-string cells. May be nil.
	SharedStrings SharedStrings
	// Formats resolves cell styles to number formats. May be nil.
	Formats NumberFormats
	// Date1904 selects the 1904 date system for serial dates.
	Date1904 bool
	// Logger receives non-fatal decode failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// SheetData is what the stream parser publishes for one sheet.
type SheetData struct {
	// Rows maps the zero-based row index to the row's cells.
	Rows map[int][]models.Cell
	// Dimension is the used range declared by the sheet, if any.
	Dimension *models.Range
}

// ParseSheet streams a worksheet part and returns its rows. The rows published
// before a failure are returned together with the error.
func ParseSheet(r io.Reader, opts SheetOptions) (*SheetData, error) {
	h := newSheetHandler(opts)
	if err := checkColumns(opts.Columns); err != nil {
		return h.data, err
	}

	decoder := xml.NewDecoder(r)
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			return h.data, nil
		}
		if err != nil {
			return h.data, fmt.Errorf("read sheet: %w", err)
		}
		if err := h.handle(t); err != nil {
			return h.data, err
		}
	}
}

type parseState int

const (
	stateIdle parseState = iota
	stateInRow
	stateInCell
	stateInValue
)

// sheetHandler is the state machine behind ParseSheet. It is fed one XML
// token at a time and holds the scratch state of the current row and cell.
type sheetHandler struct {
	opts    SheetOptions
	log     *slog.Logger
	numbers *numberRenderer
	data    *SheetData

	state    parseState
	rowNum   int
	isHeader bool
	cells    []models.Cell
	header   []string

	// data rows seen before the header row, with the column of each cell
	headerSeen bool
	columns    []int
	unnamed    map[int][]int

	column     int
	skip       bool
	cell       cellState
	valueTag   string
	inText     bool
	phonetic   int
	value      strings.Builder
	decoded    bool
	current    models.Cell
	lastColumn int
}

func newSheetHandler(opts SheetOptions) *sheetHandler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &sheetHandler{
		opts:    opts,
		log:     log,
		numbers: newNumberRenderer(opts.Date1904),
		data:    &SheetData{Rows: make(map[int][]models.Cell)},
		unnamed: make(map[int][]int),
	}
}

func (h *sheetHandler) handle(t xml.Token) error {
	switch token := t.(type) {
	case xml.StartElement:
		return h.startElement(token)
	case xml.EndElement:
		h.endElement(token)
	case xml.CharData:
		h.characters(token)
	}
	return nil
}

func (h *sheetHandler) startElement(se xml.StartElement) error {
	switch se.Name.Local {
	case "dimension":
		if h.state == stateIdle {
			if ref, ok := attr(se, "ref"); ok {
				h.data.Dimension = parseRange(ref)
			}
		}
	case "row":
		return h.startRow(se)
	case "c":
		if h.state != stateInRow {
			return nil
		}
		return h.startCell(se)
	case "v", "is":
		if h.state == stateInCell && !h.skip {
			h.state = stateInValue
			h.valueTag = se.Name.Local
		}
	case "t":
		if h.state == stateInValue && h.valueTag == "is" {
			h.inText = true
		}
	case "rPh":
		if h.state == stateInValue {
			h.phonetic++
		}
	}
	return nil
}

func (h *sheetHandler) startRow(se xml.StartElement) error {
	if ref, ok := attr(se, "r"); ok {
		n, err := rowNumber(ref)
		if err != nil {
			return err
		}
		h.rowNum = n
	} else {
		h.rowNum++
	}
	h.isHeader = h.rowNum == 1
	h.cells = make([]models.Cell, 0, min(h.opts.Columns, rowCapacity))
	h.columns = nil
	h.lastColumn = -1
	h.state = stateInRow
	return nil
}

func (h *sheetHandler) startCell(se xml.StartElement) error {
	h.state = stateInCell
	if ref, ok := attr(se, "r"); ok {
		col, err := cellColumn(ref)
		if err != nil {
			return err
		}
		h.column = col
	} else {
		h.column = h.lastColumn + 1
	}
	h.lastColumn = h.column

	h.skip = h.column >= h.opts.Columns
	if h.skip {
		return nil
	}

	h.value.Reset()
	h.decoded = false
	h.inText = false
	h.phonetic = 0
	h.current = models.Cell{}

	typeAttr, hasType := attr(se, "t")
	styleAttr, hasStyle := attr(se, "s")
	h.cell = newCellState(typeAttr, hasType, hasStyle)
	if hasStyle {
		styleIndex, err := strconv.Atoi(styleAttr)
		if err != nil {
			return fmt.Errorf("row %d column %d: style index %q: %w", h.rowNum, h.column, styleAttr, err)
		}
		h.cell.applyStyle(styleIndex, h.opts.Formats)
	}
	return nil
}

func (h *sheetHandler) characters(data xml.CharData) {
	if h.state != stateInValue || h.phonetic > 0 {
		return
	}
	if h.valueTag == "is" && !h.inText {
		return
	}
	h.value.Write(data)
}

func (h *sheetHandler) endElement(ee xml.EndElement) {
	switch ee.Name.Local {
	case "t":
		h.inText = false
	case "rPh":
		if h.phonetic > 0 {
			h.phonetic--
		}
	case "v", "is":
		if h.state == stateInValue && ee.Name.Local == h.valueTag {
			h.endValue()
			h.state = stateInCell
		}
	case "c":
		if h.state == stateInCell || h.state == stateInValue {
			if !h.skip {
				h.endCell()
			}
			h.state = stateInRow
		}
	case "row":
		if h.state != stateIdle {
			h.data.Rows[h.rowNum-1] = h.cells
			h.endRow()
			h.cells = nil
			h.state = stateIdle
		}
	}
}

func (h *sheetHandler) endValue() {
	raw := h.value.String()
	text, err := decodeCell(h.cell, raw, h.opts.SharedStrings, h.numbers)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrSharedStringIndex) {
			level = slog.LevelError
		}
		h.log.Log(context.Background(), level, "failed to decode cell value",
			"row", h.rowNum, "column", h.column, "type", h.cell.kind.String(), "error", err)
	}

	h.decoded = true
	h.current.Value = text
	if h.isHeader {
		h.current.Name = models.HeaderColumnName
		h.recordHeader(text)
	} else {
		h.current.Name = h.headerName(h.column)
	}
}

func (h *sheetHandler) endCell() {
	if !h.decoded {
		h.current.Value = ""
		if h.isHeader {
			h.current.Name = models.HeaderColumnName
			h.recordHeader("")
		} else {
			h.current.Name = h.headerName(h.column)
		}
	}
	h.cells = append(h.cells, h.current)
	if !h.headerSeen && !h.isHeader {
		h.columns = append(h.columns, h.column)
	}
}

// endRow names the cells of rows that arrived before the header row once the
// header is known.
func (h *sheetHandler) endRow() {
	if h.headerSeen {
		return
	}
	if !h.isHeader {
		h.unnamed[h.rowNum-1] = h.columns
		return
	}
	h.headerSeen = true
	for index, columns := range h.unnamed {
		cells := h.data.Rows[index]
		for i, column := range columns {
			cells[i].Name = h.headerName(column)
		}
	}
	h.unnamed = nil
}

func (h *sheetHandler) recordHeader(name string) {
	for len(h.header) <= h.column {
		h.header = append(h.header, "")
	}
	h.header[h.column] = name
}

func (h *sheetHandler) headerName(column int) string {
	if column < len(h.header) {
		return h.header[column]
	}
	return ""
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
