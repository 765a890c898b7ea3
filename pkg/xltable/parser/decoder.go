package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// cellType is the value category of a cell, taken from its t and s attributes.
type cellType int

const (
	cellNumber cellType = iota
	cellNoStyle
	cellBool
	cellError
	cellSharedString
	cellInlineString
	cellFormula
	cellDate
)

func (t cellType) String() string {
	switch t {
	case cellNumber:
		return "number"
	case cellNoStyle:
		return "unstyled"
	case cellBool:
		return "bool"
	case cellError:
		return "error"
	case cellSharedString:
		return "shared-string"
	case cellInlineString:
		return "inline-string"
	case cellFormula:
		return "formula"
	case cellDate:
		return "date"
	}
	return "unknown"
}

const (
	// builtinDatePattern is displayed as isoDatePattern instead.
	builtinDatePattern = "m/d/yy"
	isoDatePattern     = "yyyy-MM-dd"
	isoDateLayout      = "2006-01-02"
)

var isoDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", isoDateLayout}

// cellState is the decoder state of the cell being read. It is reset for
// every cell.
type cellState struct {
	kind        cellType
	formatIndex int
	pattern     string
	hasPattern  bool
}

func newCellState(typeAttr string, hasType, hasStyle bool) cellState {
	st := cellState{kind: cellNumber, formatIndex: -1}
	if !hasType && !hasStyle {
		st.kind = cellNoStyle
	}
	switch typeAttr {
	case "b":
		st.kind = cellBool
	case "e":
		st.kind = cellError
	case "inlineStr":
		st.kind = cellInlineString
	case "s":
		st.kind = cellSharedString
	case "str":
		st.kind = cellFormula
	case "d":
		st.kind = cellDate
	}
	return st
}

// applyStyle attaches the number format of the cell's style. Only numeric
// cells are formatted.
func (st *cellState) applyStyle(styleIndex int, formats NumberFormats) {
	if st.kind != cellNumber || formats == nil {
		return
	}
	formatIndex, pattern, ok := formats.Resolve(styleIndex)
	st.formatIndex = formatIndex
	if !ok {
		if pattern, ok = BuiltinFormat(formatIndex); !ok {
			return
		}
	}
	st.pattern = pattern
	st.hasPattern = true
}

// decodeCell turns the raw payload of a cell into its display text. A
// shared-string failure yields "" and an ErrSharedStringIndex error; a
// non-numeric number yields the raw text and an ErrInvalidNumber error.
// Neither is fatal to the caller.
func decodeCell(st cellState, raw string, sst SharedStrings, numbers *numberRenderer) (string, error) {
	if raw == "" {
		return "", nil
	}

	switch st.kind {
	case cellBool:
		if raw == "0" {
			return "FALSE", nil
		}
		return "TRUE", nil
	case cellError, cellFormula, cellInlineString, cellNoStyle:
		return raw, nil
	case cellSharedString:
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrSharedStringIndex, raw)
		}
		if sst == nil {
			return "", fmt.Errorf("%w: %d, workbook has no shared strings", ErrSharedStringIndex, idx)
		}
		value, err := sst.Get(idx)
		if err != nil {
			return "", err
		}
		return value, nil
	case cellDate:
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(isoDateLayout), nil
			}
		}
		return raw, nil
	}

	if !st.hasPattern {
		// numbers without a display format are blanked
		return "", nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return raw, fmt.Errorf("%w: %q (format %d)", ErrInvalidNumber, raw, st.formatIndex)
	}
	pattern := st.pattern
	if pattern == builtinDatePattern {
		pattern = isoDatePattern
	}
	if numbers == nil {
		numbers = newNumberRenderer(false)
	}
	return numbers.format(value, pattern), nil
}
