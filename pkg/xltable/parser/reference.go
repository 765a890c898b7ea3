package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
	"github.com/xuri/excelize/v2"
)

// columnNameToIndex converts column letters to a zero-based column index:
// "A" is 0, "Z" is 25, "AA" is 26.
func columnNameToIndex(name string) int {
	column := -1
	for i := 0; i < len(name); i++ {
		column = (column+1)*26 + int(name[i]-'A')
	}
	return column
}

// cellColumn returns the zero-based column of a cell reference such as "C7".
func cellColumn(ref string) (int, error) {
	letters, _, err := excelize.SplitCellName(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: cell %q: %v", ErrMalformedReference, ref, err)
	}
	letters = strings.ToUpper(letters)
	for i := 0; i < len(letters); i++ {
		if letters[i] < 'A' || letters[i] > 'Z' {
			return 0, fmt.Errorf("%w: cell %q", ErrMalformedReference, ref)
		}
	}
	return columnNameToIndex(letters), nil
}

// rowNumber parses a 1-based row reference.
func rowNumber(ref string) (int, error) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: row %q", ErrMalformedReference, ref)
	}
	return n, nil
}

// parseRange parses a range string like A1:D10 (or a single cell) to a Range.
func parseRange(ref string) *models.Range {
	ref = strings.ReplaceAll(ref, "$", "")

	parts := strings.Split(ref, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return nil
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return nil
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return nil
	}

	return &models.Range{
		R1: startRow,
		C1: startCol,
		R2: endRow,
		C2: endCol,
	}
}
