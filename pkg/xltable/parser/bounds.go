package parser

import "github.com/ukaji3/xltable-go/pkg/xltable/models"

// DataBounds returns the 1-based bounding box of the non-empty cells of
// positional rows, where cell i of a row sits in column i. It returns nil
// when every cell is empty.
func DataBounds(rows []models.Row) *models.Range {
	minRow, maxRow := -1, -1
	minCol, maxCol := -1, -1

	for _, row := range rows {
		for colIdx, cell := range row.Cells {
			if cell.IsEmpty() {
				continue
			}
			if minRow < 0 || row.Index < minRow {
				minRow = row.Index
			}
			if maxRow < 0 || row.Index > maxRow {
				maxRow = row.Index
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	if minRow < 0 {
		return nil
	}
	return &models.Range{R1: minRow + 1, C1: minCol + 1, R2: maxRow + 1, C2: maxCol + 1}
}
