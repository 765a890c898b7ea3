package parser

import (
	"sort"
	"strings"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// Assemble turns the rows published by ParseSheet into the final row list.
// Rows are ordered by index and the first row is the header. Every data row
// gets an empty cell for each header column it lacks, and rows whose cells
// are all empty are dropped. Running Assemble on its own output changes
// nothing.
func Assemble(raw map[int][]models.Cell) []models.Row {
	if len(raw) == 0 {
		return []models.Row{}
	}

	indices := make([]int, 0, len(raw))
	for idx := range raw {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	header := raw[indices[0]]
	rows := make([]models.Row, 0, len(indices))
	rows = append(rows, models.Row{Index: indices[0], Cells: header})

	for _, idx := range indices[1:] {
		cells := make([]models.Cell, len(raw[idx]), len(raw[idx])+len(header))
		copy(cells, raw[idx])
		for _, h := range header {
			if !hasColumn(cells, h.Value) {
				cells = append(cells, models.Cell{Name: h.Value})
			}
		}

		row := models.Row{Index: idx, Cells: cells}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func hasColumn(cells []models.Cell, name string) bool {
	for _, c := range cells {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
