package models

import "sort"

// Table is the result of extracting one sheet.
type Table struct {
	// Sheet is the 1-based sheet number the table was read from.
	Sheet int `json:"sheet"`
	// Format is the source format ("xlsx" or "xls").
	Format string `json:"format"`
	// Dimension is the used range declared by the sheet, when present.
	Dimension *Range `json:"dimension,omitempty"`
	// Rows holds the rows in ascending index order; row 0 is the header.
	Rows []Row `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Get returns the row stored under the zero-based sheet row index.
func (t *Table) Get(index int) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].Index >= index })
	if i < len(t.Rows) && t.Rows[i].Index == index {
		return t.Rows[i], true
	}
	return Row{}, false
}

// Header returns the header row.
func (t *Table) Header() (Row, bool) {
	if t == nil || len(t.Rows) == 0 {
		return Row{}, false
	}
	return t.Rows[0], true
}

// Indices returns the row indices in ascending order.
func (t *Table) Indices() []int {
	if t == nil {
		return nil
	}
	result := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		result[i] = r.Index
	}
	return result
}

// HeaderNames returns the header texts in column order.
func (t *Table) HeaderNames() []string {
	header, ok := t.Header()
	if !ok {
		return nil
	}
	names := make([]string, len(header.Cells))
	for i, c := range header.Cells {
		names[i] = c.Value
	}
	return names
}
