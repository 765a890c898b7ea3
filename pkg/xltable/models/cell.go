// Package models defines the data structures produced by table extraction.
package models

// HeaderColumnName is the column name carried by every cell of the header row.
const HeaderColumnName = "HEADER"

// Cell is a single named value within a row.
type Cell struct {
	// Name is the header text of the cell's column, or HeaderColumnName for header cells.
	Name string `json:"name"`
	// Value is the display text of the cell. Blank cells hold "".
	Value string `json:"value"`
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Value == ""
}

// Row is an ordered list of cells belonging to one sheet row.
type Row struct {
	// Index is the zero-based sheet row index. Row 0 is the header row.
	Index int `json:"index"`
	// Cells holds the row's cells in column order.
	Cells []Cell `json:"cells"`
}

// IsEmpty reports whether every cell of the row is empty.
func (r Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Value returns the value of the first cell named name.
func (r Row) Value(name string) (string, bool) {
	for _, c := range r.Cells {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
