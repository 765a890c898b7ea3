// Package output renders tables as JSON or CSV and describes the JSON shape
// as a JSON Schema.
package output

import (
	"encoding/json"
	"io"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// ToJSON serializes a table to JSON.
func ToJSON(table *models.Table, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(table, "", "  ")
	}
	return json.Marshal(table)
}

// WriteJSON writes a table as JSON followed by a newline.
func WriteJSON(w io.Writer, table *models.Table, pretty bool) error {
	data, err := ToJSON(table, pretty)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
