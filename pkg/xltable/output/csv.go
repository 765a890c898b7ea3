package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// WriteCSV writes a table as CSV: the header texts first, then one record
// per data row with values placed under their header column. enc names the
// output character encoding ("" is UTF-8); characters the encoding cannot
// represent are replaced.
func WriteCSV(w io.Writer, table *models.Table, enc string) (err error) {
	out, err := encodedWriter(w, enc)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(out)
	if table.Len() > 0 {
		names := table.HeaderNames()
		if err := cw.Write(names); err != nil {
			return err
		}

		record := make([]string, len(names))
		for _, row := range table.Rows[1:] {
			for i, name := range names {
				record[i] = lookup(row, name)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func lookup(row models.Row, name string) string {
	for _, c := range row.Cells {
		if strings.EqualFold(c.Name, name) {
			return c.Value
		}
	}
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// encodedWriter wraps w in an encoder for the named encoding. The caller must
// close the result to flush the encoder.
func encodedWriter(w io.Writer, name string) (io.WriteCloser, error) {
	if name == "" {
		return nopWriteCloser{w}, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported output encoding %q: %w", name, err)
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder())), nil
}
