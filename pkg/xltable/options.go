// Package xltable reads one sheet of an Excel workbook as a header-keyed table
// of display strings.
package xltable

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the container format of a workbook.
type Format string

const (
	// FormatAuto selects the format from the file name, then from the content.
	FormatAuto Format = ""
	// FormatXLSX is the zip-packaged XML format (.xlsx, .xlsm).
	FormatXLSX Format = "xlsx"
	// FormatXLS is the legacy binary format (.xls).
	FormatXLS Format = "xls"
)

// ParseFormat parses a format name. "auto" and "" select FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "xls":
		return FormatXLS, nil
	}
	return FormatAuto, fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, s)
}

// Options configures reading behavior.
type Options struct {
	// Columns is the number of leftmost columns to read. Must be between 1
	// and excelize.MaxColumns.
	Columns int
	// Sheet is the 1-based sheet number in workbook order.
	Sheet int
	// Format overrides format detection.
	Format Format
	// Logger receives progress and decode diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns default read options. Columns must still be set.
func DefaultOptions() Options {
	return Options{
		Sheet: 1,
	}
}

// Validate reports whether the options can be used for a read.
func (o Options) Validate() error {
	if o.Columns < 1 {
		return fmt.Errorf("%w: columns must be at least 1, got %d", ErrInvalidOptions, o.Columns)
	}
	if o.Columns > excelize.MaxColumns {
		return fmt.Errorf("%w: columns must be at most %d, got %d", ErrInvalidOptions, excelize.MaxColumns, o.Columns)
	}
	if o.Sheet < 1 {
		return fmt.Errorf("%w: sheet must be at least 1, got %d", ErrInvalidOptions, o.Sheet)
	}
	switch o.Format {
	case FormatAuto, FormatXLSX, FormatXLS:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, o.Format)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
