package xltable

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input is not a valid workbook of its format.
var ErrInvalidFormat = errors.New("invalid workbook format")

// ErrUnsupportedFormat indicates the input is neither an xlsx nor an xls workbook.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrInvalidOptions indicates the read options are out of range.
var ErrInvalidOptions = errors.New("invalid options")

// Read stages reported by ReadError.
const (
	StageOpen  = "open"
	StageSheet = "sheet"
	StageParse = "parse"
)

// ReadError represents a failure while reading a table from a workbook.
type ReadError struct {
	Path   string
	Format Format
	Sheet  int
	Stage  string // "open", "sheet", "parse"
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %q (%s, sheet %d) failed at %s: %v", e.Path, e.Format, e.Sheet, e.Stage, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// NewReadError creates a new ReadError.
func NewReadError(path string, format Format, sheet int, stage string, err error) *ReadError {
	return &ReadError{
		Path:   path,
		Format: format,
		Sheet:  sheet,
		Stage:  stage,
		Err:    err,
	}
}
