// Package parser streams spreadsheet parts into rows of display strings.
package parser

import "errors"

var (
	// ErrMalformedReference indicates a row or cell reference that does not parse.
	ErrMalformedReference = errors.New("malformed cell reference")
	// ErrSharedStringIndex indicates a shared-string index that is not a number or is out of range.
	ErrSharedStringIndex = errors.New("incorrect shared string index")
	// ErrInvalidNumber indicates a numeric cell whose payload is not a number.
	ErrInvalidNumber = errors.New("invalid numeric cell value")
	// ErrSheetNotFound indicates the requested sheet does not exist in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrMissingRow indicates a row the legacy reader expected to exist is missing.
	ErrMissingRow = errors.New("missing row")
	// ErrWorkbookStreamNotExist indicates a compound file without a Workbook or Book stream.
	ErrWorkbookStreamNotExist = errors.New("compound file has no workbook stream")
	// ErrWorkbookNotExist indicates the archive has no workbook part.
	ErrWorkbookNotExist = errors.New("xl/workbook.xml doesn't exist")
)
