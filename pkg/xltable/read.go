package xltable

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
	"github.com/ukaji3/xltable-go/pkg/xltable/parser"
)

var zipMagic = []byte("PK\x03\x04")

// Read reads the configured sheet of the workbook at path. The file is read
// in place and closed before Read returns.
//
// On failure after parsing began, the rows read so far are returned together
// with a non-nil error.
func Read(path string, opts Options) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openFailed(path, opts, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, openFailed(path, opts, err)
	}
	return read(f, info.Size(), path, opts)
}

func openFailed(path string, opts Options, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	err = NewReadError(path, opts.Format, opts.Sheet, StageOpen, err)
	opts.logger().Error("failed to read table", "file", path, "error", err)
	return err
}

// ReadBytes reads the configured sheet of an in-memory workbook. name is used
// for format detection and diagnostics.
func ReadBytes(data []byte, name string, opts Options) (*models.Table, error) {
	return read(bytes.NewReader(data), int64(len(data)), name, opts)
}

func read(r io.ReaderAt, size int64, path string, opts Options) (*models.Table, error) {
	log := opts.logger().With("file", path, "sheet", opts.Sheet)

	if err := opts.Validate(); err != nil {
		log.Error("failed to read table", "error", err)
		return nil, err
	}

	format := opts.Format
	if format == FormatAuto {
		detected, err := detectFormat(path, r, size)
		if err != nil {
			err = NewReadError(path, format, opts.Sheet, StageOpen, err)
			log.Error("failed to read table", "error", err)
			return nil, err
		}
		format = detected
	}

	log.Info("reading table", "format", format, "columns", opts.Columns)

	var (
		table *models.Table
		err   error
	)
	switch format {
	case FormatXLSX:
		table, err = readXLSX(r, size, path, opts)
	case FormatXLS:
		table, err = readXLS(r, size, path, opts)
	}
	if err != nil {
		log.Error("failed to read table", "error", err, "rows", table.Len())
		return table, err
	}

	log.Info("read table", "format", format, "rows", table.Len())
	return table, nil
}

func readXLSX(r io.ReaderAt, size int64, path string, opts Options) (*models.Table, error) {
	wb, err := parser.OpenWorkbook(r, size)
	if err != nil {
		return nil, NewReadError(path, FormatXLSX, opts.Sheet, StageOpen, fmt.Errorf("%w: %w", ErrInvalidFormat, err))
	}

	rows, dim, err := wb.ReadSheet(opts.Sheet, opts.Columns, opts.logger())
	if err != nil && rows == nil {
		stage := StageParse
		if errors.Is(err, parser.ErrSheetNotFound) {
			stage = StageSheet
		}
		return nil, NewReadError(path, FormatXLSX, opts.Sheet, stage, err)
	}

	table := &models.Table{
		Sheet:     opts.Sheet,
		Format:    string(FormatXLSX),
		Dimension: dim,
		Rows:      rows,
	}
	if err != nil {
		return table, NewReadError(path, FormatXLSX, opts.Sheet, StageParse, err)
	}
	return table, nil
}

func readXLS(r io.ReaderAt, size int64, path string, opts Options) (*models.Table, error) {
	sheet, err := parser.OpenLegacySheet(r, size, opts.Sheet)
	if err != nil {
		if errors.Is(err, parser.ErrSheetNotFound) {
			return nil, NewReadError(path, FormatXLS, opts.Sheet, StageSheet, err)
		}
		return nil, NewReadError(path, FormatXLS, opts.Sheet, StageOpen, fmt.Errorf("%w: %w", ErrInvalidFormat, err))
	}

	rows, err := parser.ReadLegacySheet(sheet, opts.Columns)
	table := &models.Table{
		Sheet:     opts.Sheet,
		Format:    string(FormatXLS),
		Dimension: parser.DataBounds(rows),
		Rows:      rows,
	}
	if table.Rows == nil {
		table.Rows = []models.Row{}
	}
	if err != nil {
		return table, NewReadError(path, FormatXLS, opts.Sheet, StageParse, err)
	}
	return table, nil
}

// DetectFormat selects the workbook format from the file extension, falling
// back to the content: a zip archive is xlsx, a compound file holding a
// workbook stream is xls.
func DetectFormat(name string, data []byte) (Format, error) {
	return detectFormat(name, bytes.NewReader(data), int64(len(data)))
}

func detectFormat(name string, r io.ReaderAt, size int64) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}

	magic := make([]byte, len(zipMagic))
	if n, _ := r.ReadAt(magic, 0); n == len(magic) && bytes.Equal(magic, zipMagic) {
		return FormatXLSX, nil
	}
	if isCompoundWorkbook(r, size) {
		return FormatXLS, nil
	}
	return FormatAuto, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func isCompoundWorkbook(r io.ReaderAt, size int64) bool {
	doc, err := mscfb.New(io.NewSectionReader(r, 0, size))
	if err != nil {
		return false
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || entry.Name == "Book" {
			return true
		}
	}
	return false
}

// ReadFrom reads an entire workbook from r and then behaves like ReadBytes.
func ReadFrom(r io.Reader, name string, opts Options) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewReadError(name, opts.Format, opts.Sheet, StageOpen, err)
	}
	return ReadBytes(data, name, opts)
}
