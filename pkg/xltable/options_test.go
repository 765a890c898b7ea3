package xltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1, opts.Sheet)
	assert.NotNil(t, opts.logger())
	assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)

	opts.Columns = 4
	assert.NoError(t, opts.Validate())
}

func TestOptionsValidateColumnRange(t *testing.T) {
	tests := []struct {
		columns int
		wantErr bool
	}{
		{0, true},
		{-3, true},
		{1, false},
		{16384, false},
		{16385, true},
		{4000000000000, true},
	}

	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Columns = tt.columns
		err := opts.Validate()
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidOptions, "columns=%d", tt.columns)
			continue
		}
		assert.NoError(t, err, "columns=%d", tt.columns)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"XLSX", FormatXLSX, false},
		{"xlsm", FormatXLSX, false},
		{"xls", FormatXLS, false},
		{"ods", FormatAuto, true},
	}

	for _, tt := range tests {
		result, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestReadErrorUnwrap(t *testing.T) {
	err := NewReadError("a.xlsx", FormatXLSX, 2, StageParse, ErrInvalidFormat)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), `"a.xlsx"`)
	assert.Contains(t, err.Error(), "sheet 2")
}
