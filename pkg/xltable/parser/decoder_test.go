package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCellState(t *testing.T) {
	tests := []struct {
		typeAttr string
		hasType  bool
		hasStyle bool
		expected cellType
	}{
		{"", false, false, cellNoStyle},
		{"", false, true, cellNumber},
		{"n", true, false, cellNumber},
		{"b", true, false, cellBool},
		{"e", true, true, cellError},
		{"inlineStr", true, false, cellInlineString},
		{"s", true, true, cellSharedString},
		{"str", true, false, cellFormula},
		{"d", true, false, cellDate},
	}

	for _, tt := range tests {
		st := newCellState(tt.typeAttr, tt.hasType, tt.hasStyle)
		if st.kind != tt.expected {
			t.Errorf("newCellState(%q, %v, %v) = %s, expected %s",
				tt.typeAttr, tt.hasType, tt.hasStyle, st.kind, tt.expected)
		}
	}
}

func TestApplyStyle(t *testing.T) {
	styles := mustStyles(t)

	st := newCellState("", false, true)
	st.applyStyle(1, styles)
	assert.True(t, st.hasPattern)
	assert.Equal(t, 14, st.formatIndex)
	assert.Equal(t, "m/d/yy", st.pattern)

	st = newCellState("", false, true)
	st.applyStyle(5, styles)
	assert.False(t, st.hasPattern)

	// strings keep no format even when styled
	st = newCellState("s", true, true)
	st.applyStyle(2, styles)
	assert.False(t, st.hasPattern)
}

func TestDecodeCell(t *testing.T) {
	styles := mustStyles(t)
	sst := SharedStringTable{"zero", "one", "two"}

	styled := func(style int) cellState {
		st := newCellState("", false, true)
		st.applyStyle(style, styles)
		return st
	}

	tests := []struct {
		name     string
		state    cellState
		raw      string
		expected string
	}{
		{"bool false", newCellState("b", true, false), "0", "FALSE"},
		{"bool true", newCellState("b", true, false), "1", "TRUE"},
		{"bool other", newCellState("b", true, false), "yes", "TRUE"},
		{"error", newCellState("e", true, false), "#DIV/0!", "#DIV/0!"},
		{"formula string", newCellState("str", true, false), "total", "total"},
		{"inline string", newCellState("inlineStr", true, false), "inline", "inline"},
		{"unstyled passthrough", newCellState("", false, false), "42", "42"},
		{"shared string", newCellState("s", true, false), "1", "one"},
		{"shared string padded", newCellState("s", true, false), " 2 ", "two"},
		{"iso date", newCellState("d", true, false), "2024-03-05T10:20:30Z", "2024-03-05"},
		{"iso date only", newCellState("d", true, false), "2024-03-05", "2024-03-05"},
		{"iso date unparsable", newCellState("d", true, false), "soon", "soon"},
		{"number without pattern", newCellState("n", true, false), "42", ""},
		{"number unknown format", styled(5), "42", ""},
		{"general", styled(0), "3.5", "3.5"},
		{"builtin date to iso", styled(1), "45292", "2024-01-01"},
		{"custom decimals", styled(2), "3.14159", "3.14"},
		{"builtin decimals", styled(3), "2.675", "2.68"},
		{"percent", styled(4), "0.25", "25%"},
		{"custom date time", styled(6), "45292.75", "2024/01/01 18:00"},
		{"empty payload", newCellState("b", true, false), "", ""},
		{"empty number", styled(2), "", ""},
	}

	numbers := newNumberRenderer(false)
	for _, tt := range tests {
		result, err := decodeCell(tt.state, tt.raw, sst, numbers)
		if err != nil {
			t.Errorf("%s: decodeCell(%q) unexpected error: %v", tt.name, tt.raw, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("%s: decodeCell(%q) = %q, expected %q", tt.name, tt.raw, result, tt.expected)
		}
	}
}

func TestDecodeCellSharedStringOutOfRange(t *testing.T) {
	sst := SharedStringTable{"a", "b", "c"}

	value, err := decodeCell(newCellState("s", true, false), "5", sst, nil)
	assert.Equal(t, "", value)
	assert.ErrorIs(t, err, ErrSharedStringIndex)

	value, err = decodeCell(newCellState("s", true, false), "x", sst, nil)
	assert.Equal(t, "", value)
	assert.ErrorIs(t, err, ErrSharedStringIndex)

	value, err = decodeCell(newCellState("s", true, false), "0", nil, nil)
	assert.Equal(t, "", value)
	assert.ErrorIs(t, err, ErrSharedStringIndex)
}

func TestDecodeCellInvalidNumber(t *testing.T) {
	st := newCellState("", false, true)
	st.applyStyle(0, mustStyles(t))

	value, err := decodeCell(st, "n/a", nil, nil)
	assert.Equal(t, "n/a", value)
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestDecodeCellDate1904(t *testing.T) {
	st := newCellState("", false, true)
	st.applyStyle(1, mustStyles(t))

	value, err := decodeCell(st, "45292", nil, newNumberRenderer(true))
	require.NoError(t, err)
	assert.Equal(t, "2028-01-02", value)
}
