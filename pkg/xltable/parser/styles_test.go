package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStyles maps style index to number format:
// 0 General, 1 m/d/yy, 2 custom 0.00, 3 builtin 0.00, 4 0%, 5 unknown id, 6 custom date.
const testStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <numFmts count="2">
    <numFmt numFmtId="164" formatCode="0.00"/>
    <numFmt numFmtId="165" formatCode="yyyy/mm/dd hh:mm"/>
  </numFmts>
  <cellStyleXfs count="1"><xf numFmtId="0" fontId="0"/></cellStyleXfs>
  <cellXfs count="7">
    <xf numFmtId="0" fontId="0" xfId="0"/>
    <xf numFmtId="14" fontId="0" xfId="0" applyNumberFormat="1"/>
    <xf numFmtId="164" fontId="0" xfId="0" applyNumberFormat="1"/>
    <xf numFmtId="2" fontId="0" xfId="0" applyNumberFormat="1"/>
    <xf numFmtId="9" fontId="0" xfId="0" applyNumberFormat="1"/>
    <xf numFmtId="200" fontId="0" xfId="0" applyNumberFormat="1"/>
    <xf numFmtId="165" fontId="0" xfId="0" applyNumberFormat="1"/>
  </cellXfs>
</styleSheet>`

func mustStyles(t *testing.T) *StyleSheet {
	t.Helper()
	styles, err := ReadStyleSheet(strings.NewReader(testStyles))
	require.NoError(t, err)
	return styles
}

func TestStyleSheetResolve(t *testing.T) {
	styles := mustStyles(t)

	tests := []struct {
		style       int
		formatIndex int
		pattern     string
		ok          bool
	}{
		{0, 0, "General", true},
		{1, 14, "m/d/yy", true},
		{2, 164, "0.00", true},
		{3, 2, "0.00", true},
		{4, 9, "0%", true},
		{5, 200, "", false},
		{6, 165, "yyyy/mm/dd hh:mm", true},
		{7, -1, "", false},
		{-1, -1, "", false},
	}

	for _, tt := range tests {
		formatIndex, pattern, ok := styles.Resolve(tt.style)
		if formatIndex != tt.formatIndex || pattern != tt.pattern || ok != tt.ok {
			t.Errorf("Resolve(%d) = (%d, %q, %v), expected (%d, %q, %v)",
				tt.style, formatIndex, pattern, ok, tt.formatIndex, tt.pattern, tt.ok)
		}
	}
}

func TestStyleSheetIgnoresCellStyleXfs(t *testing.T) {
	styles := mustStyles(t)
	assert.Len(t, styles.cellXfs, 7)
}

func TestBuiltinFormat(t *testing.T) {
	pattern, ok := BuiltinFormat(14)
	assert.True(t, ok)
	assert.Equal(t, "m/d/yy", pattern)

	_, ok = BuiltinFormat(30)
	assert.False(t, ok)
}

func TestNilStyleSheetResolve(t *testing.T) {
	var styles *StyleSheet
	_, _, ok := styles.Resolve(0)
	assert.False(t, ok)
}
