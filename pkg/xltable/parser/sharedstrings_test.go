package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSharedStrings(t *testing.T) {
	const sst = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="4">
  <si><t>Name</t></si>
  <si><t xml:space="preserve"> padded </t></si>
  <si><r><rPr><b/></rPr><t>Bold</t></r><r><t> and plain</t></r></si>
  <si><t>漢字</t><rPh sb="0" eb="2"><t>カンジ</t></rPh></si>
</sst>`

	table, err := ReadSharedStrings(strings.NewReader(sst))
	require.NoError(t, err)
	assert.Equal(t, SharedStringTable{"Name", " padded ", "Bold and plain", "漢字"}, table)
}

func TestSharedStringTableGet(t *testing.T) {
	table := SharedStringTable{"a", "b", "c"}

	v, err := table.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	_, err = table.Get(5)
	assert.ErrorIs(t, err, ErrSharedStringIndex)

	_, err = table.Get(-1)
	assert.ErrorIs(t, err, ErrSharedStringIndex)
}

func TestReadSharedStringsMalformed(t *testing.T) {
	_, err := ReadSharedStrings(strings.NewReader(`<sst><si><t>open`))
	assert.Error(t, err)
}
