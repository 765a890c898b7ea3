package parser

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

func buildArchive(t *testing.T, parts map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func openArchive(t *testing.T, parts map[string]string) *Workbook {
	t.Helper()
	r := buildArchive(t, parts)
	wb, err := OpenWorkbook(r, r.Size())
	require.NoError(t, err)
	return wb
}

const testWorkbook = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <workbookPr date1904="1"/>
  <sheets>
    <sheet name="Summary" sheetId="1" r:id="rId2"/>
    <sheet name="Data" sheetId="2" r:id="rId1"/>
  </sheets>
</workbook>`

const testWorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/data.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/summary.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="strings.xml"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

func TestWorkbookSheetOrderFollowsWorkbook(t *testing.T) {
	wb := openArchive(t, map[string]string{
		"xl/workbook.xml":            testWorkbook,
		"xl/_rels/workbook.xml.rels": testWorkbookRels,
		"xl/strings.xml":             `<sst><si><t>Region</t></si><si><t>North</t></si></sst>`,
		"xl/styles.xml":              testStyles,
		"xl/worksheets/summary.xml": sheetXML(
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="str"><v>When</v></c></row>`,
			`<row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2" s="1"><v>45292</v></c></row>`,
		),
		"xl/worksheets/data.xml": sheetXML(`<row r="1"><c r="A1" t="str"><v>data</v></c></row>`),
	})

	assert.Equal(t, []string{"Summary", "Data"}, wb.SheetNames())
	assert.True(t, wb.Date1904())

	path, err := wb.SheetPath(1)
	require.NoError(t, err)
	assert.Equal(t, "xl/worksheets/summary.xml", path)

	rows, dim, err := wb.ReadSheet(1, 2, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotNil(t, dim)
	assert.Equal(t, []models.Cell{{Name: "Region", Value: "North"}, {Name: "When", Value: "2028-01-02"}}, rows[1].Cells)

	rows, _, err = wb.ReadSheet(2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "data", rows[0].Cells[0].Value)

	_, _, err = wb.ReadSheet(3, 1, nil)
	assert.ErrorIs(t, err, ErrSheetNotFound)
	_, _, err = wb.ReadSheet(0, 1, nil)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWorkbookFallsBackToSheetPath(t *testing.T) {
	wb := openArchive(t, map[string]string{
		"xl/workbook.xml":          `<workbook><sheets/></workbook>`,
		"xl/worksheets/sheet2.xml": sheetXML(`<row r="1"><c r="A1" t="str"><v>second</v></c></row>`),
	})

	rows, _, err := wb.ReadSheet(2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", rows[0].Cells[0].Value)

	_, _, err = wb.ReadSheet(1, 1, nil)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWorkbookMissingWorkbookPart(t *testing.T) {
	r := buildArchive(t, map[string]string{"docProps/app.xml": "<Properties/>"})
	_, err := OpenWorkbook(r, r.Size())
	assert.ErrorIs(t, err, ErrWorkbookNotExist)
}

func TestWorkbookNotAnArchive(t *testing.T) {
	data := []byte("definitely not a zip file")
	_, err := OpenWorkbook(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, zip.ErrFormat)
}

func TestWorkbookPartialRowsOnParseFailure(t *testing.T) {
	wb := openArchive(t, map[string]string{
		"xl/workbook.xml": `<workbook><sheets/></workbook>`,
		"xl/worksheets/sheet1.xml": sheetXML(
			`<row r="1"><c r="A1" t="str"><v>h</v></c></row>`,
			`<row r="2"><c r="A2" t="str"><v>ok</v></c></row>`,
			`<row r="3"><c r="?" t="str"><v>bad</v></c></row>`,
		),
	})

	rows, _, err := wb.ReadSheet(1, 1, nil)
	assert.ErrorIs(t, err, ErrMalformedReference)
	require.Len(t, rows, 2)
	assert.Equal(t, "ok", rows[1].Cells[0].Value)
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		target   string
		baseDir  string
		expected string
	}{
		{"worksheets/sheet1.xml", "xl", "xl/worksheets/sheet1.xml"},
		{"/xl/worksheets/sheet1.xml", "xl", "xl/worksheets/sheet1.xml"},
		{"../drawings/drawing1.xml", "xl/worksheets", "xl/drawings/drawing1.xml"},
		{"../sheet.xml", "xl", "sheet.xml"},
	}

	for _, tt := range tests {
		result := resolveRelativePath(tt.target, tt.baseDir)
		if result != tt.expected {
			t.Errorf("resolveRelativePath(%q, %q) = %q, expected %q", tt.target, tt.baseDir, result, tt.expected)
		}
	}
}

func TestReadSheetFromExcelizeWorkbook(t *testing.T) {
	// Create a temporary Excel file for testing
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Item")
	f.SetCellValue(sheetName, "B1", "Count")
	f.SetCellValue(sheetName, "C1", "Shipped")
	f.SetCellValue(sheetName, "D1", "Ignored")
	f.SetCellValue(sheetName, "A2", "Bolt")
	f.SetCellValue(sheetName, "B2", 100)
	f.SetCellValue(sheetName, "C2", 45292)
	f.SetCellValue(sheetName, "D2", "beyond the limit")
	f.SetCellValue(sheetName, "A3", "Nut")
	f.SetCellValue(sheetName, "B3", true)
	f.SetCellValue(sheetName, "A5", "Washer")

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheetName, "C2", "C2", dateStyle))

	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.SaveAs(tmpFile))

	data, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	wb, err := OpenWorkbook(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	rows, _, err := wb.ReadSheet(1, 3, nil)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	header := rows[0]
	assert.Equal(t, []string{"Item", "Count", "Shipped"}, []string{
		header.Cells[0].Value, header.Cells[1].Value, header.Cells[2].Value,
	})

	bolt := rows[1]
	for name, expected := range map[string]string{"Item": "Bolt", "Count": "100", "Shipped": "2024-01-01"} {
		value, ok := bolt.Value(name)
		assert.True(t, ok, name)
		assert.Equal(t, expected, value, name)
	}

	nut := rows[2]
	value, _ := nut.Value("Count")
	assert.Equal(t, "TRUE", value)
	value, ok := nut.Value("Shipped")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	assert.Equal(t, 4, rows[3].Index)
	assert.Len(t, rows[3].Cells, 3)
}
