package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

const (
	workbookPath      = "xl/workbook.xml"
	workbookRelsPath  = "xl/_rels/workbook.xml.rels"
	sharedStringsPath = "xl/sharedStrings.xml"
	stylesPath        = "xl/styles.xml"
)

// sheetEntry is one <sheet> of the workbook part, in workbook order.
type sheetEntry struct {
	name string
	rID  string
	path string
}

// Workbook is an opened xlsx archive with its shared parts loaded.
type Workbook struct {
	files         map[string]*zip.File
	sheets        []sheetEntry
	sharedStrings SharedStringTable
	styles        *StyleSheet
	date1904      bool
}

// OpenWorkbook reads the workbook, relationship, shared-string and style
// parts of an xlsx archive. Worksheet parts are only opened by ReadSheet.
func OpenWorkbook(r io.ReaderAt, size int64) (*Workbook, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	wb := &Workbook{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		wb.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	workbookXML, err := wb.readPart(workbookPath)
	if err != nil {
		return nil, err
	}
	if workbookXML == nil {
		return nil, ErrWorkbookNotExist
	}
	wb.sheets, wb.date1904 = parseWorkbookSheets(workbookXML)

	relsXML, err := wb.readPart(workbookRelsPath)
	if err != nil {
		return nil, err
	}
	rels := parseWorkbookRels(relsXML)
	for i := range wb.sheets {
		if target, ok := rels.worksheets[wb.sheets[i].rID]; ok {
			wb.sheets[i].path = target
		}
	}

	sstPath := rels.sharedStrings
	if sstPath == "" {
		sstPath = sharedStringsPath
	}
	err = wb.withPart(sstPath, func(r io.Reader) error {
		table, err := ReadSharedStrings(r)
		wb.sharedStrings = table
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read shared strings: %w", err)
	}

	stylePath := rels.styles
	if stylePath == "" {
		stylePath = stylesPath
	}
	err = wb.withPart(stylePath, func(r io.Reader) error {
		styles, err := ReadStyleSheet(r)
		wb.styles = styles
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read styles: %w", err)
	}

	return wb, nil
}

// SheetNames returns the sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, 0, len(wb.sheets))
	for _, s := range wb.sheets {
		names = append(names, s.name)
	}
	return names
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (wb *Workbook) Date1904() bool {
	return wb.date1904
}

// SheetPath returns the archive path of the 1-based sheet.
func (wb *Workbook) SheetPath(sheet int) (string, error) {
	if sheet < 1 {
		return "", fmt.Errorf("%w: %d", ErrSheetNotFound, sheet)
	}
	if len(wb.sheets) > 0 {
		if sheet > len(wb.sheets) {
			return "", fmt.Errorf("%w: %d of %d", ErrSheetNotFound, sheet, len(wb.sheets))
		}
		if path := wb.sheets[sheet-1].path; path != "" {
			if _, ok := wb.files[path]; ok {
				return path, nil
			}
		}
	}

	path := "xl/worksheets/sheet" + strconv.Itoa(sheet) + ".xml"
	if _, ok := wb.files[path]; !ok {
		return "", fmt.Errorf("%w: %d", ErrSheetNotFound, sheet)
	}
	return path, nil
}

// ReadSheet parses the 1-based sheet keeping the leftmost columns and
// returns the assembled rows. On a parse failure the rows read so far are
// returned with the error.
func (wb *Workbook) ReadSheet(sheet, columns int, log *slog.Logger) ([]models.Row, *models.Range, error) {
	path, err := wb.SheetPath(sheet)
	if err != nil {
		return nil, nil, err
	}

	opts := SheetOptions{
		Columns:  columns,
		Date1904: wb.date1904,
		Logger:   log,
	}
	if wb.sharedStrings != nil {
		opts.SharedStrings = wb.sharedStrings
	}
	if wb.styles != nil {
		opts.Formats = wb.styles
	}

	var data *SheetData
	err = wb.withPart(path, func(r io.Reader) error {
		var err error
		data, err = ParseSheet(r, opts)
		return err
	})
	if data == nil {
		return nil, nil, err
	}
	return Assemble(data.Rows), data.Dimension, err
}

// readPart returns the content of a part, or nil when the archive lacks it.
func (wb *Workbook) readPart(name string) ([]byte, error) {
	var content []byte
	err := wb.withPart(name, func(r io.Reader) error {
		var err error
		content, err = io.ReadAll(r)
		return err
	})
	return content, err
}

// withPart opens a part, hands it to fn and always closes it. A missing part
// is not an error and fn is not called.
func (wb *Workbook) withPart(name string, fn func(io.Reader) error) error {
	f, ok := wb.files[name]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	return fn(rc)
}

func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
		if i := strings.LastIndex(baseDir, "/"); i >= 0 {
			baseDir = baseDir[:i]
		} else {
			baseDir = ""
		}
	}
	if baseDir == "" {
		return target
	}
	return baseDir + "/" + target
}

func parseWorkbookSheets(data []byte) ([]sheetEntry, bool) {
	var sheets []sheetEntry
	date1904 := false
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "workbookPr":
			if v, ok := attr(se, "date1904"); ok {
				date1904 = v == "1" || strings.EqualFold(v, "true")
			}
		case "sheet":
			var entry sheetEntry
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					entry.name = a.Value
				case "id":
					entry.rID = a.Value
				}
			}
			sheets = append(sheets, entry)
		}
	}

	return sheets, date1904
}

type workbookRels struct {
	worksheets    map[string]string // rId -> part path
	sharedStrings string
	styles        string
}

func parseWorkbookRels(data []byte) workbookRels {
	rels := workbookRels{worksheets: make(map[string]string)}
	if data == nil {
		return rels
	}
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rID, relType, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				rID = a.Value
			case "Type":
				relType = a.Value
			case "Target":
				target = a.Value
			}
		}
		path := resolveRelativePath(target, "xl")
		switch {
		case strings.HasSuffix(relType, "/worksheet"):
			rels.worksheets[rID] = path
		case strings.HasSuffix(relType, "/sharedStrings"):
			rels.sharedStrings = path
		case strings.HasSuffix(relType, "/styles"):
			rels.styles = path
		}
	}

	return rels
}
