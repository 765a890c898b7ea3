package parser

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	recordFormula  = 0x0006
	recordEOF      = 0x000A
	recordDateMode = 0x0022
	recordSheet    = 0x0085
	recordString   = 0x0207
	recordBOF      = 0x0809

	biff8Version = 0x0600
)

var legacyErrorCodes = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

// legacyFormula is the cached result of a FORMULA record.
type legacyFormula struct {
	cell LegacyCell
	xf   int
}

// legacyStream holds what the workbook stream says about one sheet beyond
// its constant cells.
type legacyStream struct {
	date1904 bool
	formulas map[int]map[int]legacyFormula
}

type biffRecord struct {
	id   uint16
	data []byte
}

// scanLegacyStream reads the date system of the workbook and the cached
// formula results of its 1-based sheet.
func scanLegacyStream(r io.ReaderAt, size int64, sheet int) (*legacyStream, error) {
	stream, err := readWorkbookStream(r, size)
	if err != nil {
		return nil, err
	}

	result := &legacyStream{formulas: make(map[int]map[int]legacyFormula)}
	var offsets []int64
	version := uint16(0)
	for _, rec := range biffRecords(stream, 0) {
		switch rec.id {
		case recordBOF:
			if len(rec.data) >= 2 {
				version = binary.LittleEndian.Uint16(rec.data)
			}
		case recordDateMode:
			if len(rec.data) >= 2 {
				result.date1904 = binary.LittleEndian.Uint16(rec.data) == 1
			}
		case recordSheet:
			if len(rec.data) >= 4 {
				offsets = append(offsets, int64(binary.LittleEndian.Uint32(rec.data)))
			}
		}
	}
	if sheet < 1 || sheet > len(offsets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSheetNotFound, sheet, len(offsets))
	}

	var pending *legacyFormula
	var pendingRow, pendingCol int
	for _, rec := range biffRecords(stream, offsets[sheet-1]) {
		switch rec.id {
		case recordFormula:
			pending = nil
			if len(rec.data) < 14 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:]))
			col := int(binary.LittleEndian.Uint16(rec.data[2:]))
			f := legacyFormula{xf: int(binary.LittleEndian.Uint16(rec.data[4:]))}
			value := rec.data[6:14]
			isString := false
			if value[6] == 0xFF && value[7] == 0xFF {
				switch value[0] {
				case 0:
					isString = true
				case 1:
					f.cell = LegacyCell{Kind: LegacyText, Text: "FALSE"}
					if value[2] != 0 {
						f.cell.Text = "TRUE"
					}
				case 2:
					f.cell = LegacyCell{Kind: LegacyText, Text: legacyErrorCodes[value[2]]}
				default:
					f.cell = LegacyCell{Kind: LegacyBlank}
				}
			} else {
				f.cell = LegacyCell{Kind: LegacyNumber, Number: math.Float64frombits(binary.LittleEndian.Uint64(value))}
			}
			result.set(row, col, f)
			if isString {
				pending, pendingRow, pendingCol = &f, row, col
			}
		case recordString:
			if pending == nil {
				continue
			}
			text, err := decodeLegacyString(rec.data, version)
			if err != nil {
				return nil, err
			}
			pending.cell = LegacyCell{Kind: LegacyText, Text: text}
			if text == "" {
				pending.cell.Kind = LegacyBlank
			}
			result.set(pendingRow, pendingCol, *pending)
			pending = nil
		}
	}
	return result, nil
}

func (s *legacyStream) set(row, col int, f legacyFormula) {
	cells, ok := s.formulas[row]
	if !ok {
		cells = make(map[int]legacyFormula)
		s.formulas[row] = cells
	}
	cells[col] = f
}

// readWorkbookStream returns the Workbook stream of a compound file, or its
// Book stream for BIFF5 files.
func readWorkbookStream(r io.ReaderAt, size int64) ([]byte, error) {
	doc, err := mscfb.New(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("decode legacy workbook: %w", err)
	}
	var book *mscfb.File
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || (entry.Name == "Book" && book == nil) {
			book = entry
		}
	}
	if book == nil {
		return nil, ErrWorkbookStreamNotExist
	}
	stream, err := io.ReadAll(book)
	if err != nil {
		return nil, fmt.Errorf("read workbook stream: %w", err)
	}
	return stream, nil
}

// biffRecords splits the substream that starts at offset into records. It
// stops after the EOF record matching the substream BOF.
func biffRecords(stream []byte, offset int64) []biffRecord {
	var records []biffRecord
	depth := 0
	for pos := offset; pos >= 0 && pos+4 <= int64(len(stream)); {
		id := binary.LittleEndian.Uint16(stream[pos:])
		length := int64(binary.LittleEndian.Uint16(stream[pos+2:]))
		end := pos + 4 + length
		if end > int64(len(stream)) {
			break
		}
		records = append(records, biffRecord{id: id, data: stream[pos+4 : end]})
		pos = end

		switch id {
		case recordBOF:
			depth++
		case recordEOF:
			depth--
			if depth <= 0 {
				return records
			}
		}
	}
	return records
}

// decodeLegacyString decodes the payload of a STRING record. BIFF8 strings
// carry a flag byte selecting compressed Latin-1 or UTF-16LE characters.
func decodeLegacyString(data []byte, version uint16) (string, error) {
	if len(data) < 2 {
		return "", nil
	}
	count := int(binary.LittleEndian.Uint16(data))
	if version != biff8Version {
		raw := data[2:]
		if count < len(raw) {
			raw = raw[:count]
		}
		text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode formula string: %w", err)
		}
		return string(text), nil
	}
	if len(data) < 3 {
		return "", nil
	}

	raw := data[3:]
	if data[2]&1 == 0 {
		if count < len(raw) {
			raw = raw[:count]
		}
		text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode formula string: %w", err)
		}
		return string(text), nil
	}
	if 2*count < len(raw) {
		raw = raw[:2*count]
	}
	text, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode formula string: %w", err)
	}
	return string(text), nil
}
