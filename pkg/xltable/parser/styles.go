package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// NumberFormats resolves a cell style index to its number format.
type NumberFormats interface {
	// Resolve returns the format index of the style and its pattern. ok is
	// false when the style is unknown or its format has no pattern.
	Resolve(styleIndex int) (formatIndex int, pattern string, ok bool)
}

var builtinFormats = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);("$"#,##0)`,
	6:  `"$"#,##0_);[Red]("$"#,##0)`,
	7:  `"$"#,##0.00_);("$"#,##0.00)`,
	8:  `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* (#,##0);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// BuiltinFormat returns the pattern of a builtin number format.
func BuiltinFormat(formatIndex int) (string, bool) {
	pattern, ok := builtinFormats[formatIndex]
	return pattern, ok
}

// StyleSheet holds the number-format part of styles.xml.
type StyleSheet struct {
	numFormats map[int]string
	cellXfs    []int
}

// Resolve implements NumberFormats. Workbook-defined patterns win over the
// builtin table.
func (s *StyleSheet) Resolve(styleIndex int) (int, string, bool) {
	if s == nil || styleIndex < 0 || styleIndex >= len(s.cellXfs) {
		return -1, "", false
	}
	formatIndex := s.cellXfs[styleIndex]
	if pattern, ok := s.numFormats[formatIndex]; ok {
		return formatIndex, pattern, true
	}
	pattern, ok := BuiltinFormat(formatIndex)
	return formatIndex, pattern, ok
}

// ReadStyleSheet reads the numFmts and cellXfs sections of a styles.xml part.
func ReadStyleSheet(r io.Reader) (*StyleSheet, error) {
	decoder := xml.NewDecoder(r)

	result := &StyleSheet{
		numFormats: make(map[int]string),
	}

	isNumFmts := false
	isCellXfs := false
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read styles: %w", err)
		}

		switch token := t.(type) {
		case xml.StartElement:
			switch token.Name.Local {
			case "numFmts":
				isNumFmts = true
			case "numFmt":
				if !isNumFmts {
					continue
				}
				id := -1
				code := ""
				for _, attr := range token.Attr {
					switch attr.Name.Local {
					case "formatCode":
						code = attr.Value
					case "numFmtId":
						if id, err = strconv.Atoi(attr.Value); err != nil {
							return nil, fmt.Errorf("read styles: numFmtId %q: %w", attr.Value, err)
						}
					}
				}
				if id >= 0 && code != "" {
					result.numFormats[id] = code
				}
			case "cellXfs":
				isCellXfs = true
			case "xf":
				if !isCellXfs {
					continue
				}
				id := 0
				for _, attr := range token.Attr {
					if attr.Name.Local == "numFmtId" {
						if id, err = strconv.Atoi(attr.Value); err != nil {
							return nil, fmt.Errorf("read styles: numFmtId %q: %w", attr.Value, err)
						}
					}
				}
				result.cellXfs = append(result.cellXfs, id)
			}
		case xml.EndElement:
			switch token.Name.Local {
			case "numFmts":
				isNumFmts = false
			case "cellXfs":
				isCellXfs = false
			}
		}
	}

	return result, nil
}
