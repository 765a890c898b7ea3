package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SharedStrings resolves shared-string indices to text.
type SharedStrings interface {
	Get(index int) (string, error)
}

// SharedStringTable is the workbook-wide string pool.
type SharedStringTable []string

// Get returns the string stored at index.
func (s SharedStringTable) Get(index int) (string, error) {
	if index < 0 || index >= len(s) {
		return "", fmt.Errorf("%w: %d of %d", ErrSharedStringIndex, index, len(s))
	}
	return s[index], nil
}

// ReadSharedStrings reads a sharedStrings.xml part. Rich-text runs of an item
// are concatenated; phonetic runs are dropped.
func ReadSharedStrings(r io.Reader) (SharedStringTable, error) {
	decoder := xml.NewDecoder(r)

	var (
		result   SharedStringTable
		str      strings.Builder
		inItem   bool
		inText   bool
		phonetic int
	)
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read shared strings: %w", err)
		}

		switch token := t.(type) {
		case xml.StartElement:
			switch token.Name.Local {
			case "sst":
				count := 0
				for _, attr := range token.Attr {
					if attr.Name.Local == "uniqueCount" || (count == 0 && attr.Name.Local == "count") {
						if n, err := strconv.Atoi(attr.Value); err == nil && n > 0 {
							count = n
						}
					}
				}
				result = make(SharedStringTable, 0, count)
			case "si":
				inItem = true
				str.Reset()
			case "t":
				inText = inItem && phonetic == 0
			case "rPh":
				phonetic++
			}
		case xml.EndElement:
			switch token.Name.Local {
			case "si":
				result = append(result, str.String())
				inItem = false
			case "t":
				inText = false
			case "rPh":
				phonetic--
			}
		case xml.CharData:
			if inText {
				str.Write(token)
			}
		}
	}
	return result, nil
}
