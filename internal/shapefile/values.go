package shapefile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
)

// Field describes one DBF column.
type Field struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Size      int    `json:"size" yaml:"size"`
	Precision int    `json:"precision,omitempty" yaml:"precision,omitempty"`
}

// LookupEncoding resolves a .cpg charset label such as "UTF-8", "1252",
// "ANSI 1252" or "ISO-8859-1".
func LookupEncoding(label string) (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	name = strings.TrimPrefix(name, "ansi ")
	name = strings.TrimSpace(name)

	switch {
	case name == "utf8" || name == "utf-8":
		return xunicode.UTF8, nil
	case isDigits(name):
		name = "windows-" + name
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// decodeValue converts a raw DBF cell into a typed value.
func decodeValue(fieldType byte, raw string, dec *encoding.Decoder) any {
	raw = strings.Trim(raw, " \x00")

	switch fieldType {
	case 'N', 'F', 'B', 'M':
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return v

	case 'D':
		if len(raw) != 8 || raw == "00000000" {
			return nil
		}
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return nil
		}
		return t

	case 'L':
		switch raw {
		case "T", "t", "Y", "y":
			return true
		case "F", "f", "N", "n":
			return false
		default:
			return nil
		}

	default:
		if raw == "" {
			return nil
		}
		s, err := dec.String(raw)
		if err != nil {
			return raw
		}
		return strings.TrimSpace(s)
	}
}
