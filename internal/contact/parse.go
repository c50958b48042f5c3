// Package contact parses delimited import text and normalizes phone numbers
// and email addresses. It performs no I/O.
package contact

import (
	"fmt"
	"sort"
	"strings"
)

// MissingColumnsError is returned by ParseRecords when the header lacks
// required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("contact: missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Row is one parsed data line keyed by lowercased header name.
type Row map[string]string

// Get returns the first non-empty trimmed value among keys.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// ParseDelimitedLine splits a comma-separated line. Double-quoted fields may
// contain commas, and a doubled quote inside a quoted field is a literal quote.
func ParseDelimitedLine(line string) []string {
	return ParseDelimitedLineSep(line, ',')
}

// ParseDelimitedLineSep is ParseDelimitedLine with a caller-chosen separator.
func ParseDelimitedLineSep(line string, sep rune) []string {
	var (
		fields  []string
		b       strings.Builder
		inQuote bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuote && i+1 < len(runes) && runes[i+1] == '"':
			b.WriteRune('"')
			i++
		case r == '"':
			inQuote = !inQuote
		case r == sep && !inQuote:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	return append(fields, b.String())
}

// ParseRecords parses header-led delimited text. The header is lowercased and
// trimmed and must contain every required column. Data lines whose field count
// differs from the header are skipped.
func ParseRecords(text string, required []string) ([]Row, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		if len(required) > 0 {
			return nil, &MissingColumnsError{Columns: append([]string(nil), required...)}
		}
		return nil, nil
	}

	header := ParseDelimitedLine(lines[0])
	present := make(map[string]bool, len(header))
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		present[header[i]] = true
	}

	var missing []string
	for _, col := range required {
		if !present[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Columns: missing}
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := ParseDelimitedLine(line)
		if len(fields) != len(header) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			row[h] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
