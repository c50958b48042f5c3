package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/htmlindex"
)

// SourceOptions controls how an import file is read.
type SourceOptions struct {
	// Charset names the text encoding of CSV input (e.g. "windows-1252").
	// Empty means UTF-8.
	Charset string
	// Sheet selects the workbook sheet for .xlsx input. Empty means the first sheet.
	Sheet string
}

// ReadSource loads an import file as delimited text. Workbooks are rendered
// to comma-separated text so every source goes through the same parser.
func ReadSource(ctx context.Context, path string, opts SourceOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "importer: read source")
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path, opts.Sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return decodeText(f, opts.Charset)
}

func decodeText(r io.Reader, charset string) (string, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return "", eris.Wrapf(err, "importer: unsupported charset %q", charset)
		}
		r = enc.NewDecoder().Reader(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrap(err, "importer: read text")
	}
	return string(data), nil
}

func readWorkbook(path, sheetName string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", eris.Wrap(err, "importer: open workbook")
	}

	var sheet *xlsx.Sheet
	switch {
	case sheetName != "":
		s, ok := f.Sheet[sheetName]
		if !ok {
			return "", eris.Errorf("importer: sheet %q not found", sheetName)
		}
		sheet = s
	case len(f.Sheets) == 0:
		return "", eris.New("importer: workbook has no sheets")
	default:
		sheet = f.Sheets[0]
	}

	// Trailing empty cells are not stored, so rows are padded to the header
	// width to keep their field count aligned.
	var b strings.Builder
	width := 0
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		fields := make([]string, max(len(row.Cells), width))
		for i, cell := range row.Cells {
			fields[i] = quoteField(cell.String())
		}
		line := strings.Join(fields, ",")
		if strings.Trim(line, ",") == "" {
			continue
		}
		if width == 0 {
			width = len(fields)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// quoteField quotes a value when it contains a separator, quote or newline.
func quoteField(v string) string {
	v = strings.ReplaceAll(strings.ReplaceAll(v, "\r\n", " "), "\n", " ")
	if !strings.ContainsAny(v, `,"`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
