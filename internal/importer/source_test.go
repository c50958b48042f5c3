package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/contact"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	require.NoError(t, err)
	for _, data := range rows {
		row := sheet.AddRow()
		for _, v := range data {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSource_Workbook(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Candidate_ID", "Personal_Email", "Name"},
		{"c1", "a@b.com", "Lovelace, Ada"},
		{"c2", `x"y@b.com`, `Grace "Amazing" Hopper`},
	})

	text, err := ReadSource(context.Background(), path, SourceOptions{})
	require.NoError(t, err)

	rows, err := contact.ParseRecords(text, RequiredColumns)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Lovelace, Ada", rows[0].Get("name"))
	assert.Equal(t, `Grace "Amazing" Hopper`, rows[1].Get("name"))
}

func TestReadSource_WorkbookMissingSheet(t *testing.T) {
	path := writeWorkbook(t, [][]string{{"candidate_id"}})
	_, err := ReadSource(context.Background(), path, SourceOptions{Sheet: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)
}

func TestReadSource_Charset(t *testing.T) {
	// "José" in windows-1252.
	data := []byte("candidate_id,name\nc1,Jos\xe9\n")
	path := filepath.Join(t.TempDir(), "latin.csv")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	text, err := ReadSource(context.Background(), path, SourceOptions{Charset: "windows-1252"})
	require.NoError(t, err)
	assert.Contains(t, text, "José")
}

func TestReadSource_Errors(t *testing.T) {
	_, err := ReadSource(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), SourceOptions{})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "ok.csv")
	require.NoError(t, os.WriteFile(path, []byte("candidate_id\nc1\n"), 0o600))
	_, err = ReadSource(context.Background(), path, SourceOptions{Charset: "klingon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadSource(ctx, path, SourceOptions{})
	assert.Error(t, err)
}

func TestQuoteField(t *testing.T) {
	assert.Equal(t, "plain", quoteField("plain"))
	assert.Equal(t, `"a,b"`, quoteField("a,b"))
	assert.Equal(t, `"say ""hi"""`, quoteField(`say "hi"`))
	assert.Equal(t, "two lines", quoteField("two\nlines"))
}
