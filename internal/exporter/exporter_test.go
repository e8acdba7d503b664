package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"groupagg/internal/table"
)

func summaryTable(t *testing.T) *table.Table {
	t.Helper()
	continents := table.MustLevels("Africa", "Americas", "Asia")
	return table.MustNew(
		[]table.Column{
			{Name: "continent", Kind: table.KindFactor, Levels: continents},
			{Name: "maxLifeExp", Kind: table.KindNumber},
			{Name: "note", Kind: table.KindText},
		},
		table.Row{continents.MustValue("Americas"), table.Number(80.653), table.Text("a, b")},
		table.Row{continents.MustValue("Asia"), table.Number(82.603), table.Text("<b>")},
		table.Row{continents.MustValue("Africa"), table.Number(math.NaN()), table.Text("")},
	)
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name      string
		opts      WriteOptions
		wantBOM   bool
		wantFirst []string
	}{
		{"defaults", DefaultWriteOptions(), false, []string{"Americas", "80.653", "a, b"}},
		{"bom", WriteOptions{BOMPrefix: true, Precision: -1}, true, []string{"Americas", "80.653", "a, b"}},
		{"one decimal", WriteOptions{Precision: 1}, false, []string{"Americas", "80.7", "a, b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, summaryTable(t), tt.opts))

			content := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(content, utf8BOM))
			content = bytes.TrimPrefix(content, utf8BOM)

			records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 4)
			assert.Equal(t, []string{"continent", "maxLifeExp", "note"}, records[0])
			assert.Equal(t, tt.wantFirst, records[1])
			assert.Equal(t, "NA", records[3][1])
		})
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, summaryTable(t), FormatTSV, DefaultWriteOptions()))

	assert.Equal(t, "continent\tmaxLifeExp\tnote\n"+
		"Americas\t80.653\ta, b\n"+
		"Asia\t82.603\t<b>\n"+
		"Africa\tNA\t\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, summaryTable(t), DefaultWriteOptions()))

	var doc struct {
		Columns []ColumnInfo             `json:"columns"`
		Rows    []map[string]interface{} `json:"rows"`
		Count   int                      `json:"count"`
		Gen     string                   `json:"generated_at"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 3, doc.Count)
	require.Len(t, doc.Columns, 3)
	assert.Equal(t, ColumnInfo{Name: "continent", Kind: "factor", Levels: []string{"Africa", "Americas", "Asia"}}, doc.Columns[0])
	assert.Equal(t, "number", doc.Columns[1].Kind)
	assert.Equal(t, "Asia", doc.Rows[1]["continent"])
	assert.Equal(t, 82.603, doc.Rows[1]["maxLifeExp"])
	assert.Nil(t, doc.Rows[2]["maxLifeExp"])
	assert.NotEmpty(t, doc.Gen)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultWriteOptions()
	opts.Caption = "Max life expectancy"
	require.NoError(t, WriteHTML(&buf, summaryTable(t), opts))

	out := buf.String()
	assert.Contains(t, out, "<caption>Max life expectancy</caption>")
	assert.Contains(t, out, "<th>continent</th><th>maxLifeExp</th><th>note</th>")
	assert.Contains(t, out, "<td>Americas</td><td>80.653</td>")
	assert.Contains(t, out, "&lt;b&gt;")
	assert.NotContains(t, out, "<b>")
	assert.Equal(t, 4, strings.Count(out, "<tr>"))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultWriteOptions()
	opts.Caption = "summary"
	require.NoError(t, WriteXLSX(&buf, summaryTable(t), opts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary"}, f.GetSheetList())
	rows, err := f.GetRows("summary", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"continent", "maxLifeExp", "note"}, rows[0])
	assert.Equal(t, "Asia", rows[2][0])
	assert.Equal(t, "82.603", rows[2][1])
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	for _, format := range []Format{FormatCSV, FormatTSV, FormatJSON, FormatHTML, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "nested", "summary."+string(format))
			require.NoError(t, WriteFile(path, summaryTable(t), format, DefaultWriteOptions()))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	assert.Error(t, WriteFile(filepath.Join(dir, "x.pdf"), summaryTable(t), Format("pdf"), DefaultWriteOptions()))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{".xlsx", FormatXLSX, false},
		{"htm", FormatHTML, false},
		{"json", FormatJSON, false},
		{"tsv", FormatTSV, false},
		{".TSV", FormatTSV, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
