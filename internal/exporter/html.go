package exporter

import (
	"fmt"
	"html/template"
	"io"

	"groupagg/internal/table"
)

var htmlTable = template.Must(template.New("table").Parse(`<table class="groupagg">
{{- if .Caption}}
  <caption>{{.Caption}}</caption>
{{- end}}
  <thead>
    <tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
  </tbody>
</table>
`))

// WriteHTML writes tbl as an HTML table fragment.
func WriteHTML(w io.Writer, tbl *table.Table, opts WriteOptions) error {
	header, rows := records(tbl, opts.Precision)
	data := struct {
		Caption string
		Header  []string
		Rows    [][]string
	}{opts.Caption, header, rows}

	if err := htmlTable.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}
