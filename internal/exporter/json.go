package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"groupagg/internal/table"
)

// ColumnInfo describes one output column.
type ColumnInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

// Document is the JSON rendering of a table.
type Document struct {
	Columns     []ColumnInfo             `json:"columns"`
	Rows        []map[string]interface{} `json:"rows"`
	Count       int                      `json:"count"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// NewDocument converts tbl into its JSON document form.
func NewDocument(tbl *table.Table, opts WriteOptions) Document {
	cols := tbl.Columns()
	doc := Document{
		Columns:     make([]ColumnInfo, len(cols)),
		Rows:        make([]map[string]interface{}, tbl.Len()),
		Count:       tbl.Len(),
		GeneratedAt: time.Now().UTC(),
	}
	for j, c := range cols {
		doc.Columns[j] = ColumnInfo{Name: c.Name, Kind: c.Kind.String()}
		if c.Levels != nil {
			doc.Columns[j].Levels = c.Levels.Labels()
		}
	}
	for i := range doc.Rows {
		row := tbl.Row(i)
		obj := make(map[string]interface{}, len(row))
		for j, v := range row {
			obj[cols[j].Name] = jsonValue(v, opts.Precision)
		}
		doc.Rows[i] = obj
	}
	return doc
}

// WriteJSON writes tbl as an indented JSON document.
func WriteJSON(w io.Writer, tbl *table.Table, opts WriteOptions) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewDocument(tbl, opts)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
