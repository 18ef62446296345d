// internal/ingest/validate.go
package ingest

import (
	"net/http"
	"sort"

	"eventgate/internal/schema"
)

// TableSelectorField is the event body key naming the destination table.
// It is never treated as a column value.
const TableSelectorField = "_t"

// Row is the validated, coerced form of one event: every declared column of
// the table, in declared order, with its typed value or nil for NULL. It is
// handed straight to the insert executor and not kept beyond the request.
type Row struct {
	Table   *schema.Table
	Columns []string
	Values  []any
}

// BuildRow validates one decoded event object against a table definition and
// the incoming request headers. Columns are processed in the table's declared
// order so the first failing column is deterministic. The function reads only
// its inputs; it has no side effects.
func BuildRow(table *schema.Table, event map[string]any, headers http.Header) (*Row, error) {
	row := &Row{
		Table:   table,
		Columns: make([]string, 0, len(table.Columns)),
		Values:  make([]any, 0, len(table.Columns)),
	}

	for _, col := range table.Columns {
		var value any

		if col.FromHeader() {
			// Header lookup is case-insensitive via textproto canonicalization.
			if h := headers.Get(col.Header); h != "" {
				value = h
			} else if col.Required {
				return nil, &MissingRequiredFieldError{Table: table.Name, Column: col.Name}
			}
		} else {
			raw, present := event[col.Name]
			if !present || raw == nil {
				if col.Required {
					return nil, &MissingRequiredFieldError{Table: table.Name, Column: col.Name}
				}
			} else {
				coerced, err := col.Type.Coerce(raw)
				if err != nil {
					return nil, &TypeMismatchError{
						Table:    table.Name,
						Column:   col.Name,
						Expected: col.Type,
						Got:      schema.JSONKind(raw),
						Reason:   err.Error(),
					}
				}
				value = coerced
			}
		}

		row.Columns = append(row.Columns, col.Name)
		row.Values = append(row.Values, value)
	}

	// Any key that no body-sourced column consumed is a client-side schema
	// drift. Header-sourced columns are deliberately not satisfiable from
	// the body, so their names count as unknown here too.
	var unknown []string
	for key := range event {
		if key == TableSelectorField {
			continue
		}
		if table.Column(key) == nil {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownFieldError{Table: table.Name, Field: unknown[0]}
	}

	return row, nil
}
