// internal/schema/schema_test.go
package schema

import (
	"errors"
	"testing"
)

const exampleDoc = `
database_url: sqlite://events.db
tables:
  events:
    columns:
      - name: time
        type: timestamp
        indexed: true
      - name: referer
        header: Referer
      - name: event_type
        indexed: true
        required: true
      - name: score
        type: i32
apps:
  com.example.myapp:
    secret_key: qD3eRda0709mD/3kGp4DlJtEQy5aMY0m
    access_control_allow_origin: "http://example.com"
    tables:
      - events
  com.example.other:
    secret_key: n6MrfBnXcB7pIEeKdiCBmT8AqLEmtfUO
    tables: []
`

func TestParseExampleDocument(t *testing.T) {
	s, err := Parse([]byte(exampleDoc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	table, ok := s.Tables["events"]
	if !ok {
		t.Fatal("table \"events\" missing")
	}
	if table.Name != "events" {
		t.Errorf("table.Name = %q; want \"events\"", table.Name)
	}
	if len(table.Columns) != 4 {
		t.Fatalf("len(table.Columns) = %d; want 4", len(table.Columns))
	}

	wantColumns := []Column{
		{Name: "time", Type: TypeTimestamp, Indexed: true},
		{Name: "referer", Type: TypeString, Header: "Referer"},
		{Name: "event_type", Type: TypeString, Indexed: true, Required: true},
		{Name: "score", Type: TypeI32},
	}
	for i, want := range wantColumns {
		got := table.Columns[i]
		if *got != want {
			t.Errorf("column %d = %+v; want %+v", i, *got, want)
		}
	}

	app, ok := s.Apps["com.example.myapp"]
	if !ok {
		t.Fatal("app \"com.example.myapp\" missing")
	}
	if app.AppID != "com.example.myapp" {
		t.Errorf("app.AppID = %q; want \"com.example.myapp\"", app.AppID)
	}
	if app.AccessControlAllowOrigin != "http://example.com" {
		t.Errorf("app.AccessControlAllowOrigin = %q", app.AccessControlAllowOrigin)
	}
	if !app.AllowsTable("events") {
		t.Error("app should allow table \"events\"")
	}

	other := s.Apps["com.example.other"]
	if other.AccessControlAllowOrigin != "*" {
		t.Errorf("default origin = %q; want \"*\"", other.AccessControlAllowOrigin)
	}
	if other.AllowsTable("events") {
		t.Error("app with empty table list should allow nothing")
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			"missing database url",
			"tables: {}\napps: {}\n",
			ErrNoDatabaseURL,
		},
		{
			"app references unknown table",
			"database_url: x\ntables: {}\napps:\n  a:\n    secret_key: k\n    tables: [missing]\n",
			ErrTableNotDefined,
		},
		{
			"invalid table identifier",
			"database_url: x\ntables:\n  bad-name:\n    columns:\n      - name: c\n",
			ErrInvalidIdentifier,
		},
		{
			"invalid column identifier",
			"database_url: x\ntables:\n  t:\n    columns:\n      - name: \"drop table\"\n",
			ErrInvalidIdentifier,
		},
		{
			"duplicate column",
			"database_url: x\ntables:\n  t:\n    columns:\n      - name: c\n      - name: c\n",
			ErrDuplicateColumn,
		},
		{
			"header column with non-string type",
			"database_url: x\ntables:\n  t:\n    columns:\n      - name: c\n        type: i32\n        header: Referer\n",
			ErrHeaderColumnType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Parse error = %v; want %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseRejectsUnknownColumnType(t *testing.T) {
	_, err := Parse([]byte("database_url: x\ntables:\n  t:\n    columns:\n      - name: c\n        type: varchar\n"))
	if err == nil {
		t.Fatal("Parse accepted an unknown column type")
	}
}

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		input string
		want  bool
	}{
		{"my_table", true},
		{"table_123", true},
		{"_events", true},
		{"", false},
		{"my table", false},
		{"my-table", false},
		{"table;drop", false},
		{"таблица", false},
	}
	for _, tc := range testCases {
		if got := IsValidIdentifier(tc.input); got != tc.want {
			t.Errorf("IsValidIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}
}
