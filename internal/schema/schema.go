// internal/schema/schema.go
package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Configuration problems detected while loading the schema document. All of
// them are fatal: the process refuses to start on a schema it cannot trust.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrHeaderColumnType  = errors.New("header-sourced column must be of string type")
	ErrTableNotDefined   = errors.New("app refers to undefined table")
	ErrNoDatabaseURL     = errors.New("schema document has no database_url")
)

// Regular expression for valid table/column names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// IsValidIdentifier checks if a string is usable as a SQL identifier without
// escaping. Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// Column describes one column of an event table.
type Column struct {
	Name string `yaml:"name"`
	// Type defaults to TypeString when omitted.
	Type ColumnType `yaml:"type"`
	// Header names the HTTP request header this column is copied from.
	// Empty means the value comes from the event body.
	Header   string `yaml:"header"`
	Indexed  bool   `yaml:"indexed"`
	Required bool   `yaml:"required"`
}

// FromHeader reports whether the column is populated from a request header
// rather than the JSON event body.
func (c *Column) FromHeader() bool {
	return c.Header != ""
}

// Table is an ordered sequence of columns. The name is filled in from the
// map key while loading.
type Table struct {
	Name    string    `yaml:"-"`
	Columns []*Column `yaml:"columns"`
}

// Column returns the body-sourced column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name && !col.FromHeader() {
			return col
		}
	}
	return nil
}

// App is one registered client application.
type App struct {
	AppID                    string   `yaml:"-"`
	SecretKey                string   `yaml:"secret_key"`
	AccessControlAllowOrigin string   `yaml:"access_control_allow_origin"`
	Tables                   []string `yaml:"tables"`

	tableSet map[string]struct{}
}

// AllowsTable reports whether the app may write to the named table.
func (a *App) AllowsTable(name string) bool {
	_, ok := a.tableSet[name]
	return ok
}

// Schema is the authoritative in-memory model of tables and apps. It is
// built once at startup and read-only afterwards, so concurrent requests
// need no locking around it.
type Schema struct {
	DatabaseURL string            `yaml:"database_url"`
	Tables      map[string]*Table `yaml:"tables"`
	Apps        map[string]*App   `yaml:"apps"`
}

// Load reads and validates a schema document from disk.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return s, nil
}

// Parse unmarshals a YAML schema document and validates its structure.
func Parse(raw []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate fills in names from map keys, applies defaults and rejects
// configurations the engine cannot serve safely.
func (s *Schema) validate() error {
	if s.DatabaseURL == "" {
		return ErrNoDatabaseURL
	}

	for tableName, table := range s.Tables {
		if table == nil || len(table.Columns) == 0 {
			return fmt.Errorf("table %q has no columns", tableName)
		}
		if !IsValidIdentifier(tableName) {
			return fmt.Errorf("%w: table name %q", ErrInvalidIdentifier, tableName)
		}
		table.Name = tableName

		seen := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			if !IsValidIdentifier(col.Name) {
				return fmt.Errorf("%w: column name %q in table %q", ErrInvalidIdentifier, col.Name, tableName)
			}
			if _, dup := seen[col.Name]; dup {
				return fmt.Errorf("%w: %q in table %q", ErrDuplicateColumn, col.Name, tableName)
			}
			seen[col.Name] = struct{}{}

			if col.FromHeader() && col.Type != TypeString {
				return fmt.Errorf("%w: column %q in table %q has type %s",
					ErrHeaderColumnType, col.Name, tableName, col.Type)
			}
		}
	}

	for appID, app := range s.Apps {
		if app == nil {
			return fmt.Errorf("app %q has no configuration", appID)
		}
		app.AppID = appID
		if app.AccessControlAllowOrigin == "" {
			app.AccessControlAllowOrigin = "*"
		}
		app.tableSet = make(map[string]struct{}, len(app.Tables))
		for _, tableName := range app.Tables {
			if _, ok := s.Tables[tableName]; !ok {
				return fmt.Errorf("%w: app %q, table %q", ErrTableNotDefined, appID, tableName)
			}
			app.tableSet[tableName] = struct{}{}
		}
	}

	return nil
}
