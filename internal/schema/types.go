// internal/schema/types.go
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ColumnType is the closed set of types an event column may have. The zero
// value is TypeString, which is also the configuration default.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeBool
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeTimestamp
)

var typeNames = map[ColumnType]string{
	TypeString:    "string",
	TypeBool:      "bool",
	TypeI32:       "i32",
	TypeI64:       "i64",
	TypeF32:       "f32",
	TypeF64:       "f64",
	TypeTimestamp: "timestamp",
}

func (t ColumnType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType maps a configuration type name to its ColumnType.
func ParseColumnType(name string) (ColumnType, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return TypeString, false
}

// UnmarshalYAML lets column definitions spell types by name ("i32", "timestamp", ...).
func (t *ColumnType) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, ok := ParseColumnType(name)
	if !ok {
		return fmt.Errorf("unknown column type %q", name)
	}
	*t = parsed
	return nil
}

// JSONKind names the JSON kind of a decoded value for error messages.
// Numbers are expected to arrive as json.Number (the validator decodes with
// UseNumber so i64 values keep their precision).
func JSONKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Coerce validates a decoded JSON value against the type and returns the
// canonical in-memory value (bool, int64, float64, string or time.Time).
// It never truncates: a fractional number for an integer type is an error,
// as is an integer outside the type's range.
func (t ColumnType) Coerce(v any) (any, error) {
	switch t {
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %s", JSONKind(v))
		}
		return b, nil

	case TypeI32:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", JSONKind(v))
		}
		i, err := strconv.ParseInt(n.String(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("value %s does not fit an i32", n.String())
		}
		return i, nil

	case TypeI64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", JSONKind(v))
		}
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %s does not fit an i64", n.String())
		}
		return i, nil

	case TypeF32:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", JSONKind(v))
		}
		f, err := strconv.ParseFloat(n.String(), 32)
		if err != nil {
			return nil, fmt.Errorf("value %s does not fit an f32", n.String())
		}
		return f, nil

	case TypeF64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", JSONKind(v))
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("value %s does not fit an f64", n.String())
		}
		return f, nil

	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %s", JSONKind(v))
		}
		return s, nil

	case TypeTimestamp:
		switch tv := v.(type) {
		case json.Number:
			// Seconds since the Unix epoch; fractional seconds allowed.
			f, err := tv.Float64()
			if err != nil {
				return nil, fmt.Errorf("value %s is not a valid epoch timestamp", tv.String())
			}
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
		case string:
			ts, err := time.Parse(time.RFC3339, tv)
			if err != nil {
				return nil, fmt.Errorf("could not parse timestamp: %v", err)
			}
			return ts.UTC(), nil
		default:
			return nil, fmt.Errorf("expected an epoch number or RFC 3339 string, got %s", JSONKind(v))
		}
	}
	return nil, fmt.Errorf("unhandled column type %v", t)
}
