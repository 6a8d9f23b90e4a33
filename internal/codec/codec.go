// Package codec converts typed configuration values to and from the canonical
// string form that is encrypted and stored.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueType declares how a configuration value is interpreted.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeSelect ValueType = "select" // stored as string; option membership is checked by the caller
	TypeJSON   ValueType = "json"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeSelect, TypeJSON:
		return true
	}
	return false
}

// Serialize converts a value into its canonical string form for storage.
// JSON values that arrive as strings are assumed pre-encoded and stored as-is.
func Serialize(value any, t ValueType) (string, error) {
	switch t {
	case TypeJSON:
		if s, ok := value.(string); ok {
			return s, nil
		}
		b, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode json value: %w", err)
		}
		return string(b), nil
	case TypeNumber:
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		default:
			return fmt.Sprintf("%v", value), nil
		}
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", value), nil
	}
}

// Deserialize converts a stored string back into a typed value.
//
// Parsing is deliberately lenient: a NUMBER or JSON value that does not parse
// is returned as the raw string rather than failing, so a bad historical row
// never makes an entry unreadable.
func Deserialize(s string, t ValueType) any {
	switch t {
	case TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return s
		}
		return v
	case TypeNumber:
		if strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
			return s
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return s
	default:
		return s
	}
}
