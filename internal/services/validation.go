package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/konfig-io/konfig/internal/codec"
	"github.com/konfig-io/konfig/pkg/response"
)

// ValidationSchema holds the type-specific constraints a config entry may
// declare. Which fields apply depends on the declared value type.
type ValidationSchema struct {
	// STRING
	MinLength *int   `json:"min_length,omitempty"`
	MaxLength *int   `json:"max_length,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// NUMBER
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// SELECT
	Options []string `json:"options,omitempty"`

	// JSON: object keys that must be present.
	Required []string `json:"required,omitempty"`
}

// validateValue checks a serialized value against its declared type and
// optional schema. The codec itself never validates; option membership and
// constraints are the store's responsibility.
func validateValue(serialized string, t codec.ValueType, schema *ValidationSchema) error {
	switch t {
	case codec.TypeNumber:
		n, err := strconv.ParseFloat(serialized, 64)
		if err != nil {
			return response.NewBadRequest("value is not a valid number")
		}
		if schema != nil {
			if schema.Min != nil && n < *schema.Min {
				return response.NewBadRequest(fmt.Sprintf("value must be >= %v", *schema.Min))
			}
			if schema.Max != nil && n > *schema.Max {
				return response.NewBadRequest(fmt.Sprintf("value must be <= %v", *schema.Max))
			}
		}
	case codec.TypeSelect:
		if schema != nil && len(schema.Options) > 0 {
			for _, opt := range schema.Options {
				if serialized == opt {
					return nil
				}
			}
			return response.NewBadRequest("value must be one of: " + strings.Join(schema.Options, ", "))
		}
	case codec.TypeJSON:
		var parsed any
		if err := json.Unmarshal([]byte(serialized), &parsed); err != nil {
			return response.NewBadRequest("value is not valid JSON")
		}
		if schema != nil && len(schema.Required) > 0 {
			obj, ok := parsed.(map[string]any)
			if !ok {
				return response.NewBadRequest("value must be a JSON object")
			}
			for _, key := range schema.Required {
				if _, present := obj[key]; !present {
					return response.NewBadRequest("missing required JSON key: " + key)
				}
			}
		}
	default: // STRING
		if schema != nil {
			length := utf8.RuneCountInString(serialized)
			if schema.MinLength != nil && length < *schema.MinLength {
				return response.NewBadRequest(fmt.Sprintf("value must be at least %d characters", *schema.MinLength))
			}
			if schema.MaxLength != nil && length > *schema.MaxLength {
				return response.NewBadRequest(fmt.Sprintf("value must be at most %d characters", *schema.MaxLength))
			}
			if schema.Pattern != "" {
				re, err := regexp.Compile(schema.Pattern)
				if err != nil {
					return response.NewBadRequest("validation pattern is not a valid regular expression")
				}
				if !re.MatchString(serialized) {
					return response.NewBadRequest("value does not match required pattern")
				}
			}
		}
	}
	return nil
}
