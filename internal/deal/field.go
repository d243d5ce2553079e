package deal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a loosely-typed numeric input as typed into a form: it may hold a
// number, numeric text, an empty string or anything else. Interpretation is
// deferred to Normalize.
type Field string

// F builds a Field from a number. Handy for callers assembling inputs in code.
func F(v float64) Field {
	return Field(strconv.FormatFloat(v, 'f', -1, 64))
}

// UnmarshalJSON accepts JSON numbers, strings, booleans and null.
func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		// Structured values are not numbers; keep the record decodable.
		*f = ""
		return nil
	}
	*f = Field(trimmed)
	return nil
}

// UnmarshalYAML keeps the scalar text of the node.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = Field(value.Value)
	return nil
}

// FieldFrom converts a decoded scalar, as produced by a generic YAML or JSON
// decoder, into a Field. Non-scalar values become empty.
func FieldFrom(value interface{}) Field {
	switch v := value.(type) {
	case string:
		return Field(v)
	case float64:
		return F(v)
	case float32:
		return F(float64(v))
	case int:
		return Field(strconv.Itoa(v))
	case int64:
		return Field(strconv.FormatInt(v, 10))
	case uint64:
		return Field(strconv.FormatUint(v, 10))
	case json.Number:
		return Field(v.String())
	default:
		return ""
	}
}

// Flag is a leniently decoded boolean selector.
type Flag bool

// UnmarshalJSON accepts booleans, numeric values and boolean-like strings.
func (b *Flag) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*b = false
		return nil
	}
	*b = Flag(coerceBool(raw))
	return nil
}

// UnmarshalYAML accepts the same spellings as UnmarshalJSON.
func (b *Flag) UnmarshalYAML(value *yaml.Node) error {
	*b = Flag(coerceBool(value.Value))
	return nil
}

// FlagFrom converts a decoded scalar into a Flag using the same spellings as
// UnmarshalJSON.
func FlagFrom(value interface{}) Flag {
	return Flag(coerceBool(value))
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		switch strings.ToLower(trimmed) {
		case "yes", "y", "on":
			return true
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
