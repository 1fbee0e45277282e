package survey

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned when a response payload is not a JSON object.
var ErrNotObject = errors.New("survey response must be a JSON object")

// Row is one survey response keyed by field name. Rows are read-only once
// fetched; a key that is present with a null value still counts as present.
type Row map[string]Value

// Has reports whether the field key is present, regardless of its value.
func (r Row) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Get returns the value for field and whether it was present.
func (r Row) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// ParseRow decodes a JSON object into a Row. Record key order inside
// values is preserved.
func ParseRow(data []byte) (Row, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse row: %w", errors.New("invalid JSON"))
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, ErrNotObject
	}

	row := Row{}
	res.ForEach(func(key, value gjson.Result) bool {
		row[key.String()] = fromResult(value)
		return true
	})
	return row, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Row) UnmarshalJSON(data []byte) error {
	row, err := ParseRow(data)
	if err != nil {
		return err
	}
	*r = row
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Value(r))
}
