package survey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Kind tags the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindRecord
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one key/value pair of a record value.
type Field struct {
	Key   string
	Value Value
}

// Value is a loosely-typed survey answer. The zero Value is null.
// Consumers must branch on Kind; only the accessor matching the kind
// returns meaningful data.
type Value struct {
	kind   Kind
	str    string
	num    float64
	b      bool
	items  []Value
	fields []Field
	raw    string // compact JSON of a parsed record
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a sequence value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Record returns a structured value with fields in the given order.
func Record(fields ...Field) Value {
	if fields == nil {
		fields = []Field{}
	}
	return Value{kind: KindRecord, fields: fields}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean payload.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns the elements of a list value, or nil.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Fields returns the fields of a record value in source order, or nil.
func (v Value) Fields() []Field {
	if v.kind != KindRecord {
		return nil
	}
	return v.fields
}

// Get returns the record field with the given key.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.Fields() {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON encodes the value, keeping record field order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if !v.Finite() {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindRecord:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			b, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %v", v.kind)
	}
}

// Finite reports whether v holds no NaN or infinite number, including
// inside lists and records. JSON numbers beyond float64 range parse as
// infinities.
func (v Value) Finite() bool {
	switch v.kind {
	case KindNumber:
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case KindList:
		for _, item := range v.items {
			if !item.Finite() {
				return false
			}
		}
	case KindRecord:
		for _, f := range v.fields {
			if !f.Value.Finite() {
				return false
			}
		}
	}
	return true
}

// UnmarshalJSON decodes any JSON document into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON value")
	}
	*v = fromResult(gjson.ParseBytes(data))
	return nil
}

// compactJSON returns the record or list as compact JSON text.
func (v Value) compactJSON() string {
	if v.kind == KindRecord && v.raw != "" {
		return v.raw
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(r.Num)
	case gjson.String:
		return String(r.Str)
	}

	if r.IsArray() {
		items := []Value{}
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromResult(item))
			return true
		})
		return List(items...)
	}

	if r.IsObject() {
		fields := []Field{}
		r.ForEach(func(key, item gjson.Result) bool {
			fields = append(fields, Field{Key: key.String(), Value: fromResult(item)})
			return true
		})
		rec := Record(fields...)
		rec.raw = string(pretty.Ugly([]byte(r.Raw)))
		return rec
	}

	return Null()
}
