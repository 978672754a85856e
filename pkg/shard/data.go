package shard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Data value.
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Data is the opaque payload stored, versioned and displayed by a shard.
// It is a tagged union over the JSON value space. The zero value is null.
//
// Data values are treated as immutable by the engine: Clone produces an
// independent copy and every version snapshot is taken through Clone.
//
// Numbers decoded from JSON keep their literal text, so integers beyond
// float64 precision survive a round trip; Num still reports the nearest
// float64.
type Data struct {
	kind   Kind
	str    string
	num    float64
	lit    string // JSON literal of a decoded number
	boolv  bool
	items  []Data
	fields map[string]Data
}

// Null returns the null value.
func Null() Data { return Data{kind: KindNull} }

// String wraps a text payload.
func String(s string) Data { return Data{kind: KindString, str: s} }

// Number wraps a numeric payload.
func Number(n float64) Data { return Data{kind: KindNumber, num: n} }

// Bool wraps a boolean payload.
func Bool(b bool) Data { return Data{kind: KindBool, boolv: b} }

// Array wraps an ordered list of values. The slice is copied.
func Array(items ...Data) Data {
	cp := make([]Data, len(items))
	copy(cp, items)
	return Data{kind: KindArray, items: cp}
}

// Object wraps a key/value document. The map is copied.
func Object(fields map[string]Data) Data {
	cp := make(map[string]Data, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Data{kind: KindObject, fields: cp}
}

// Kind returns the variant tag.
func (d Data) Kind() Kind {
	if d.kind == "" {
		return KindNull
	}
	return d.kind
}

// IsNull reports whether d holds no value.
func (d Data) IsNull() bool { return d.Kind() == KindNull }

// Str returns the text payload and whether d is a string.
func (d Data) Str() (string, bool) { return d.str, d.kind == KindString }

// Num returns the numeric payload and whether d is a number.
func (d Data) Num() (float64, bool) { return d.num, d.kind == KindNumber }

// Boolean returns the boolean payload and whether d is a bool.
func (d Data) Boolean() (bool, bool) { return d.boolv, d.kind == KindBool }

// Len returns the element count of an array or object, zero otherwise.
func (d Data) Len() int {
	switch d.kind {
	case KindArray:
		return len(d.items)
	case KindObject:
		return len(d.fields)
	}
	return 0
}

// Index returns the i-th array element.
func (d Data) Index(i int) (Data, bool) {
	if d.kind != KindArray || i < 0 || i >= len(d.items) {
		return Data{}, false
	}
	return d.items[i], true
}

// Field returns the value stored under key in an object.
func (d Data) Field(key string) (Data, bool) {
	if d.kind != KindObject {
		return Data{}, false
	}
	v, ok := d.fields[key]
	return v, ok
}

// Keys returns the object's keys in sorted order.
func (d Data) Keys() []string {
	if d.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(d.fields))
	for k := range d.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of an object with key set to v. Non-object values
// are replaced by a single-field object.
func (d Data) With(key string, v Data) Data {
	out := Data{kind: KindObject, fields: map[string]Data{}}
	if d.kind == KindObject {
		for k, fv := range d.fields {
			out.fields[k] = fv.Clone()
		}
	}
	out.fields[key] = v.Clone()
	return out
}

// Clone returns a deep copy of d. Mutating containers reachable from the
// result never affects d.
func (d Data) Clone() Data {
	switch d.kind {
	case KindArray:
		items := make([]Data, len(d.items))
		for i, it := range d.items {
			items[i] = it.Clone()
		}
		return Data{kind: KindArray, items: items}
	case KindObject:
		fields := make(map[string]Data, len(d.fields))
		for k, v := range d.fields {
			fields[k] = v.Clone()
		}
		return Data{kind: KindObject, fields: fields}
	default:
		return d
	}
}

// Equal reports structural equality.
func (d Data) Equal(o Data) bool {
	if d.Kind() != o.Kind() {
		return false
	}
	switch d.Kind() {
	case KindNull:
		return true
	case KindString:
		return d.str == o.str
	case KindNumber:
		if d.lit != "" && o.lit != "" {
			return literalsEqual(d.lit, o.lit)
		}
		return d.num == o.num
	case KindBool:
		return d.boolv == o.boolv
	case KindArray:
		if len(d.items) != len(o.items) {
			return false
		}
		for i := range d.items {
			if !d.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(d.fields) != len(o.fields) {
			return false
		}
		for k, v := range d.fields {
			ov, ok := o.fields[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes d as plain JSON.
func (d Data) MarshalJSON() ([]byte, error) {
	switch d.Kind() {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(d.str)
	case KindNumber:
		if d.lit != "" {
			return []byte(d.lit), nil
		}
		return json.Marshal(d.num)
	case KindBool:
		return json.Marshal(d.boolv)
	case KindArray:
		if d.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.items)
	case KindObject:
		if d.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(d.fields)
	}
	return nil, fmt.Errorf("unknown data kind %q", d.kind)
}

// UnmarshalJSON decodes any JSON value into d.
func (d *Data) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v, err := fromAny(raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// FromJSON decodes a JSON document into Data.
func FromJSON(b []byte) (Data, error) {
	var d Data
	if err := d.UnmarshalJSON(b); err != nil {
		return Data{}, err
	}
	return d, nil
}

// ParseLoose interprets text as JSON when it parses, and as a plain string
// otherwise.
func ParseLoose(text string) Data {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return String(text)
	}
	if d, err := FromJSON([]byte(trimmed)); err == nil {
		return d
	}
	return String(text)
}

// Text renders d for prompts and previews: strings verbatim, everything
// else as indented JSON.
func (d Data) Text() string {
	if s, ok := d.Str(); ok {
		return s
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// literalsEqual compares two JSON number literals exactly.
func literalsEqual(a, b string) bool {
	if a == b {
		return true
	}
	x, okx := new(big.Rat).SetString(a)
	y, oky := new(big.Rat).SetString(b)
	if !okx || !oky {
		return false
	}
	return x.Cmp(y) == 0
}

func fromAny(v any) (Data, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return Data{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		n := Number(f)
		n.lit = t.String()
		return n, nil
	case float64:
		return Number(t), nil
	case []any:
		items := make([]Data, len(t))
		for i, it := range t {
			d, err := fromAny(it)
			if err != nil {
				return Data{}, err
			}
			items[i] = d
		}
		return Data{kind: KindArray, items: items}, nil
	case map[string]any:
		fields := make(map[string]Data, len(t))
		for k, it := range t {
			d, err := fromAny(it)
			if err != nil {
				return Data{}, err
			}
			fields[k] = d
		}
		return Data{kind: KindObject, fields: fields}, nil
	}
	return Data{}, fmt.Errorf("unsupported JSON value of type %T", v)
}
