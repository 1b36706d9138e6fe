package lang

import (
	"bytes"
	"iter"
	"slices"
)

// Document is the ordered key/value result of a parse.
//
// Keys keep their first insertion position; setting an existing key replaces
// its value in place. The zero Document is empty and ready to use.
type Document struct {
	keys   []string
	values map[string]Value
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

// Set binds key to v, appending key if it is new.
func (d *Document) Set(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}

	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.values[key] = v
}

// Get returns the value bound to key.
func (d *Document) Get(key string) (Value, bool) {
	v, ok := d.values[key]

	return v, ok
}

// Len returns the number of keys in d.
func (d *Document) Len() int { return len(d.keys) }

// Keys returns the keys of d in document order.
func (d *Document) Keys() []string { return slices.Clone(d.keys) }

// All returns an iterator over the entries of d in document order.
func (d *Document) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, key := range d.keys {
			if !yield(key, d.values[key]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{
		keys:   slices.Clone(d.keys),
		values: make(map[string]Value, len(d.values)),
	}

	for key, v := range d.values {
		c.values[key] = v.Clone()
	}

	return c
}

// Equal reports whether d and o hold equal values under the same keys in
// the same order.
func (d *Document) Equal(o *Document) bool {
	if !slices.Equal(d.keys, o.keys) {
		return false
	}

	for _, key := range d.keys {
		if !d.values[key].Equal(o.values[key]) {
			return false
		}
	}

	return true
}

// ToMap converts d to an unordered native Go map.
func (d *Document) ToMap() map[string]any {
	result := make(map[string]any, len(d.keys))

	for key, v := range d.All() {
		result[key] = v.Native()
	}

	return result
}

// MarshalJSON implements json.Marshaler, preserving document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := appendJSONString(&buf, key); err != nil {
			return nil, err
		}

		buf.WriteByte(':')

		if err := d.values[key].appendJSON(&buf); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
