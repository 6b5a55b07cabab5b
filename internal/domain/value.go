package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the scalar types an attribute-bag value may hold.
type ValueKind string

const (
	ValueText   ValueKind = "text"
	ValueNumber ValueKind = "number"
)

// Value is the tagged union stored in a record's attribute bag.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// TextValue builds a text Value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// NumberValue builds a numeric Value.
func NumberValue(n float64) Value {
	return Value{Kind: ValueNumber, Number: n}
}

// String renders the value the way it was submitted.
func (v Value) String() string {
	if v.Kind == ValueNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// MarshalJSON serialises the value as a bare scalar, so the persisted
// attribute bag reads as plain {"name": "x", "count": 3}.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON restores the tagged union from a bare scalar. Unknown shapes
// (objects, arrays, booleans) are preserved as text rather than rejected:
// bags written under schemas that no longer exist must stay readable.
func (v *Value) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = NumberValue(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*v = TextValue(str)
		return nil
	}
	*v = TextValue(string(data))
	return nil
}

// AttributeBag maps field internal names to scalar values. Keys may reference
// fields that have since been removed from the unit's schema; readers must
// tolerate them.
type AttributeBag map[string]Value

// Get returns the value for a key and whether it is present.
func (b AttributeBag) Get(key string) (Value, bool) {
	v, ok := b[key]
	return v, ok
}

// Clone returns a shallow copy of the bag.
func (b AttributeBag) Clone() AttributeBag {
	if b == nil {
		return nil
	}
	out := make(AttributeBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (b AttributeBag) String() string {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf("%v", map[string]Value(b))
	}
	return string(data)
}
