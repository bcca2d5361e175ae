package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Object is a string-keyed map that remembers insertion order. Parameter
// lookups walk nested objects in that order.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// ObjectOf builds an object from alternating key/value pairs.
func ObjectOf(pairs ...any) *Object {
	if len(pairs)%2 != 0 {
		panic("prompt.ObjectOf: odd number of arguments")
	}
	o := NewObject()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("prompt.ObjectOf: key %v is not a string", pairs[i]))
		}
		o.Set(key, FromAny(pairs[i+1]))
	}
	return o
}

// Set stores v under key. Existing keys keep their position.
func (o *Object) Set(key string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o *Object) Delete(key string) {
	if !o.Has(key) {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	out := NewObject()
	o.Range(func(k string, v Value) bool {
		out.Set(k, v.clone())
		return true
	})
	return out
}

// Merge copies every entry of other into o, overwriting existing keys.
func (o *Object) Merge(other *Object) {
	other.Range(func(k string, v Value) bool {
		o.Set(k, v)
		return true
	})
}

// Interface converts the object to plain Go values.
func (o *Object) Interface() map[string]any {
	out := make(map[string]any, o.Len())
	o.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	o.Range(func(k string, v Value) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var key, val []byte
		if key, err = json.Marshal(k); err != nil {
			return false
		}
		if val, err = v.MarshalJSON(); err != nil {
			return false
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if v.Kind() != KindStructured {
		return fmt.Errorf("prompt: expected JSON object, got %s", v.Kind())
	}
	*o = *v.object
	return nil
}

func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	v, err := valueFromNode(node)
	if err != nil {
		return err
	}
	if v.Kind() != KindStructured {
		return fmt.Errorf("prompt: line %d: expected mapping", node.Line)
	}
	*o = *v.object
	return nil
}

// objectFromMap builds an object from a Go map with keys sorted, since maps
// carry no order of their own.
func objectFromMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	o := NewObject()
	for _, k := range keys {
		o.Set(k, FromAny(m[k]))
	}
	return o
}
