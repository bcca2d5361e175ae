package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindStructured
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindList:
		return "list"
	default:
		return "scalar"
	}
}

// Value is a parameter value: a scalar (string, number, bool or null), a
// structured value (an ordered object) or a list of values. The zero Value
// is the null scalar.
type Value struct {
	kind   Kind
	scalar any
	object *Object
	list   []Value
}

// Scalar wraps a string, bool, number or nil.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

func String(s string) Value {
	return Scalar(s)
}

func Structured(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindStructured, object: o}
}

func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// FromAny converts plain Go data (as produced by encoding/json or yaml into
// interface{}) to a Value. Map keys are sorted.
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case *Object:
		return Structured(t)
	case map[string]any:
		return Structured(objectFromMap(t))
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return Structured(objectFromMap(m))
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return List(items...)
	case []Value:
		return List(t...)
	default:
		return Scalar(t)
	}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// Object returns the structured payload, or nil for other kinds.
func (v Value) Object() *Object {
	if v.kind != KindStructured {
		return nil
	}
	return v.object
}

// List returns the list items, or nil for other kinds.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

func (v Value) ScalarValue() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// String renders the value for substitution into text. Scalars render
// naturally (null as the empty string); structured and list values render as
// compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindStructured, KindList:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}

	switch s := v.scalar.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// Identity is the text a value contributes to a derived prompt id: the "id"
// field of a structured value that has one, else String().
func (v Value) Identity() string {
	if v.kind == KindStructured {
		if id, ok := v.object.Get("id"); ok {
			return id.String()
		}
	}
	return v.String()
}

// Interface converts the value to plain Go data.
func (v Value) Interface() any {
	switch v.kind {
	case KindStructured:
		return v.object.Interface()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return v.scalar
	}
}

func (v Value) clone() Value {
	switch v.kind {
	case KindStructured:
		return Structured(v.object.Clone())
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.clone()
		}
		return List(items...)
	default:
		return v
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindStructured:
		return v.object.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v.scalar)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := valueFromNode(node)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// decodeValue reads one JSON value from the token stream, keeping object
// key order.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("prompt: unexpected object key %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				o.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Structured(o), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return List(items...), nil
		default:
			return Value{}, fmt.Errorf("prompt: unexpected delimiter %q", t)
		}
	default:
		return Scalar(t), nil
	}
}

func valueFromNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Value{}, nil
		}
		return valueFromNode(node.Content[0])
	case yaml.AliasNode:
		return valueFromNode(node.Alias)
	case yaml.MappingNode:
		o := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("prompt: line %d: mapping key must be a scalar", keyNode.Line)
			}
			item, err := valueFromNode(valNode)
			if err != nil {
				return Value{}, err
			}
			o.Set(keyNode.Value, item)
		}
		return Structured(o), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := valueFromNode(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	default:
		var scalar any
		if err := node.Decode(&scalar); err != nil {
			return Value{}, fmt.Errorf("prompt: line %d: %w", node.Line, err)
		}
		return Scalar(scalar), nil
	}
}
