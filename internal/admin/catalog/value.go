package catalog

import (
	"bytes"
	"encoding/json"
	"io"
)

// Kind identifies the JSON shape carried by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

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
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "absent"
	}
}

// Value is a raw field value as received from the catalog backend. The zero
// Value is absent, which is distinct from an explicit JSON null.
type Value struct {
	raw json.RawMessage
}

// FromJSON wraps raw JSON text. Invalid or empty input yields an absent value.
func FromJSON(raw []byte) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Value{}
	}
	cp := make(json.RawMessage, len(trimmed))
	copy(cp, trimmed)
	return Value{raw: cp}
}

// FromString wraps s as a JSON string value.
func FromString(s string) Value {
	data, err := marshalNoEscape(s)
	if err != nil {
		return Value{}
	}
	return Value{raw: data}
}

// FromAny marshals v and wraps the result. Unmarshalable input yields an absent value.
func FromAny(v any) Value {
	data, err := marshalNoEscape(v)
	if err != nil {
		return Value{}
	}
	return FromJSON(data)
}

// Null returns an explicit JSON null.
func Null() Value {
	return Value{raw: json.RawMessage("null")}
}

// Kind reports the JSON shape of the value.
func (v Value) Kind() Kind {
	if len(v.raw) == 0 {
		return KindAbsent
	}
	switch v.raw[0] {
	case 'n':
		return KindNull
	case 't', 'f':
		return KindBool
	case '"':
		return KindString
	case '{':
		return KindObject
	case '[':
		return KindArray
	default:
		return KindNumber
	}
}

// IsAbsent reports whether the value was never supplied.
func (v Value) IsAbsent() bool { return v.Kind() == KindAbsent }

// IsNullish reports whether the value is absent or null.
func (v Value) IsNullish() bool {
	k := v.Kind()
	return k == KindAbsent || k == KindNull
}

// Raw returns the JSON text. Absent values return nil.
func (v Value) Raw() json.RawMessage { return v.raw }

// Str returns the decoded content of a string value.
func (v Value) Str() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Bool returns the content of a boolean value.
func (v Value) Bool() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.raw[0] == 't', true
}

// MarshalJSON renders absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// UnmarshalJSON stores a copy of the raw JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = FromJSON(data)
	return nil
}

type member struct {
	key   string
	value Value
}

// objectMembers decodes a JSON object into its members in document order.
func objectMembers(raw json.RawMessage) ([]member, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		members = append(members, member{key: key, value: FromJSON(value)})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, false
	}
	return members, true
}

// lookup returns the last member named key, matching JSON.parse semantics for duplicates.
func lookup(members []member, key string) (Value, bool) {
	found := false
	var out Value
	for _, m := range members {
		if m.key == key {
			out = m.value
			found = true
		}
	}
	return out, found
}

func arrayElements(raw json.RawMessage) ([]Value, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	out := make([]Value, 0, len(elems))
	for _, elem := range elems {
		out = append(out, FromJSON(elem))
	}
	return out, true
}

// parseMaybeObject resolves a value that may arrive either as structured JSON or
// as a string holding JSON text. ok is false when the caller should use its fallback.
func parseMaybeObject(v Value) (Value, bool) {
	switch v.Kind() {
	case KindObject, KindArray:
		return v, true
	case KindString:
		s, _ := v.Str()
		parsed := FromJSON([]byte(s))
		if parsed.IsNullish() {
			return Value{}, false
		}
		return parsed, true
	default:
		return Value{}, false
	}
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
