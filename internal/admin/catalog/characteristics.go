package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Characteristic is one labelled attribute value.
type Characteristic struct {
	Key   string
	Value string
}

// CharacteristicSet is an ordered key to value mapping. Keys are unique.
type CharacteristicSet []Characteristic

// Get returns the value stored under key.
func (s CharacteristicSet) Get(key string) (string, bool) {
	for _, c := range s {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Set overwrites the value under key in place, or appends a new entry.
func (s *CharacteristicSet) Set(key, value string) {
	for i := range *s {
		if (*s)[i].Key == key {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, Characteristic{Key: key, Value: value})
}

// Keys lists keys in order.
func (s CharacteristicSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, c := range s {
		keys = append(keys, c.Key)
	}
	return keys
}

// Filled returns the entries with a non-blank value.
func (s CharacteristicSet) Filled() CharacteristicSet {
	out := CharacteristicSet{}
	for _, c := range s {
		if strings.TrimSpace(c.Value) != "" {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns an independent copy.
func (s CharacteristicSet) Clone() CharacteristicSet {
	out := make(CharacteristicSet, len(s))
	copy(out, s)
	return out
}

func (s CharacteristicSet) trimmed() CharacteristicSet {
	out := make(CharacteristicSet, len(s))
	for i, c := range s {
		out[i] = Characteristic{Key: c.Key, Value: strings.TrimSpace(c.Value)}
	}
	return out
}

// MarshalJSON writes an object preserving entry order.
func (s CharacteristicSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(c.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshalNoEscape(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object in document order. Null values become empty
// strings and other scalars are stringified.
func (s *CharacteristicSet) UnmarshalJSON(data []byte) error {
	v := FromJSON(data)
	switch v.Kind() {
	case KindNull:
		*s = CharacteristicSet{}
		return nil
	case KindObject:
	default:
		return errors.New("catalog: characteristics must be a JSON object")
	}
	members, ok := objectMembers(v.Raw())
	if !ok {
		return errors.New("catalog: malformed characteristics object")
	}
	out := CharacteristicSet{}
	for _, m := range members {
		out.Set(m.key, characteristicText(m.value))
	}
	*s = out
	return nil
}

// Characteristics holds one characteristic set per content language.
type Characteristics struct {
	RU CharacteristicSet `json:"ru"`
	RO CharacteristicSet `json:"ro"`
}

// Get returns the set for lang. Unknown languages resolve to Russian.
func (c Characteristics) Get(lang Lang) CharacteristicSet {
	if lang == LangRO {
		return c.RO
	}
	return c.RU
}

// Set stores value under key for lang.
func (c *Characteristics) Set(lang Lang, key, value string) {
	if lang == LangRO {
		c.RO.Set(key, value)
		return
	}
	c.RU.Set(key, value)
}

// Clone returns an independent copy.
func (c Characteristics) Clone() Characteristics {
	return Characteristics{RU: c.RU.Clone(), RO: c.RO.Clone()}
}

func characteristicText(v Value) string {
	switch v.Kind() {
	case KindAbsent, KindNull:
		return ""
	case KindObject, KindArray:
		return string(v.Raw())
	}
	text, _ := scalarText(v)
	return text
}

// overlay merges the members of a language object onto base. Keys unknown to
// base are appended in source order.
func overlay(base CharacteristicSet, source Value) CharacteristicSet {
	out := base.Clone()
	if source.Kind() != KindObject {
		return out
	}
	members, ok := objectMembers(source.Raw())
	if !ok {
		return out
	}
	for _, m := range members {
		out.Set(m.key, characteristicText(m.value))
	}
	return out
}

// MarshalJSON encodes without HTML escaping.
func (c Characteristics) MarshalJSON() ([]byte, error) {
	type plain Characteristics
	ru := c.RU
	if ru == nil {
		ru = CharacteristicSet{}
	}
	ro := c.RO
	if ro == nil {
		ro = CharacteristicSet{}
	}
	return marshalNoEscape(plain{RU: ru, RO: ro})
}

var (
	_ json.Marshaler   = CharacteristicSet(nil)
	_ json.Unmarshaler = (*CharacteristicSet)(nil)
	_ json.Marshaler   = Characteristics{}
)
