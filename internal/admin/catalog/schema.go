package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchemaYAML []byte

// ErrInvalidSchema is returned when a characteristic schema fails validation.
var ErrInvalidSchema = errors.New("catalog: invalid characteristic schema")

// SchemaEntry describes one characteristic. RU and RO are the labels used as
// keys of the Russian and Romanian characteristic sets.
type SchemaEntry struct {
	ID string `yaml:"id"`
	RU string `yaml:"ru"`
	RO string `yaml:"ro"`
}

// Label returns the key used for lang.
func (e SchemaEntry) Label(lang Lang) string {
	if lang == LangRO {
		return e.RO
	}
	return e.RU
}

// Schema is the fixed, ordered list of characteristics every product carries.
// Both language key lists are projections of the same entries, so the i-th
// Russian key and the i-th Romanian key always describe the same attribute.
type Schema struct {
	entries []SchemaEntry
}

// SchemaValidationError lists every problem found in a schema definition.
type SchemaValidationError struct {
	Problems []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSchema.Error(), strings.Join(e.Problems, "; "))
}

func (e *SchemaValidationError) Unwrap() error { return ErrInvalidSchema }

// NewSchema validates entries and builds a schema. IDs and labels must be
// non-empty, and no ID or per-language label may repeat.
func NewSchema(entries ...SchemaEntry) (*Schema, error) {
	var problems []string
	if len(entries) == 0 {
		problems = append(problems, "no characteristics defined")
	}
	ids := make(map[string]int, len(entries))
	ru := make(map[string]int, len(entries))
	ro := make(map[string]int, len(entries))
	cleaned := make([]SchemaEntry, 0, len(entries))
	for i, entry := range entries {
		entry = SchemaEntry{
			ID: strings.TrimSpace(entry.ID),
			RU: strings.TrimSpace(entry.RU),
			RO: strings.TrimSpace(entry.RO),
		}
		if entry.ID == "" {
			problems = append(problems, fmt.Sprintf("entry %d: id is required", i))
		} else if prev, dup := ids[entry.ID]; dup {
			problems = append(problems, fmt.Sprintf("entry %d: id %q already used by entry %d", i, entry.ID, prev))
		} else {
			ids[entry.ID] = i
		}
		if entry.RU == "" {
			problems = append(problems, fmt.Sprintf("entry %d: ru label is required", i))
		} else if prev, dup := ru[entry.RU]; dup {
			problems = append(problems, fmt.Sprintf("entry %d: ru label %q already used by entry %d", i, entry.RU, prev))
		} else {
			ru[entry.RU] = i
		}
		if entry.RO == "" {
			problems = append(problems, fmt.Sprintf("entry %d: ro label is required", i))
		} else if prev, dup := ro[entry.RO]; dup {
			problems = append(problems, fmt.Sprintf("entry %d: ro label %q already used by entry %d", i, entry.RO, prev))
		} else {
			ro[entry.RO] = i
		}
		cleaned = append(cleaned, entry)
	}
	if len(problems) > 0 {
		return nil, &SchemaValidationError{Problems: problems}
	}
	return &Schema{entries: cleaned}, nil
}

type schemaFile struct {
	Characteristics []SchemaEntry `yaml:"characteristics"`
}

// LoadSchema decodes a YAML schema definition.
func LoadSchema(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file schemaFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return NewSchema()
		}
		return nil, fmt.Errorf("catalog: decode schema: %w", err)
	}
	return NewSchema(file.Characteristics...)
}

var defaultSchema = sync.OnceValue(func() *Schema {
	schema, err := LoadSchema(bytes.NewReader(defaultSchemaYAML))
	if err != nil {
		panic(err)
	}
	return schema
})

// DefaultSchema returns the embedded product characteristic schema.
func DefaultSchema() *Schema {
	return defaultSchema()
}

// Entries returns a copy of the schema entries in order.
func (s *Schema) Entries() []SchemaEntry {
	out := make([]SchemaEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports the number of characteristics.
func (s *Schema) Len() int { return len(s.entries) }

// Keys returns the ordered key list of lang.
func (s *Schema) Keys(lang Lang) []string {
	keys := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		keys = append(keys, entry.Label(lang))
	}
	return keys
}

// EmptyCharacteristics maps every schema key of both languages to "".
func (s *Schema) EmptyCharacteristics() Characteristics {
	out := Characteristics{
		RU: make(CharacteristicSet, 0, len(s.entries)),
		RO: make(CharacteristicSet, 0, len(s.entries)),
	}
	for _, entry := range s.entries {
		out.RU = append(out.RU, Characteristic{Key: entry.RU})
		out.RO = append(out.RO, Characteristic{Key: entry.RO})
	}
	return out
}

// NormalizeCharacteristics overlays the per-language entries of source onto
// the empty schema mapping. Every schema key is present in the result, source
// values win, keys outside the schema are kept after the schema keys and null
// values become "". An absent, null or unparseable source yields the empty mapping.
func (s *Schema) NormalizeCharacteristics(source Value) Characteristics {
	base := s.EmptyCharacteristics()
	parsed, ok := parseMaybeObject(source)
	if !ok || parsed.Kind() != KindObject {
		return base
	}
	members, ok := objectMembers(parsed.Raw())
	if !ok {
		return base
	}
	ru, _ := lookup(members, string(LangRU))
	ro, _ := lookup(members, string(LangRO))
	return Characteristics{
		RU: overlay(base.RU, ru),
		RO: overlay(base.RO, ro),
	}
}

// EmptyCharacteristics is DefaultSchema().EmptyCharacteristics().
func EmptyCharacteristics() Characteristics {
	return DefaultSchema().EmptyCharacteristics()
}

// NormalizeCharacteristics is DefaultSchema().NormalizeCharacteristics(source).
func NormalizeCharacteristics(source Value) Characteristics {
	return DefaultSchema().NormalizeCharacteristics(source)
}
