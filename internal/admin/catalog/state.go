package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Upload is a newly selected image file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (u *Upload) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}

// ProductFormState is the editable, fully normalized form of a product.
type ProductFormState struct {
	Name            Multilang
	Brand           Multilang
	Description     Multilang
	Type            Multilang
	Price           string
	OldPrice        string
	InStock         bool
	Characteristics Characteristics
	CategorieIDs    []int64
	Images          []*Upload
}

// Record is a product as returned by the catalog backend. Every field keeps its
// raw shape; unknown fields are preserved in Extra.
type Record struct {
	ID              Value
	Name            Value
	Brand           Value
	Description     Value
	Type            Value
	Price           Value
	OldPrice        Value
	InStock         Value
	Characteristics Value
	CategorieIDs    Value
	Images          Value
	Extra           map[string]json.RawMessage
}

var recordKeys = []string{
	"id", "name", "brand", "description", "type", "price", "oldPrice",
	"inStock", "characteristics", "categorieIds", "images",
}

func (r *Record) field(key string) *Value {
	switch key {
	case "id":
		return &r.ID
	case "name":
		return &r.Name
	case "brand":
		return &r.Brand
	case "description":
		return &r.Description
	case "type":
		return &r.Type
	case "price":
		return &r.Price
	case "oldPrice":
		return &r.OldPrice
	case "inStock":
		return &r.InStock
	case "characteristics":
		return &r.Characteristics
	case "categorieIds":
		return &r.CategorieIDs
	case "images":
		return &r.Images
	}
	return nil
}

// UnmarshalJSON decodes a backend product object.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Record{}
	for key, raw := range fields {
		if dst := r.field(key); dst != nil {
			*dst = FromJSON(raw)
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = raw
	}
	return nil
}

// MarshalJSON writes known fields in a stable order followed by extra fields
// sorted by key. Absent fields are omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, raw []byte) error {
		encodedKey, err := marshalNoEscape(key)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}
	for _, key := range recordKeys {
		v := r.field(key)
		if v.IsAbsent() {
			continue
		}
		if err := write(key, v.Raw()); err != nil {
			return nil, err
		}
	}
	extraKeys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		if err := write(key, r.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IDString renders the record identifier as text.
func (r Record) IDString() string { return Text(r.ID) }

// ImagePaths returns the stored image paths of the record.
func (r Record) ImagePaths() []string { return NormalizeStringList(r.Images) }

// EmptyState returns the blank form state of s.
func (s *Schema) EmptyState() ProductFormState {
	return ProductFormState{
		Price:           "",
		OldPrice:        "",
		InStock:         true,
		Characteristics: s.EmptyCharacteristics(),
		CategorieIDs:    []int64{},
		Images:          []*Upload{},
	}
}

// BuildInitialState turns an optional backend record into a complete form
// state. It never fails: malformed fields fall back to their defaults.
func (s *Schema) BuildInitialState(seed *Record) ProductFormState {
	state := s.EmptyState()
	if seed == nil {
		return state
	}
	state.Name = NormalizeMultilang(seed.Name, state.Name)
	state.Brand = NormalizeMultilang(seed.Brand, state.Brand)
	state.Description = NormalizeMultilang(seed.Description, state.Description)
	state.Type = NormalizeMultilang(seed.Type, state.Type)
	state.Price = lenientNumberText(seed.Price)
	state.OldPrice = lenientNumberText(seed.OldPrice)
	state.InStock = NormalizeBool(seed.InStock, true)
	state.CategorieIDs = NormalizeIntegerList(seed.CategorieIDs)
	state.Characteristics = s.NormalizeCharacteristics(seed.Characteristics)
	return state
}

// EmptyState returns the blank form state of the default schema.
func EmptyState() ProductFormState {
	return DefaultSchema().EmptyState()
}

// BuildInitialState builds a form state against the default schema.
func BuildInitialState(seed *Record) ProductFormState {
	return DefaultSchema().BuildInitialState(seed)
}

// Record converts the state back into a record carrying the same field values.
func (p ProductFormState) Record() *Record {
	ids := p.CategorieIDs
	if ids == nil {
		ids = []int64{}
	}
	return &Record{
		Name:            FromAny(p.Name),
		Brand:           FromAny(p.Brand),
		Description:     FromAny(p.Description),
		Type:            FromAny(p.Type),
		Price:           FromString(p.Price),
		OldPrice:        FromString(p.OldPrice),
		InStock:         FromAny(p.InStock),
		Characteristics: FromAny(p.Characteristics),
		CategorieIDs:    FromAny(ids),
	}
}

// Clone returns a deep copy of the state. Upload contents are shared.
func (p ProductFormState) Clone() ProductFormState {
	out := p
	out.Characteristics = p.Characteristics.Clone()
	if p.CategorieIDs != nil {
		out.CategorieIDs = append([]int64{}, p.CategorieIDs...)
	}
	if p.Images != nil {
		out.Images = append([]*Upload{}, p.Images...)
	}
	return out
}
