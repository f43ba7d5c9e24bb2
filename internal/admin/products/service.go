package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

var (
	// ErrNotConfigured indicates that the products service dependency has not been wired.
	ErrNotConfigured = errors.New("products service not configured")
	// ErrProductNotFound is returned when the backend has no product with the requested id.
	ErrProductNotFound = errors.New("products: product not found")
)

// Service exposes the catalog backend operations used by the admin console.
type Service interface {
	// List fetches a single page of products.
	List(ctx context.Context, token string, page, limit int) (ListEnvelope, error)
	// ListAll walks every page and returns the combined product list.
	ListAll(ctx context.Context, token string) (ListEnvelope, error)
	// Get fetches one product by id.
	Get(ctx context.Context, token, id string) (*catalog.Record, error)
	// Create submits a new product as multipart form data.
	Create(ctx context.Context, token string, payload *catalog.Payload) (*catalog.Record, error)
	// Update replaces an existing product. multipart selects the body encoding.
	Update(ctx context.Context, token, id string, payload *catalog.Payload, multipart bool) (*catalog.Record, error)
	// Delete removes a product.
	Delete(ctx context.Context, token, id string) (bool, error)
}

// ListEnvelope is a product list response. Pagination metadata is optional;
// fields the backend adds beyond the known ones are kept in Extra.
type ListEnvelope struct {
	Items      []catalog.Record
	Total      *int
	Limit      *int
	TotalPages *int
	Page       *int
	Extra      map[string]json.RawMessage
}

var envelopeKeys = map[string]bool{
	"items": true, "total": true, "limit": true, "totalPages": true, "page": true,
}

// UnmarshalJSON decodes an envelope, tolerating missing metadata. Metadata
// that is not a number is treated as missing.
func (e *ListEnvelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = ListEnvelope{Items: []catalog.Record{}}
	if raw, ok := fields["items"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &e.Items); err != nil {
			return err
		}
		if e.Items == nil {
			e.Items = []catalog.Record{}
		}
	}
	e.Total = intField(fields, "total")
	e.Limit = intField(fields, "limit")
	e.TotalPages = intField(fields, "totalPages")
	e.Page = intField(fields, "page")
	for key, raw := range fields {
		if envelopeKeys[key] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[key] = raw
	}
	return nil
}

// MarshalJSON writes items, present metadata, and extra fields.
func (e ListEnvelope) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.Extra)+5)
	for key, raw := range e.Extra {
		fields[key] = raw
	}
	items := e.Items
	if items == nil {
		items = []catalog.Record{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	fields["items"] = encoded
	for key, value := range map[string]*int{
		"total": e.Total, "limit": e.Limit, "totalPages": e.TotalPages, "page": e.Page,
	} {
		if value == nil {
			continue
		}
		encoded, err := json.Marshal(*value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, _ := json.Marshal(key)
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func intField(fields map[string]json.RawMessage, key string) *int {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	n := int(f)
	if float64(n) != f {
		return nil
	}
	return &n
}

func intPtr(n int) *int { return &n }
