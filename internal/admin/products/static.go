package products

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

// StaticService keeps products in memory. It decodes submissions the way the
// catalog backend does and is used for local development and tests.
type StaticService struct {
	mu       sync.RWMutex
	order    []string
	records  map[string]catalog.Record
	uploads  map[string]*catalog.Upload
	pageSize int
	maxPages int

	// NewID generates identifiers for created products.
	NewID func() string
}

// NewStaticService constructs a StaticService holding the given records. A nil
// slice seeds a small demo catalog.
func NewStaticService(seed []catalog.Record) *StaticService {
	if seed == nil {
		seed = demoCatalog()
	}
	svc := &StaticService{
		records:  make(map[string]catalog.Record, len(seed)),
		uploads:  make(map[string]*catalog.Upload),
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		NewID:    func() string { return ulid.Make().String() },
	}
	for _, rec := range seed {
		id := rec.IDString()
		if id == "" {
			id = svc.NewID()
			rec.ID = catalog.FromString(id)
		}
		if _, exists := svc.records[id]; !exists {
			svc.order = append(svc.order, id)
		}
		svc.records[id] = rec
	}
	return svc
}

// List returns one page of the stored products with full pagination metadata.
func (s *StaticService) List(ctx context.Context, token string, page, limit int) (ListEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return ListEnvelope{}, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	start := (page - 1) * limit
	items := []catalog.Record{}
	for i := start; i < total && i < start+limit; i++ {
		items = append(items, s.records[s.order[i]])
	}
	return ListEnvelope{
		Items:      items,
		Total:      intPtr(total),
		Limit:      intPtr(limit),
		TotalPages: intPtr((total + limit - 1) / limit),
		Page:       intPtr(page),
	}, nil
}

// ListAll walks every page through AggregatePages.
func (s *StaticService) ListAll(ctx context.Context, token string) (ListEnvelope, error) {
	return AggregatePages(ctx, func(ctx context.Context, page, limit int) (ListEnvelope, error) {
		return s.List(ctx, token, page, limit)
	}, AggregateOptions{PageSize: s.pageSize, MaxPages: s.maxPages})
}

// Get returns the stored product.
func (s *StaticService) Get(ctx context.Context, token, id string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return &rec, nil
}

// Create stores a new product decoded from the payload. Images listed in
// existingImages are carried over and uploaded files are appended.
func (s *StaticService) Create(ctx context.Context, token string, payload *catalog.Payload) (*catalog.Record, error) {
	if payload == nil {
		return nil, fmt.Errorf("products: payload is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.NewID()
	rec := recordFromPayload(payload, catalog.Record{ID: catalog.FromString(id)})
	images := catalog.NormalizeStringList(textValue(payload, "existingImages"))
	images = append(images, s.storeUploads(id, payload.Files("images"))...)
	rec.Images = catalog.FromAny(images)

	s.records[id] = rec
	s.order = append(s.order, id)
	return &rec, nil
}

// Update replaces the fields present in the payload. A JSON images part
// replaces the stored image list before new uploads are appended.
func (s *StaticService) Update(ctx context.Context, token, id string, payload *catalog.Payload, multipart bool) (*catalog.Record, error) {
	if payload == nil {
		return nil, fmt.Errorf("products: payload is required")
	}
	if !multipart && payload.HasFiles() {
		return nil, catalog.ErrFilesRequireMultipart
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	rec := recordFromPayload(payload, current)
	images := current.ImagePaths()
	if keep, ok := payload.Value("images"); ok {
		images = catalog.NormalizeStringList(catalog.FromString(keep))
	}
	images = append(images, s.storeUploads(id, payload.Files("images"))...)
	rec.Images = catalog.FromAny(images)

	s.records[id] = rec
	return &rec, nil
}

// Delete removes the product.
func (s *StaticService) Delete(ctx context.Context, token, id string) (bool, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Upload returns a stored image by its path.
func (s *StaticService) Upload(imagePath string) (*catalog.Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.uploads[imagePath]
	return file, ok
}

func (s *StaticService) storeUploads(id string, files []*catalog.Upload) []string {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		name := path.Base(strings.ReplaceAll(file.Filename, "\\", "/"))
		if name == "." || name == "/" || name == "" {
			name = "image"
		}
		stored := fmt.Sprintf("/uploads/%s-%s", ulid.Make().String(), name)
		s.uploads[stored] = file
		paths = append(paths, stored)
	}
	return paths
}

// recordFromPayload overlays the text parts of payload onto base. JSON parts
// are stored structurally; scalars keep the backend's typed representation.
func recordFromPayload(payload *catalog.Payload, base catalog.Record) catalog.Record {
	rec := base
	for _, field := range []struct {
		name string
		dst  *catalog.Value
	}{
		{"name", &rec.Name},
		{"brand", &rec.Brand},
		{"description", &rec.Description},
		{"type", &rec.Type},
		{"characteristics", &rec.Characteristics},
		{"categorieIds", &rec.CategorieIDs},
	} {
		if text, ok := payload.Value(field.name); ok {
			*field.dst = catalog.FromJSON([]byte(text))
		}
	}
	if price, ok := payload.Value("price"); ok {
		rec.Price = numberValue(price)
	}
	if oldPrice, ok := payload.Value("oldPrice"); ok {
		rec.OldPrice = numberValue(oldPrice)
	} else {
		rec.OldPrice = catalog.Null()
	}
	if inStock, ok := payload.Value("inStock"); ok {
		rec.InStock = catalog.FromAny(catalog.NormalizeBool(catalog.FromString(inStock), true))
	}
	return rec
}

func numberValue(text string) catalog.Value {
	if formatted, ok := catalog.FormatOptionalNumeric(text); ok {
		return catalog.FromJSON(json.RawMessage(formatted))
	}
	return catalog.Null()
}

func textValue(payload *catalog.Payload, name string) catalog.Value {
	text, ok := payload.Value(name)
	if !ok {
		return catalog.Value{}
	}
	return catalog.FromString(text)
}

func demoCatalog() []catalog.Record {
	return []catalog.Record{
		{
			ID:              catalog.FromString("1"),
			Name:            catalog.FromJSON([]byte(`{"ru":"Фильтр-кувшин Aquaphor Ультра","ro":"Cană filtrantă Aquaphor Ultra"}`)),
			Brand:           catalog.FromJSON([]byte(`{"ru":"Aquaphor","ro":"Aquaphor"}`)),
			Description:     catalog.FromJSON([]byte(`{"ru":"Кувшин с картриджем для очистки водопроводной воды.","ro":"Cană cu cartuș pentru purificarea apei de la robinet."}`)),
			Type:            catalog.FromJSON([]byte(`{"ru":"Кувшин","ro":"Cană"}`)),
			Price:           catalog.FromJSON([]byte(`349`)),
			OldPrice:        catalog.FromJSON([]byte(`399`)),
			InStock:         catalog.FromJSON([]byte(`true`)),
			Characteristics: catalog.FromJSON([]byte(`{"ru":{"Тип фильтрации":"Сорбционный","Ресурс":"300 л"},"ro":{"Tipul de filtrare":"Sorbție","Resursă":"300 l"}}`)),
			CategorieIDs:    catalog.FromJSON([]byte(`[1]`)),
			Images:          catalog.FromJSON([]byte(`[]`)),
		},
		{
			ID:              catalog.FromString("2"),
			Name:            catalog.FromJSON([]byte(`{"ru":"Система обратного осмоса Atoll A-550","ro":"Sistem de osmoză inversă Atoll A-550"}`)),
			Brand:           catalog.FromJSON([]byte(`{"ru":"Atoll","ro":"Atoll"}`)),
			Description:     catalog.FromJSON([]byte(`{"ru":"Пятиступенчатая система под мойку.","ro":"Sistem cu cinci trepte sub chiuvetă."}`)),
			Type:            catalog.FromJSON([]byte(`{"ru":"Обратный осмос","ro":"Osmoză inversă"}`)),
			Price:           catalog.FromJSON([]byte(`5490`)),
			InStock:         catalog.FromJSON([]byte(`false`)),
			Characteristics: catalog.FromJSON([]byte(`{"ru":{"Количество ступеней":"5","Объём бака":"12 л"},"ro":{"Numărul de trepte":"5","Volumul rezervorului":"12 l"}}`)),
			CategorieIDs:    catalog.FromJSON([]byte(`[2,3]`)),
			Images:          catalog.FromJSON([]byte(`[]`)),
		},
	}
}
