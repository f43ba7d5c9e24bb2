package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ErrFilesRequireMultipart is returned when a payload carrying files is
// encoded as JSON.
var ErrFilesRequireMultipart = errors.New("catalog: payload with files requires multipart encoding")

// Part is one field of a form submission. File is nil for text parts.
type Part struct {
	Name  string
	Value string
	File  *Upload
}

// IsFile reports whether the part carries a file.
func (p Part) IsFile() bool { return p.File != nil }

// Payload is an ordered list of form parts, the in-memory equivalent of a
// multipart/form-data body.
type Payload struct {
	parts []Part
}

// Add appends a text part.
func (p *Payload) Add(name, value string) {
	p.parts = append(p.parts, Part{Name: name, Value: value})
}

// AddFile appends a file part.
func (p *Payload) AddFile(name string, file *Upload) {
	p.parts = append(p.parts, Part{Name: name, File: file})
}

// Parts returns a copy of all parts in order.
func (p *Payload) Parts() []Part {
	out := make([]Part, len(p.parts))
	copy(out, p.parts)
	return out
}

// Names lists part names in order, repeating names that occur more than once.
func (p *Payload) Names() []string {
	names := make([]string, 0, len(p.parts))
	for _, part := range p.parts {
		names = append(names, part.Name)
	}
	return names
}

// Value returns the first text part named name.
func (p *Payload) Value(name string) (string, bool) {
	for _, part := range p.parts {
		if part.Name == name && !part.IsFile() {
			return part.Value, true
		}
	}
	return "", false
}

// Values returns every text part named name.
func (p *Payload) Values(name string) []string {
	var out []string
	for _, part := range p.parts {
		if part.Name == name && !part.IsFile() {
			out = append(out, part.Value)
		}
	}
	return out
}

// Files returns every file part named name.
func (p *Payload) Files(name string) []*Upload {
	var out []*Upload
	for _, part := range p.parts {
		if part.Name == name && part.IsFile() {
			out = append(out, part.File)
		}
	}
	return out
}

// Has reports whether any part is named name.
func (p *Payload) Has(name string) bool {
	for _, part := range p.parts {
		if part.Name == name {
			return true
		}
	}
	return false
}

// HasFiles reports whether any part carries a file.
func (p *Payload) HasFiles() bool {
	for _, part := range p.parts {
		if part.IsFile() {
			return true
		}
	}
	return false
}

// WriteMultipart encodes the payload as multipart/form-data and returns the
// content type including the boundary.
func (p *Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, part := range p.parts {
		if !part.IsFile() {
			if err := mw.WriteField(part.Name, part.Value); err != nil {
				return "", fmt.Errorf("catalog: write field %s: %w", part.Name, err)
			}
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     part.Name,
			"filename": fileName(part.File),
		}))
		header.Set("Content-Type", fileContentType(part.File))
		fw, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("catalog: create file part %s: %w", part.Name, err)
		}
		if _, err := fw.Write(part.File.Data); err != nil {
			return "", fmt.Errorf("catalog: write file part %s: %w", part.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("catalog: close multipart writer: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// JSON encodes the text parts as a JSON object of strings. Names occurring
// more than once become arrays.
func (p *Payload) JSON() ([]byte, error) {
	if p.HasFiles() {
		return nil, ErrFilesRequireMultipart
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	seen := make(map[string]bool, len(p.parts))
	first := true
	for _, part := range p.parts {
		if seen[part.Name] {
			continue
		}
		seen[part.Name] = true
		values := p.Values(part.Name)
		var encoded []byte
		var err error
		if len(values) == 1 {
			encoded, err = marshalNoEscape(values[0])
		} else {
			encoded, err = marshalNoEscape(values)
		}
		if err != nil {
			return nil, err
		}
		key, err := marshalNoEscape(part.Name)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseMultipart decodes a multipart/form-data body into a payload. Parts
// carrying a filename are read as files.
func ParseMultipart(r io.Reader, boundary string) (*Payload, error) {
	mr := multipart.NewReader(r, boundary)
	payload := &Payload{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return payload, nil
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read multipart: %w", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("catalog: read part %s: %w", part.FormName(), err)
		}
		if part.FileName() != "" {
			payload.AddFile(part.FormName(), &Upload{
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			continue
		}
		payload.Add(part.FormName(), string(data))
	}
}

// PayloadFromRequest decodes a multipart request body.
func PayloadFromRequest(req *http.Request) (*Payload, error) {
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("catalog: unexpected content type %q", mediaType)
	}
	return ParseMultipart(req.Body, params["boundary"])
}

func fileName(u *Upload) string {
	if name := strings.TrimSpace(u.Filename); name != "" {
		return name
	}
	return "blob"
}

func fileContentType(u *Upload) string {
	if u.ContentType != "" {
		return u.ContentType
	}
	if len(u.Data) > 0 {
		return http.DetectContentType(u.Data)
	}
	return "application/octet-stream"
}

// ImageSet carries the image references submitted alongside a form.
// ImagesToKeep is nil when not supplied; an empty non-nil slice means no
// stored image is kept.
type ImageSet struct {
	ExistingImages []string
	ImagesToKeep   []string
	NewImages      []*Upload
}

// SanitizeTextFields returns a copy of state with every multilingual text and
// every characteristic value trimmed.
func SanitizeTextFields(state ProductFormState) ProductFormState {
	out := state.Clone()
	out.Name = state.Name.trimmed()
	out.Brand = state.Brand.trimmed()
	out.Description = state.Description.trimmed()
	out.Type = state.Type.trimmed()
	out.Characteristics = Characteristics{
		RU: state.Characteristics.RU.trimmed(),
		RO: state.Characteristics.RO.trimmed(),
	}
	return out
}

// BuildFormData serializes a form state and its image references into the
// submission payload expected by the catalog backend. state is not modified.
func BuildFormData(state ProductFormState, images ImageSet) (*Payload, error) {
	clean := SanitizeTextFields(state)
	payload := &Payload{}

	for _, field := range []struct {
		name  string
		value any
	}{
		{"name", clean.Name},
		{"brand", clean.Brand},
		{"description", clean.Description},
		{"type", clean.Type},
		{"characteristics", clean.Characteristics},
		{"categorieIds", NormalizeIntegerList(FromAny(orEmpty(clean.CategorieIDs)))},
	} {
		encoded, err := marshalNoEscape(field.value)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode %s: %w", field.name, err)
		}
		payload.Add(field.name, string(encoded))
	}

	payload.Add("price", FormatNumeric(clean.Price))
	if oldPrice, ok := FormatOptionalNumeric(clean.OldPrice); ok {
		payload.Add("oldPrice", oldPrice)
	}
	if clean.InStock {
		payload.Add("inStock", "true")
	} else {
		payload.Add("inStock", "false")
	}

	if len(images.ExistingImages) > 0 {
		encoded, err := marshalNoEscape(images.ExistingImages)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode existingImages: %w", err)
		}
		payload.Add("existingImages", string(encoded))
	}
	if images.ImagesToKeep != nil {
		encoded, err := marshalNoEscape(images.ImagesToKeep)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode images: %w", err)
		}
		payload.Add("images", string(encoded))
	}
	for _, file := range images.NewImages {
		if file == nil {
			continue
		}
		payload.AddFile("images", file)
	}
	return payload, nil
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
