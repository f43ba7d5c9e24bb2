package ui

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

const (
	defaultMaxUploadBytes = 10 << 20
	maxFormMemory         = 32 << 20
	maxImagesPerSubmit    = 20

	imagesFieldExisting = "existingImages"
	imagesFieldKeep     = "imagesToKeep"
)

// productForm is the validated view of a submitted product form.
type productForm struct {
	NameRU       string        `form:"name.ru" validate:"required,max=300"`
	NameRO       string        `form:"name.ro" validate:"max=300"`
	Price        string        `form:"price" validate:"required,price"`
	OldPrice     string        `form:"oldPrice" validate:"omitempty,price"`
	CategorieIDs string        `form:"categorieIds" validate:"omitempty,categories"`
	Images       []uploadField `form:"images" validate:"max=20,dive"`
}

type uploadField struct {
	ContentType string `form:"images" validate:"startswith=image/"`
	Size        int64  `form:"images" validate:"gt=0,upload_size"`
}

// submission is a decoded product form.
type submission struct {
	State   catalog.ProductFormState
	Images  catalog.ImageSet
	Offered []string
	Errors  map[string]string
}

func newFormValidator(maxUpload int64) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		formatted, ok := catalog.FormatOptionalNumeric(fl.Field().String())
		if !ok {
			return false
		}
		d, err := decimal.NewFromString(formatted)
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("categories", func(fl validator.FieldLevel) bool {
		for _, token := range splitList(fl.Field().String()) {
			if _, err := strconv.ParseInt(token, 10, 64); err != nil {
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("upload_size", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= maxUpload
	})
	return v
}

// decodeProductForm reads the multipart product form into a form state. The
// images field names which stored-image checkbox group the form carries.
func (h *Handlers) decodeProductForm(r *http.Request, imagesField string) (submission, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return submission{}, fmt.Errorf("parse product form: %w", err)
	}
	values := r.PostForm

	state := h.schema.EmptyState()
	chars := catalog.Characteristics{}
	for _, lang := range catalog.Languages {
		suffix := "." + string(lang)
		state.Name.Set(lang, values.Get("name"+suffix))
		state.Brand.Set(lang, values.Get("brand"+suffix))
		state.Type.Set(lang, values.Get("type"+suffix))
		state.Description.Set(lang, values.Get("description"+suffix))

		keys := values["characteristics"+suffix+".key"]
		vals := values["characteristics"+suffix+".value"]
		for i, key := range keys {
			if strings.TrimSpace(key) == "" || i >= len(vals) {
				continue
			}
			chars.Set(lang, key, vals[i])
		}
	}
	state.Characteristics = h.schema.NormalizeCharacteristics(catalog.FromAny(chars))
	state.Price = strings.TrimSpace(values.Get("price"))
	state.OldPrice = strings.TrimSpace(values.Get("oldPrice"))
	state.InStock = catalog.NormalizeBool(formValue(values, "inStock"), false)
	state.CategorieIDs = catalog.NormalizeIntegerList(catalog.FromAny(splitList(values.Get("categorieIds"))))

	uploads, err := h.readUploads(r)
	if err != nil {
		return submission{}, err
	}
	state.Images = uploads

	sub := submission{State: state, Images: catalog.ImageSet{NewImages: uploads}}
	if imagesField != "" && values.Get(imagesField+".present") != "" {
		selected := append([]string{}, values[imagesField]...)
		sub.Offered = values[imagesField+".offered"]
		switch imagesField {
		case imagesFieldKeep:
			sub.Images.ImagesToKeep = selected
		case imagesFieldExisting:
			sub.Images.ExistingImages = selected
		}
	}

	form := productForm{
		NameRU:       strings.TrimSpace(state.Name.RU),
		NameRO:       strings.TrimSpace(state.Name.RO),
		Price:        state.Price,
		OldPrice:     state.OldPrice,
		CategorieIDs: values.Get("categorieIds"),
	}
	for _, upload := range uploads {
		form.Images = append(form.Images, uploadField{ContentType: upload.ContentType, Size: upload.Size()})
	}
	sub.Errors = h.validationErrors(form)
	return sub, nil
}

func (h *Handlers) readUploads(r *http.Request) ([]*catalog.Upload, error) {
	uploads := []*catalog.Upload{}
	if r.MultipartForm == nil {
		return uploads, nil
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) > maxImagesPerSubmit+1 {
		headers = headers[:maxImagesPerSubmit+1]
	}
	for _, header := range headers {
		if header.Filename == "" && header.Size == 0 {
			continue
		}
		upload, err := readUpload(header, h.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader, limit int64) (*catalog.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", header.Filename, err)
	}
	defer file.Close()

	// Read one byte past the limit so oversize files fail validation.
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &catalog.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func (h *Handlers) validationErrors(form productForm) map[string]string {
	err := h.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": "Не удалось проверить форму."}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, exists := out[field]; exists {
			continue
		}
		out[field] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Обязательное поле."
	case "price":
		return "Укажите неотрицательное число, например 349 или 1299.90."
	case "categories":
		return "Укажите числовые ID категорий через запятую."
	case "startswith":
		return "Можно загружать только изображения."
	case "upload_size", "gt":
		return "Файл пустой или слишком большой."
	case "max":
		if fe.Field() == "images" {
			return "Слишком много файлов за один раз."
		}
		return "Слишком длинное значение."
	default:
		return "Некорректное значение."
	}
}

func formValue(values map[string][]string, key string) catalog.Value {
	list, ok := values[key]
	if !ok || len(list) == 0 {
		return catalog.Value{}
	}
	return catalog.FromString(list[len(list)-1])
}

func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
}
