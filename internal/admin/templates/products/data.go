package products

import (
	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/helpers"
)

// ListPageData drives the product list page and its table fragment.
type ListPageData struct {
	Lang       catalog.Lang
	Query      string
	SearchURL  string
	TableURL   string
	NewURL     string
	CSRFField  string
	CSRFToken  string
	CanWrite   bool
	CanDelete  bool
	Total      int
	Rows       []ProductRow
	Error      string
	EmptyLabel string
}

// ProductRow is a single product in the list.
type ProductRow struct {
	ID              string
	Name            []helpers.HighlightSegment
	Brand           string
	Type            string
	Price           string
	OldPrice        string
	InStock         bool
	Preview         string
	ImageURL        string
	Characteristics []CharacteristicItem
	EditURL         string
	CopyURL         string
	DeleteURL       string
}

// CharacteristicItem is a filled characteristic shown in the list.
type CharacteristicItem struct {
	Label string
	Value string
}

// Form modes.
const (
	ModeCreate = "create"
	ModeCopy   = "copy"
	ModeEdit   = "edit"
)

// FormPageData drives the add, copy and edit forms.
type FormPageData struct {
	Title        string
	Mode         string
	Action       string
	CancelURL    string
	CSRFField    string
	CSRFToken    string
	Languages    []LanguageFields
	Price        string
	OldPrice     string
	InStock      bool
	CategorieIDs string
	Images       []ImagePreview
	ImagesField  string
	Error        string
	Errors       map[string]string
}

// LanguageFields groups the per-language inputs of the form.
type LanguageFields struct {
	Lang            catalog.Lang
	Label           string
	Name            string
	Brand           string
	Description     string
	Type            string
	Characteristics []CharacteristicField
}

// CharacteristicField is one characteristic input. Keys outside the schema are
// kept so they survive a save.
type CharacteristicField struct {
	Key   string
	Label string
	Value string
	Extra bool
}

// ImagePreview is a stored image offered for keeping.
type ImagePreview struct {
	Path    string
	URL     string
	Checked bool
}

// FieldError returns the validation message for a form field.
func (d FormPageData) FieldError(name string) string {
	return d.Errors[name]
}
