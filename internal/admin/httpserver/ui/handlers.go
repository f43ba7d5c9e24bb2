package ui

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	custommw "github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/products"
)

// Dependencies collects the services required by the UI handlers.
type Dependencies struct {
	Products   products.Service
	Schema     *catalog.Schema
	APIBaseURL string
	// MaxUploadBytes caps a single uploaded image.
	MaxUploadBytes int64
}

// Handlers exposes the admin pages and fragments.
type Handlers struct {
	products       products.Service
	schema         *catalog.Schema
	apiBaseURL     string
	maxUploadBytes int64
	validate       *validator.Validate
}

// NewHandlers wires the UI handler set. Missing dependencies fall back to the
// in-memory catalog and the default characteristic schema.
func NewHandlers(deps Dependencies) *Handlers {
	service := deps.Products
	if service == nil {
		service = products.NewStaticService(nil)
	}
	schema := deps.Schema
	if schema == nil {
		schema = catalog.DefaultSchema()
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handlers{
		products:       service,
		schema:         schema,
		apiBaseURL:     deps.APIBaseURL,
		maxUploadBytes: maxUpload,
		validate:       newFormValidator(maxUpload),
	}
}

// Home sends the dashboard root to the product list.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, joinBasePath(custommw.BasePathFromContext(r.Context()), "/products"), http.StatusFound)
}

func tokenFrom(r *http.Request) string {
	if user, ok := custommw.UserFromContext(r.Context()); ok {
		return user.Token
	}
	return ""
}

// backendMessage turns a service error into text safe to show staff.
func backendMessage(err error, fallback string) string {
	var backendErr *products.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return fallback + " " + backendErr.Message
	}
	return fallback
}
