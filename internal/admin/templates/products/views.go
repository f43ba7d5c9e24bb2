package products

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/AquaViinaDev/front-admin/internal/admin/templates/helpers"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/layouts"
)

//go:embed *.html
var files embed.FS

var views = template.Must(template.New("products").Funcs(helpers.Funcs()).ParseFS(files, "*.html"))

// Index renders the full product list page.
func Index(data ListPageData) templ.Component {
	return layouts.Base("Товары", templ.FromGoHTML(views.Lookup("list.html"), data))
}

// Table renders the list table alone for htmx swaps.
func Table(data ListPageData) templ.Component {
	return templ.FromGoHTML(views.Lookup("table.html"), data)
}

// Form renders the add, copy or edit page.
func Form(data FormPageData) templ.Component {
	return layouts.Base(data.Title, templ.FromGoHTML(views.Lookup("form.html"), data))
}
