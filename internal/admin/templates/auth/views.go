package auth

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/AquaViinaDev/front-admin/internal/admin/templates/layouts"
)

//go:embed login.html
var files embed.FS

var loginView = template.Must(template.ParseFS(files, "login.html"))

// LoginPage renders the sign-in screen.
func LoginPage(data LoginPageData) templ.Component {
	return layouts.Bare("Вход", templ.FromGoHTML(loginView, data))
}
