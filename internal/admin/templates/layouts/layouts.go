package layouts

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/navigation"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/helpers"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/partials"
)

//go:embed *.html
var files embed.FS

var views = template.Must(template.New("layouts").Funcs(helpers.Funcs()).ParseFS(files, "*.html"))

type pageView struct {
	Title     string
	Lang      string
	CSRFToken string
	Chrome    bool
	Sidebar   template.HTML
	Topbar    template.HTML
	Flashes   template.HTML
	Body      template.HTML
}

// Base wraps body in the full admin shell with sidebar, topbar and flashes.
func Base(title string, body templ.Component) templ.Component {
	return page(title, body, true)
}

// Bare wraps body in a minimal document, used by the login screen.
func Bare(title string, body templ.Component) templ.Component {
	return page(title, body, false)
}

func page(title string, body templ.Component, chrome bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		view := pageView{
			Title:     title + " | AquaViina Admin",
			Lang:      string(middleware.LanguageFromContext(ctx)),
			CSRFToken: middleware.CSRFTokenFromContext(ctx),
			Chrome:    chrome,
		}
		var err error
		if chrome {
			menu := navigation.BuildMenu(helpers.BasePath(ctx))
			if view.Sidebar, err = templ.ToGoHTML(ctx, partials.Sidebar(menu)); err != nil {
				return err
			}
			if view.Topbar, err = templ.ToGoHTML(ctx, partials.Topbar()); err != nil {
				return err
			}
		}
		if view.Flashes, err = templ.ToGoHTML(ctx, partials.Flashes()); err != nil {
			return err
		}
		if view.Body, err = templ.ToGoHTML(ctx, body); err != nil {
			return err
		}
		return views.ExecuteTemplate(w, "base.html", view)
	})
}
