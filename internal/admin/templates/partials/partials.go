package partials

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/navigation"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/helpers"
)

//go:embed *.html
var files embed.FS

var views = template.Must(template.New("partials").Funcs(helpers.Funcs()).ParseFS(files, "*.html"))

type sidebarView struct {
	Groups []sidebarGroupView
}

type sidebarGroupView struct {
	Key   string
	Label string
	Items []sidebarItemView
}

type sidebarItemView struct {
	Key    string
	Label  string
	Href   string
	Active bool
}

// Sidebar renders the navigation menu, hiding entries the user may not open
// and highlighting the current route.
func Sidebar(menu []navigation.MenuGroup) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var view sidebarView
		for _, group := range menu {
			if !hasVisibleItems(group, ctx) {
				continue
			}
			groupView := sidebarGroupView{Key: group.Key, Label: group.Label}
			for _, item := range visibleItems(group, ctx) {
				groupView.Items = append(groupView.Items, sidebarItemView{
					Key:    item.Key,
					Label:  item.Label,
					Href:   item.Href,
					Active: helpers.NavActive(ctx, item.Pattern, item.MatchPrefix),
				})
			}
			view.Groups = append(view.Groups, groupView)
		}
		return views.ExecuteTemplate(w, "sidebar.html", view)
	})
}

func visibleItems(group navigation.MenuGroup, ctx context.Context) []navigation.MenuItem {
	if !helpers.HasCapability(ctx, group.Capability) {
		return nil
	}
	var items []navigation.MenuItem
	for _, item := range group.Items {
		if helpers.HasCapability(ctx, item.Capability) {
			items = append(items, item)
		}
	}
	return items
}

func hasVisibleItems(group navigation.MenuGroup, ctx context.Context) bool {
	return len(visibleItems(group, ctx)) > 0
}

type topbarView struct {
	EnvironmentLabel string
	EnvironmentShort string
	UserEmail        string
	LogoutAction     string
	CSRFField        string
	CSRFToken        string
	Languages        []languageLink
	CanWrite         bool
	NewProductHref   string
}

type languageLink struct {
	Label  string
	Href   string
	Active bool
}

// Topbar renders the environment badge, the display language switch and the
// user menu.
func Topbar() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := strings.TrimRight(helpers.BasePath(ctx), "/")
		env := middleware.EnvironmentFromContext(ctx)
		view := topbarView{
			EnvironmentLabel: env,
			EnvironmentShort: environmentShort(env),
			LogoutAction:     base + "/logout",
			CSRFField:        middleware.CSRFFormField,
			CSRFToken:        middleware.CSRFTokenFromContext(ctx),
			CanWrite:         helpers.HasCapability(ctx, rbac.CapCatalogWrite),
			NewProductHref:   base + "/products/new",
		}
		if user, ok := middleware.UserFromContext(ctx); ok {
			view.UserEmail = firstNonEmpty(user.Email, user.UID)
		}

		current := middleware.LanguageFromContext(ctx)
		path := middleware.RequestPathFromContext(ctx)
		query := ""
		if info, ok := middleware.RequestInfoFromContext(ctx); ok {
			query = info.Query
		}
		for _, lang := range catalog.Languages {
			view.Languages = append(view.Languages, languageLink{
				Label:  helpers.LangLabel(lang),
				Href:   helpers.BuildURL(path, helpers.SetRawQuery(query, "lang", string(lang))),
				Active: lang == current,
			})
		}
		return views.ExecuteTemplate(w, "topbar.html", view)
	})
}

type flashView struct {
	Tone    string
	Message string
}

// Flashes renders and consumes the session's queued flash messages.
func Flashes() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sess, ok := middleware.SessionFromContext(ctx)
		if !ok {
			return nil
		}
		var flashes []flashView
		for _, flash := range sess.PopFlashes() {
			tone := "success"
			if flash.Kind != appsession.FlashSuccess {
				tone = "danger"
			}
			flashes = append(flashes, flashView{Tone: tone, Message: flash.Message})
		}
		return views.ExecuteTemplate(w, "flashes.html", flashes)
	})
}

func environmentShort(env string) string {
	switch strings.ToLower(env) {
	case "production", "prod":
		return "PROD"
	case "staging", "stg":
		return "STG"
	default:
		return "DEV"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
