package partials

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/navigation"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
)

func requestContext(t *testing.T, target, environment string, roles ...string) context.Context {
	t.Helper()

	var ctx context.Context
	handler := middleware.RequestInfoMiddleware("/admin", environment)(
		middleware.Language()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			ctx = r.Context()
		})),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	return middleware.ContextWithUser(ctx, &middleware.User{
		UID:   "staff-1",
		Email: "staff@aquaviina.md",
		Roles: roles,
	})
}

func render(t *testing.T, ctx context.Context, c templ.Component) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestVisibleItemsFiltersByCapability(t *testing.T) {
	t.Parallel()

	menu := navigation.BuildMenu("/admin")
	viewer := middleware.ContextWithUser(context.Background(), &middleware.User{Roles: []string{string(rbac.RoleViewer)}})
	editor := middleware.ContextWithUser(context.Background(), &middleware.User{Roles: []string{string(rbac.RoleEditor)}})

	items := visibleItems(menu[0], viewer)
	require.Len(t, items, 1)
	require.Equal(t, "products", items[0].Key)
	require.Len(t, visibleItems(menu[0], editor), 2)
	require.False(t, hasVisibleItems(menu[0], context.Background()), "anonymous users see nothing")
}

func TestSidebarHighlightsCurrentRoute(t *testing.T) {
	t.Parallel()

	ctx := requestContext(t, "/admin/products/new", "local", "editor")
	doc := render(t, ctx, Sidebar(navigation.BuildMenu("/admin")))

	newLink := doc.Find(`a[href="/admin/products/new"]`)
	require.Equal(t, 1, newLink.Length())
	require.Equal(t, "page", newLink.AttrOr("aria-current", ""))
	require.Contains(t, newLink.AttrOr("class", ""), "nav-link--active")
	require.Empty(t, doc.Find(`a[href="/admin/products"]`).AttrOr("aria-current", ""))
}

func TestTopbarRendersEnvironmentLanguagesAndLogout(t *testing.T) {
	t.Parallel()

	ctx := requestContext(t, "/admin/products?q=atoll&lang=ro", "staging", "viewer")
	doc := render(t, ctx, Topbar())

	require.Equal(t, "STG", strings.TrimSpace(doc.Find("[data-environment-badge] span").Text()))
	active := doc.Find(`[data-lang-link][aria-current="true"]`)
	require.Equal(t, "RO", active.Text())
	ruHref := doc.Find(`[data-lang-link="RU"]`).AttrOr("href", "")
	require.Contains(t, ruHref, "lang=ru")
	require.Contains(t, ruHref, "q=atoll")

	require.Equal(t, 0, doc.Find("[data-topbar-new-product]").Length(), "viewers cannot add products")
	require.Equal(t, "/admin/logout", doc.Find("[data-user-menu-logout]").AttrOr("action", ""))
	require.Equal(t, 1, doc.Find(`[data-user-menu-logout] input[name="_csrf"]`).Length())
}

func TestFlashesConsumeSessionQueue(t *testing.T) {
	t.Parallel()

	mgr, err := appsession.NewManager(appsession.Config{
		HashKey: []byte("12345678901234567890123456789012"),
		Now:     func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	sess := mgr.New()
	sess.AddFlash(appsession.FlashSuccess, "Товар создан")
	sess.AddFlash(appsession.FlashError, "Не удалось загрузить товар")

	var ctx context.Context
	middleware.Session(sessionStore{mgr: mgr, sess: sess})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))

	doc := render(t, ctx, Flashes())
	require.Equal(t, "Товар создан", doc.Find(`[data-flash="success"]`).Text())
	require.Equal(t, "Не удалось загрузить товар", doc.Find(`[data-flash="danger"]`).Text())
	require.Nil(t, sess.PopFlashes())
}

type sessionStore struct {
	mgr  *appsession.Manager
	sess *appsession.Session
}

func (s sessionStore) Load(*http.Request) (*appsession.Session, error) { return s.sess, nil }
func (s sessionStore) New() *appsession.Session                        { return s.mgr.New() }
func (s sessionStore) Save(w http.ResponseWriter, sess *appsession.Session) error {
	return s.mgr.Save(w, sess)
}
func (s sessionStore) Destroy(w http.ResponseWriter) { s.mgr.Destroy(w) }
