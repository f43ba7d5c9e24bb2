package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
)

type mockAuthenticator struct {
	token string
	user  *User
	err   error
}

func (m *mockAuthenticator) Authenticate(_ *http.Request, token string) (*User, error) {
	if token != m.token {
		return nil, ErrUnauthorized
	}
	return m.user, m.err
}

func TestAuthMiddleware(t *testing.T) {
	auth := &mockAuthenticator{
		token: "valid",
		user:  &User{UID: "user-1", Roles: []string{"editor"}},
	}

	handler := HTMX()(Auth(auth, "/admin/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user in context")
		}
		if user.Token != "valid" {
			t.Fatalf("expected token to be kept on the user, got %q", user.Token)
		}
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("missing token redirects with next", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/products?lang=ro", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rr.Code)
		}
		location, err := url.Parse(rr.Header().Get("Location"))
		if err != nil {
			t.Fatalf("parse location: %v", err)
		}
		if location.Path != "/admin/login" {
			t.Fatalf("expected redirect to /admin/login, got %s", location.Path)
		}
		if next := location.Query().Get("next"); next != "/admin/products?lang=ro" {
			t.Fatalf("unexpected next %q", next)
		}
	})

	t.Run("htmx unauthorized returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if rr.Header().Get("HX-Redirect") != "/admin/login" {
			t.Fatalf("expected HX-Redirect header to /admin/login")
		}
	})

	t.Run("bearer header passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer valid")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("token cookie passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "valid"})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("expired token triggers refresh header", func(t *testing.T) {
		auth.err = NewAuthError(ReasonTokenExpired, errors.New("expired"))
		defer func() { auth.err = nil }()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer valid")
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if rr.Header().Get("HX-Refresh") != "true" {
			t.Fatalf("expected HX-Refresh header")
		}
	})
}

func TestCSRFMiddleware(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf", HeaderName: "X-CSRF-Token"})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("issues cookie on GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CSRFTokenFromContext(r.Context()) == "" {
				t.Fatalf("expected token in context")
			}
		})).ServeHTTP(rr, req)

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "csrf" && c.Value != "" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected csrf cookie to be set")
		}
	})

	t.Run("rejects unsafe request without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})
		rr := httptest.NewRecorder()
		mw(ok).ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("accepts matching header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})
		req.Header.Set("X-CSRF-Token", "token")
		rr := httptest.NewRecorder()
		mw(ok).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("accepts matching form field", func(t *testing.T) {
		form := url.Values{CSRFFormField: {"token"}}
		req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})
		rr := httptest.NewRecorder()
		mw(ok).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("rejects mismatched form field", func(t *testing.T) {
		form := url.Values{CSRFFormField: {"other"}}
		req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})
		rr := httptest.NewRecorder()
		mw(ok).ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})
}

func TestHTMXMiddleware(t *testing.T) {
	base := HTMX()

	t.Run("detects htmx", func(t *testing.T) {
		handler := base(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				t.Fatalf("expected htmx request")
			}
			if HTMXInfoFromContext(r.Context()).Target != "products-table" {
				t.Fatalf("expected target to be captured")
			}
		}))
		req := httptest.NewRequest(http.MethodGet, "/admin/products/table", nil)
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Target", "products-table")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	})

	t.Run("RequireHTMX blocks direct navigation", func(t *testing.T) {
		handler := base(RequireHTMX()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/products/table", nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("TriggerToast encodes the event", func(t *testing.T) {
		rr := httptest.NewRecorder()
		TriggerToast(rr, "success", "Товар удалён")
		if got := rr.Header().Get("HX-Trigger"); got != `{"toast":{"message":"Товар удалён","tone":"success"}}` {
			t.Fatalf("unexpected HX-Trigger %s", got)
		}
	})
}

func TestNoStoreMiddleware(t *testing.T) {
	handler := NoStore()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("unexpected Cache-Control: %s", got)
	}
	if got := rr.Header().Get("Pragma"); got != "no-cache" {
		t.Fatalf("unexpected Pragma: %s", got)
	}
}

func TestRequireCapability(t *testing.T) {
	handler := RequireCapability(rbac.CapCatalogDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "admin allowed", roles: []string{"admin"}, want: http.StatusNoContent},
		{name: "editor forbidden", roles: []string{"editor"}, want: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/products/1/delete", nil)
			req = req.WithContext(ContextWithUser(req.Context(), &User{UID: "u", Roles: tc.roles}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}

	t.Run("anonymous forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})
}

func TestNegotiateLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   catalog.Lang
	}{
		{header: "", want: catalog.LangRU},
		{header: "ro-MD,ro;q=0.9,en;q=0.5", want: catalog.LangRO},
		{header: "ru-RU,ru;q=0.9", want: catalog.LangRU},
		{header: "en-US,en;q=0.9", want: catalog.LangRU},
		{header: "en;q=0.9,ro;q=0.8", want: catalog.LangRO},
	}
	for _, tc := range tests {
		if got := NegotiateLanguage(tc.header); got != tc.want {
			t.Errorf("NegotiateLanguage(%q) = %s, want %s", tc.header, got, tc.want)
		}
	}
}

func TestLanguageMiddlewarePrefersExplicitChoice(t *testing.T) {
	var got catalog.Lang
	handler := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LanguageFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/products?lang=ro", nil)
	req.Header.Set("Accept-Language", "ru")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got != catalog.LangRO {
		t.Fatalf("expected ro, got %s", got)
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == LanguageCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "ro" {
		t.Fatalf("expected language cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.Header.Set("Accept-Language", "ru")
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != catalog.LangRO {
		t.Fatalf("cookie should win over Accept-Language, got %s", got)
	}

	if LanguageFromContext(context.Background()) != catalog.LangRU {
		t.Fatalf("expected ru default")
	}
}

func TestRequestInfoMiddleware(t *testing.T) {
	handler := RequestInfoMiddleware("admin/", "staging")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if BasePathFromContext(r.Context()) != "/admin" {
			t.Fatalf("unexpected base path %q", BasePathFromContext(r.Context()))
		}
		if RequestPathFromContext(r.Context()) != "/admin/products" {
			t.Fatalf("unexpected path")
		}
		if EnvironmentFromContext(r.Context()) != "staging" {
			t.Fatalf("unexpected environment")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	if EnvironmentFromContext(context.Background()) != "local" {
		t.Fatalf("expected local fallback")
	}
}
