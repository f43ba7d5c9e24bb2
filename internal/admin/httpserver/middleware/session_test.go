package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
)

type sessionTestClock struct {
	now time.Time
}

func (c *sessionTestClock) Now() time.Time {
	return c.now
}

func newSessionStoreForTest(t *testing.T, clock *sessionTestClock) *appsession.Manager {
	t.Helper()
	store, err := appsession.NewManager(appsession.Config{
		CookieName:       "test_session",
		HashKey:          []byte("12345678901234567890123456789012"),
		BlockKey:         []byte("abcdefghijklmnopqrstuvwxyzABCDEF"),
		CookiePath:       "/admin",
		IdleTimeout:      5 * time.Minute,
		Lifetime:         time.Hour,
		RememberLifetime: 24 * time.Hour,
		Now:              clock.Now,
	})
	if err != nil {
		t.Fatalf("session manager init: %v", err)
	}
	return store
}

func TestSessionMiddlewareLifecycle(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	var ids []string
	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session missing in context")
		}
		ids = append(ids, sess.ID())
		w.WriteHeader(http.StatusOK)
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/admin", nil))
	cookie := findCookie(rec1.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie on first response")
	}

	clock.now = clock.now.Add(2 * time.Minute)
	req2 := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req2.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req2)
	if len(ids) != 2 || ids[1] != ids[0] {
		t.Fatalf("expected same session id between active requests, got %v", ids)
	}

	clock.now = clock.now.Add(15 * time.Minute)
	req3 := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req3.AddCookie(cookie)
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if len(ids) != 3 || ids[2] == ids[1] {
		t.Fatalf("expected new session id after idle timeout, got %v", ids)
	}
	if findCookie(rec3.Result().Cookies(), "test_session") == nil {
		t.Fatalf("expected refreshed session cookie after timeout")
	}
}

func TestSessionMiddlewareCarriesFlashAcrossRedirect(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	redirect := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddFlash(r.Context(), appsession.FlashSuccess, "Товар создан")
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
	}))
	rec := httptest.NewRecorder()
	redirect.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", nil))
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("flash must be persisted before the redirect is written")
	}

	var flashes []appsession.Flash
	show := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		flashes = sess.PopFlashes()
		_, _ = w.Write([]byte("ok"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.AddCookie(cookie)
	show.ServeHTTP(httptest.NewRecorder(), req)
	if len(flashes) != 1 || flashes[0].Message != "Товар создан" {
		t.Fatalf("unexpected flashes %#v", flashes)
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
