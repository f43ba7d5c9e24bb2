package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
)

type sessionContextKey struct{}

// SessionStore abstracts the session manager.
type SessionStore interface {
	Load(*http.Request) (*appsession.Session, error)
	New() *appsession.Session
	Save(http.ResponseWriter, *appsession.Session) error
	Destroy(http.ResponseWriter)
}

// Session attaches the decoded session to the request context. The cookie is
// written just before the response headers go out, so handlers may change the
// session up to their first write.
func Session(store SessionStore) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())
			sess, err := store.Load(r)
			switch {
			case errors.Is(err, appsession.ErrExpired):
				logger.Info("session expired, starting a new one")
				sess = store.New()
			case err != nil || sess == nil:
				if err != nil {
					logger.Warn("session load failed", zap.Error(err))
				}
				sess = store.New()
			}

			sw := &sessionWriter{ResponseWriter: w}
			sw.save = func() {
				if err := store.Save(w, sess); err != nil {
					logger.Error("session save failed", zap.Error(err))
				}
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.once.Do(sw.save)
		})
	}
}

// SessionFromContext retrieves the session attached to this request.
func SessionFromContext(ctx context.Context) (*appsession.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(sessionContextKey{}).(*appsession.Session)
	return sess, ok && sess != nil
}

// AddFlash queues a flash message on the request session, if any.
func AddFlash(ctx context.Context, kind appsession.FlashKind, message string) {
	if sess, ok := SessionFromContext(ctx); ok {
		sess.AddFlash(kind, message)
	}
}

type sessionWriter struct {
	http.ResponseWriter
	once sync.Once
	save func()
}

func (w *sessionWriter) WriteHeader(status int) {
	w.once.Do(w.save)
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.once.Do(w.save)
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	w.once.Do(w.save)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
