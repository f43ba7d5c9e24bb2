package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextDefaultsToNoop(t *testing.T) {
	t.Parallel()

	require.Same(t, NoopLogger(), FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
	require.Same(t, NoopLogger(), FromContext(WithLogger(context.Background(), nil)))
}

func TestNewLoggerAcceptsUnknownLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("chatty")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("DEBUG")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestRequestLoggerRecordsStatusAndRoute(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	router := chi.NewRouter()
	router.Use(RequestLogger(zap.New(core)))
	router.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handler ran")
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, 1, logs.FilterMessage("handler ran").Len())
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, zapcore.WarnLevel, completed[0].Level)
	fields := completed[0].ContextMap()
	require.Equal(t, "/products/{id}", fields["route"])
	require.EqualValues(t, http.StatusNotFound, fields["status"])
	require.Equal(t, "GET", fields["method"])
}

func TestSanitizeStringDropsControlCharacters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/a/b", SanitizeRoute("/a\n/b\x00"))
	require.Equal(t, "/", SanitizeRoute(""))
	require.Len(t, []rune(SanitizeUserID(string(make([]byte, 100))+"x")), 1)
}
