package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type htmxContextKey struct{}

// HTMXInfo captures request metadata from HX-* headers.
type HTMXInfo struct {
	IsHTMX     bool
	IsBoosted  bool
	CurrentURL string
	Target     string
	TriggerID  string
}

// HTMX inspects HX-* headers and annotates the context.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := HTMXInfo{
				IsHTMX:     strings.EqualFold(r.Header.Get("HX-Request"), "true"),
				IsBoosted:  strings.EqualFold(r.Header.Get("HX-Boosted"), "true"),
				CurrentURL: r.Header.Get("HX-Current-URL"),
				Target:     r.Header.Get("HX-Target"),
				TriggerID:  r.Header.Get("HX-Trigger"),
			}
			w.Header().Add("Vary", "HX-Request")
			ctx := context.WithValue(r.Context(), htmxContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HTMXInfoFromContext retrieves htmx metadata; the zero value when absent.
func HTMXInfoFromContext(ctx context.Context) HTMXInfo {
	info, _ := ctx.Value(htmxContextKey{}).(HTMXInfo)
	return info
}

// IsHTMXRequest reports whether htmx initiated the request.
func IsHTMXRequest(ctx context.Context) bool {
	return HTMXInfoFromContext(ctx).IsHTMX
}

// RequireHTMX answers 404 to direct navigation so fragment routes stay hidden.
func RequireHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TriggerToast sets an HX-Trigger header that the layout script turns into a
// toast notification.
func TriggerToast(w http.ResponseWriter, tone, message string) {
	payload, err := json.Marshal(map[string]any{
		"toast": map[string]string{"tone": tone, "message": message},
	})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}
