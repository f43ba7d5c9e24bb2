package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

type languageContextKey struct{}

// LanguageCookieName remembers an explicit ?lang= choice.
const LanguageCookieName = "admin_lang"

var (
	supportedTags = []language.Tag{language.Russian, language.Romanian}
	tagMatcher    = language.NewMatcher(supportedTags)
)

// Language resolves the catalog display language. An explicit ?lang= value
// wins and is remembered in a cookie; otherwise the cookie, then the
// Accept-Language header, then Russian.
func Language() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang, explicit := parseLang(r.URL.Query().Get("lang"))
			if explicit {
				http.SetCookie(w, &http.Cookie{
					Name:     LanguageCookieName,
					Value:    string(lang),
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(LanguageCookieName); err == nil {
				lang, explicit = parseLang(c.Value)
			}
			if !explicit {
				lang = NegotiateLanguage(r.Header.Get("Accept-Language"))
			}
			ctx := context.WithValue(r.Context(), languageContextKey{}, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NegotiateLanguage matches an Accept-Language header against the supported
// catalog languages.
func NegotiateLanguage(header string) catalog.Lang {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return catalog.LangRU
	}
	_, index, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return catalog.LangRU
	}
	if supportedTags[index] == language.Romanian {
		return catalog.LangRO
	}
	return catalog.LangRU
}

// LanguageFromContext returns the display language, Russian by default.
func LanguageFromContext(ctx context.Context) catalog.Lang {
	if lang, ok := ctx.Value(languageContextKey{}).(catalog.Lang); ok {
		return lang
	}
	return catalog.LangRU
}

func parseLang(value string) (catalog.Lang, bool) {
	switch catalog.Lang(strings.ToLower(strings.TrimSpace(value))) {
	case catalog.LangRU:
		return catalog.LangRU, true
	case catalog.LangRO:
		return catalog.LangRO, true
	}
	return catalog.LangRU, false
}
