package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "github.com/AquaViinaDev/front-admin/internal/admin/httpserver/middleware"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
	"github.com/AquaViinaDev/front-admin/internal/admin/templates/auth"
)

type authHandlers struct {
	authenticator custommw.Authenticator
	basePath      string
	loginPath     string
	secureCookie  bool
}

func newAuthHandlers(authenticator custommw.Authenticator, basePath string, secureCookie bool) *authHandlers {
	if authenticator == nil {
		panic("auth: authenticator is required")
	}
	basePath = normalizeBase(basePath)
	return &authHandlers{
		authenticator: authenticator,
		basePath:      basePath,
		loginPath:     joinPath(basePath, "/login"),
		secureCookie:  secureCookie,
	}
}

// LoginForm renders the sign-in screen, or skips it for a signed-in session.
func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.isAuthenticated(r) && !forceLogin(r) {
		http.Redirect(w, r, h.redirectTarget(r.URL.Query().Get("next")), http.StatusFound)
		return
	}
	h.renderLoginPage(w, r, h.loginPageData(r, nil), http.StatusOK)
}

// LoginSubmit verifies the submitted ID token and stores the caller in the session.
func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		state := &loginFormState{Error: "Не удалось отправить форму. Попробуйте ещё раз."}
		h.renderLoginPage(w, r, h.loginPageData(r, state), http.StatusBadRequest)
		return
	}

	state := &loginFormState{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Remember: parseCheckbox(r.PostFormValue("remember")),
		Next:     r.PostFormValue("next"),
	}
	token := strings.TrimSpace(r.PostFormValue("id_token"))
	if token == "" {
		state.Error = "Введите ID-токен."
		h.renderLoginPage(w, r, h.loginPageData(r, state), http.StatusBadRequest)
		return
	}

	user, err := h.authenticator.Authenticate(r, token)
	if err != nil || user == nil {
		logger.Warn("admin login failed", zap.Error(err))
		state.Error = loginErrorMessage(err)
		h.renderLoginPage(w, r, h.loginPageData(r, state), http.StatusUnauthorized)
		return
	}

	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		if user.Email == "" {
			user.Email = state.Email
		}
		sess.SetUser(&appsession.User{
			UID:   user.UID,
			Email: user.Email,
			Roles: append([]string(nil), user.Roles...),
		})
		sess.SetRememberMe(state.Remember)
	}
	logger.Info("admin login", zap.String("user_id", observability.SanitizeUserID(user.UID)))

	issued := token
	if user.Token != "" {
		issued = user.Token
	}
	h.setAuthCookie(w, r, issued, state.Remember)

	target := h.redirectTarget(state.Next)
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout destroys the session and clears the token cookie.
func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}
	h.clearAuthCookie(w)

	redirect := h.loginPath + "?status=logged_out"
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", redirect)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

type loginFormState struct {
	Email    string
	Remember bool
	Next     string
	Error    string
}

func (h *authHandlers) loginPageData(r *http.Request, state *loginFormState) auth.LoginPageData {
	q := r.URL.Query()
	data := auth.LoginPageData{
		Email:     strings.TrimSpace(q.Get("email")),
		Message:   loginQueryMessage(q),
		Next:      h.normalizeNext(q.Get("next")),
		LoginPath: h.loginPath,
		CSRFField: custommw.CSRFFormField,
		CSRFToken: custommw.CSRFTokenFromContext(r.Context()),
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		data.Remember = sess.RememberMe()
	}
	if state != nil {
		data.Email = state.Email
		data.Error = state.Error
		data.Remember = state.Remember
		if state.Next != "" {
			data.Next = h.normalizeNext(state.Next)
		}
	}
	return data
}

func (h *authHandlers) renderLoginPage(w http.ResponseWriter, r *http.Request, data auth.LoginPageData, status int) {
	templ.Handler(auth.LoginPage(data), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *authHandlers) isAuthenticated(r *http.Request) bool {
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		return false
	}
	user := sess.User()
	return user != nil && strings.TrimSpace(user.UID) != ""
}

func loginErrorMessage(err error) string {
	var authErr *custommw.AuthError
	if errors.As(err, &authErr) && authErr.Reason == custommw.ReasonTokenExpired {
		return "Срок действия токена истёк. Войдите снова."
	}
	if err == nil || errors.Is(err, custommw.ErrUnauthorized) || authErr != nil {
		return "Не удалось подтвердить вход. Проверьте данные."
	}
	return "Вход временно недоступен. Попробуйте позже."
}

func loginQueryMessage(q url.Values) string {
	if q.Get("status") == "logged_out" {
		return "Вы вышли из системы."
	}
	switch q.Get("reason") {
	case custommw.ReasonTokenExpired, "expired":
		return "Сессия истекла. Войдите снова."
	case custommw.ReasonTokenInvalid:
		return "Данные входа недействительны."
	default:
		return ""
	}
}

func (h *authHandlers) redirectTarget(raw string) string {
	if next := h.normalizeNext(raw); next != "" {
		return next
	}
	return joinPath(h.basePath, "/products")
}

func (h *authHandlers) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, remember bool) {
	value := token
	if !strings.HasPrefix(strings.ToLower(token), "bearer ") {
		value = "Bearer " + token
	}
	cookie := &http.Cookie{
		Name:     custommw.TokenCookieName,
		Value:    value,
		Path:     h.basePath,
		HttpOnly: true,
		Secure:   h.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		if sess, ok := custommw.SessionFromContext(r.Context()); ok {
			if expiry := sess.ExpiresAt(); !expiry.IsZero() {
				cookie.Expires = expiry.UTC()
				if remaining := time.Until(expiry); remaining > 0 {
					cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
				}
			}
		}
	}
	http.SetCookie(w, cookie)
}

func (h *authHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     custommw.TokenCookieName,
		Value:    "",
		Path:     h.basePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

func forceLogin(r *http.Request) bool {
	return parseCheckbox(r.URL.Query().Get("force"))
}

func (h *authHandlers) normalizeNext(raw string) string {
	sanitized := sanitizeNextTarget(h.basePath, raw)
	if sanitized == "" {
		return ""
	}
	if parsed, err := url.Parse(sanitized); err == nil && normalizeBase(parsed.Path) == h.loginPath {
		return ""
	}
	return sanitized
}

// sanitizeNextTarget accepts only same-origin paths under basePath.
func sanitizeNextTarget(basePath, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return ""
	}

	pathValue := parsed.Path
	if pathValue == "" {
		pathValue = "/"
	}
	unescaped, err := url.PathUnescape(pathValue)
	if err != nil || strings.Contains(unescaped, "\\") {
		return ""
	}
	cleaned := path.Clean("/" + strings.TrimLeft(unescaped, " "))
	if strings.HasPrefix(unescaped, "//") || strings.HasPrefix(cleaned, "//") {
		return ""
	}

	base := normalizeBase(basePath)
	if base != "/" && cleaned != base && !strings.HasPrefix(cleaned, base+"/") {
		return ""
	}

	target := cleaned
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		target += "#" + parsed.Fragment
	}
	return target
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(base, "/")
}

func joinPath(base, suffix string) string {
	if base == "/" {
		return suffix
	}
	return base + suffix
}
