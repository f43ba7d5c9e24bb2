package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
	appsession "github.com/AquaViinaDev/front-admin/internal/admin/session"
)

type authContextKey struct{}

// TokenCookieName is the cookie carrying the staff ID token between requests.
const TokenCookieName = "Authorization"

// User is the authenticated staff member. Token is forwarded to the catalog
// backend as a bearer credential.
type User struct {
	UID   string
	Email string
	Roles []string
	Token string
}

// Authenticator resolves a bearer token into a User.
type Authenticator interface {
	Authenticate(r *http.Request, token string) (*User, error)
}

// ErrUnauthorized is returned when authentication fails.
var ErrUnauthorized = errors.New("unauthorized")

// AuthError carries a reason code for a failed authentication attempt.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError constructs an AuthError.
func NewAuthError(reason string, err error) error {
	return &AuthError{Reason: reason, Err: err}
}

const (
	ReasonMissingToken = "missing_token"
	ReasonTokenInvalid = "token_invalid"
	ReasonTokenExpired = "token_expired"
)

// DefaultAuthenticator accepts any non-empty token and grants the admin role.
// It exists for local development against the in-memory backend.
func DefaultAuthenticator() Authenticator {
	return passthroughAuthenticator{}
}

// Auth resolves the caller from the Authorization header or token cookie. On
// success the user is attached to the context and the request logger gains a
// user_id field; otherwise the caller is sent to loginPath.
func Auth(authenticator Authenticator, loginPath string) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = DefaultAuthenticator()
	}
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())

			token := parseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = cookieToken(r)
			}
			if token == "" {
				logger.Info("auth failure", zap.String("reason", ReasonMissingToken))
				destroySession(r.Context())
				handleUnauthorized(w, r, loginPath, ReasonMissingToken)
				return
			}

			user, err := authenticator.Authenticate(r, token)
			if err != nil || user == nil {
				reason := ReasonTokenInvalid
				var authErr *AuthError
				if errors.As(err, &authErr) && authErr.Reason != "" {
					reason = authErr.Reason
				}
				if err == nil {
					err = ErrUnauthorized
				}
				logger.Warn("auth failure", zap.String("reason", reason), zap.Error(err))
				destroySession(r.Context())
				handleUnauthorized(w, r, loginPath, reason)
				return
			}
			if user.Token == "" {
				user.Token = token
			}

			if sess, ok := SessionFromContext(r.Context()); ok {
				sess.SetUser(&appsession.User{
					UID:   user.UID,
					Email: user.Email,
					Roles: user.Roles,
				})
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = observability.WithLogger(ctx, logger.With(zap.String("user_id", observability.SanitizeUserID(user.UID))))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUser attaches the user to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, authContextKey{}, user)
}

// UserFromContext retrieves the authenticated user if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(authContextKey{}).(*User)
	return user, ok && user != nil
}

func parseBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func cookieToken(r *http.Request) string {
	for _, name := range []string{TokenCookieName, "__session"} {
		c, err := r.Cookie(name)
		if err != nil {
			continue
		}
		val := strings.TrimSpace(c.Value)
		if bearer := parseBearerToken(val); bearer != "" {
			return bearer
		}
		if val != "" {
			return val
		}
	}
	return ""
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath, reason string) {
	if IsHTMXRequest(r.Context()) {
		if reason == ReasonTokenExpired {
			w.Header().Set("HX-Refresh", "true")
		} else {
			w.Header().Set("HX-Redirect", loginPath)
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	redirectURL := loginPath
	if u, err := url.Parse(loginPath); err == nil {
		q := u.Query()
		if reason == ReasonTokenExpired {
			q.Set("reason", "expired")
		}
		if r.Method == http.MethodGet && r.URL != nil {
			q.Set("next", r.URL.RequestURI())
		}
		u.RawQuery = q.Encode()
		redirectURL = u.String()
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func destroySession(ctx context.Context) {
	if sess, ok := SessionFromContext(ctx); ok {
		sess.Destroy()
	}
}

type passthroughAuthenticator struct{}

func (passthroughAuthenticator) Authenticate(_ *http.Request, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}
	return &User{
		UID:   "local-admin",
		Email: "admin@localhost",
		Roles: []string{"admin"},
		Token: token,
	}, nil
}
