package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
)

// ErrTokenExpired marks an ID token past its expiry.
var ErrTokenExpired = errors.New("firebase token expired")

// FirebaseTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseAuthenticator signs catalog staff in with Firebase ID tokens.
type FirebaseAuthenticator struct {
	verifier FirebaseTokenVerifier
}

// NewFirebaseAuthenticator panics on a nil verifier.
func NewFirebaseAuthenticator(verifier FirebaseTokenVerifier) *FirebaseAuthenticator {
	if verifier == nil {
		panic("middleware: firebase token verifier is nil")
	}
	return &FirebaseAuthenticator{verifier: verifier}
}

// Authenticate resolves the staff member behind token. Catalog roles are read
// from the "role" and "roles" claims; a boolean "admin" claim grants the admin
// role. Claims naming roles the catalog does not know are ignored, so a token
// without catalog roles authenticates but holds no capabilities.
func (f *FirebaseAuthenticator) Authenticate(r *http.Request, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}

	verified, err := f.verifier.VerifyIDToken(r.Context(), token)
	if err != nil {
		if firebaseauth.IsIDTokenExpired(err) || errors.Is(err, ErrTokenExpired) {
			return nil, NewAuthError(ReasonTokenExpired, err)
		}
		return nil, NewAuthError(ReasonTokenInvalid, err)
	}

	return &User{
		UID:   verified.UID,
		Email: emailClaim(verified.Claims),
		Roles: catalogRoles(verified.Claims),
		Token: token,
	}, nil
}

func emailClaim(claims map[string]any) string {
	email, _ := claims["email"].(string)
	return strings.ToLower(strings.TrimSpace(email))
}

func catalogRoles(claims map[string]any) []string {
	var raw []string
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			raw = append(raw, strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })...)
		case []string:
			raw = append(raw, v...)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					raw = append(raw, s)
				}
			}
		case map[string]any:
			for name, granted := range v {
				if b, ok := granted.(bool); ok && b {
					raw = append(raw, name)
				}
			}
		}
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		raw = append(raw, string(rbac.RoleAdmin))
	}

	var roles []string
	for _, role := range rbac.NormaliseRoles(raw) {
		if role.Known() {
			roles = append(roles, string(role))
		}
	}
	return roles
}
