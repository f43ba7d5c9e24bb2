package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubFirebaseVerifier struct {
	token *firebaseauth.Token
	err   error
}

func (s *stubFirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	return s.token, s.err
}

func TestFirebaseAuthenticatorSuccess(t *testing.T) {
	verifier := &stubFirebaseVerifier{
		token: &firebaseauth.Token{
			UID: "user-123",
			Claims: map[string]any{
				"email": "manager@aquaviina.md",
				"role":  []any{"admin", "editor"},
			},
		},
	}

	auth := NewFirebaseAuthenticator(verifier)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)

	user, err := auth.Authenticate(req, "good-token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.UID != "user-123" {
		t.Fatalf("unexpected uid %s", user.UID)
	}
	if user.Email != "manager@aquaviina.md" {
		t.Fatalf("unexpected email %s", user.Email)
	}
	if len(user.Roles) != 2 || user.Roles[0] != "admin" || user.Roles[1] != "editor" {
		t.Fatalf("unexpected roles %#v", user.Roles)
	}
}

func TestFirebaseAuthenticatorHandlesExpiredToken(t *testing.T) {
	verifier := &stubFirebaseVerifier{
		err: ErrTokenExpired,
	}
	auth := NewFirebaseAuthenticator(verifier)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "expired")
	if err == nil {
		t.Fatalf("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected auth error")
	}
	if authErr.Reason != ReasonTokenExpired {
		t.Fatalf("expected token_expired, got %s", authErr.Reason)
	}
}

func TestFirebaseAuthenticatorRejectsMissingToken(t *testing.T) {
	auth := NewFirebaseAuthenticator(&stubFirebaseVerifier{})
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "  ")
	if err == nil {
		t.Fatalf("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected auth error")
	}
	if authErr.Reason != ReasonMissingToken {
		t.Fatalf("expected missing_token, got %s", authErr.Reason)
	}
}

func TestFirebaseAuthenticatorReadsRoleMapClaim(t *testing.T) {
	verifier := &stubFirebaseVerifier{
		token: &firebaseauth.Token{
			UID:    "viewer-1",
			Claims: map[string]any{"roles": map[string]any{"viewer": true, "editor": false}},
		},
	}
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	user, err := NewFirebaseAuthenticator(verifier).Authenticate(req, "tok")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "viewer" {
		t.Fatalf("unexpected roles %#v", user.Roles)
	}
	if user.Token != "tok" {
		t.Fatalf("token should be kept for backend calls")
	}
}

func TestFirebaseAuthenticatorInvalidToken(t *testing.T) {
	auth := NewFirebaseAuthenticator(&stubFirebaseVerifier{err: errors.New("signature mismatch")})
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.Authenticate(req, "forged")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != ReasonTokenInvalid {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestFirebaseAuthenticatorKeepsCatalogRolesOnly(t *testing.T) {
	cases := []struct {
		name   string
		claims map[string]any
		want   []string
	}{
		{name: "unknown roles dropped", claims: map[string]any{"roles": []any{"Editor", "warehouse", 7}}, want: []string{"editor"}},
		{name: "comma separated role", claims: map[string]any{"role": "viewer, editor"}, want: []string{"viewer", "editor"}},
		{name: "admin flag", claims: map[string]any{"admin": true, "role": "admin"}, want: []string{"admin"}},
		{name: "no catalog roles", claims: map[string]any{"role": "customer"}, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &stubFirebaseVerifier{token: &firebaseauth.Token{UID: "u", Claims: tc.claims}}
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			user, err := NewFirebaseAuthenticator(verifier).Authenticate(req, "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(user.Roles) != len(tc.want) {
				t.Fatalf("roles = %#v, want %#v", user.Roles, tc.want)
			}
			for i := range tc.want {
				if user.Roles[i] != tc.want[i] {
					t.Fatalf("roles = %#v, want %#v", user.Roles, tc.want)
				}
			}
		})
	}
}
