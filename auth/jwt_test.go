package auth_test

import (
	"testing"
	"time"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
)

func newTokenService(t *testing.T, cfg auth.TokenConfig) *auth.TokenService {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	svc, err := auth.NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestTokenService_RequiresSecret(t *testing.T) {
	if _, err := auth.NewTokenService(auth.TokenConfig{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := newTokenService(t, auth.TokenConfig{})
	if got := svc.TTL(); got != 2*time.Minute {
		t.Fatalf("expected default TTL of 2m, got %s", got)
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTokenService(t, auth.TokenConfig{Issuer: "registry"})

	token, err := svc.Issue("admin", auth.AccessAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "admin" {
		t.Fatalf("expected username admin, got %s", claims.Username)
	}
	if claims.Access != auth.AccessAdmin {
		t.Fatalf("expected admin access, got %s", claims.Access)
	}
	if claims.Issuer != "registry" {
		t.Fatalf("expected issuer registry, got %s", claims.Issuer)
	}
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newTokenService(t, auth.TokenConfig{TTL: -time.Minute})

	token, err := svc.Issue("admin", auth.AccessAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.IsCode(err, errors.ErrCodeTokenExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := newTokenService(t, auth.TokenConfig{Secret: "secret-a"})
	verifier := newTokenService(t, auth.TokenConfig{Secret: "secret-b"})

	token, err := issuer.Issue("self-service", auth.AccessSelf)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.IsCode(err, errors.ErrCodeInvalidToken) {
		t.Fatalf("expected INVALID_TOKEN, got %v", err)
	}
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc := newTokenService(t, auth.TokenConfig{})

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(tok); !errors.IsCode(err, errors.ErrCodeInvalidToken) {
			t.Fatalf("token %q: expected INVALID_TOKEN, got %v", tok, err)
		}
	}
}
