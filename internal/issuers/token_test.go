package issuers_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/pkg/middleware"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	account := &issuers.Issuer{
		ID:   uuid.New(),
		Name: "State Technical Board",
		Role: issuers.RoleIssuer,
	}

	tokens := issuers.NewTokenIssuer("test-signing-key", time.Hour)

	resp, err := tokens.Issue(account)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	if resp.Issuer != account {
		t.Error("response does not carry the issuer")
	}
	if until := time.Until(resp.ExpiresAt); until < 59*time.Minute || until > time.Hour {
		t.Errorf("ExpiresAt %v outside expected window", resp.ExpiresAt)
	}

	verifier := middleware.NewJWTVerifier("test-signing-key")
	principal, err := verifier.Verify(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if principal.ID != account.ID {
		t.Errorf("principal ID = %v, want %v", principal.ID, account.ID)
	}
	if principal.Role != issuers.RoleIssuer {
		t.Errorf("principal Role = %q, want issuer", principal.Role)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	tokens := issuers.NewTokenIssuer("key-one", time.Hour)
	resp, err := tokens.Issue(&issuers.Issuer{ID: uuid.New(), Role: issuers.RoleIssuer})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	verifier := middleware.NewJWTVerifier("key-two")
	if _, err := verifier.Verify(context.Background(), resp.Token); err == nil {
		t.Error("token signed with a different key verified")
	}
}
