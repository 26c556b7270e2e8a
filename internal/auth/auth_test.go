package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mallkit/shop-admin-api/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "secret123" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword(hash, "secret123") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	g := NewGuard("test-secret", time.Hour)
	u := model.User{ID: "u-1", Role: model.RoleAdmin}
	tok, err := g.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	id, err := g.Authenticate(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u-1" || id.Role != model.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !id.IsAdmin() {
		t.Fatal("expected admin identity")
	}
}

func TestTokenRejections(t *testing.T) {
	g := NewGuard("test-secret", time.Hour)
	if _, err := g.Authenticate(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token: %v", err)
	}
	if _, err := g.Authenticate("not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token: %v", err)
	}

	expired, err := g.IssueTokenTTL(model.User{ID: "u-1", Role: model.RoleUser}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authenticate(expired); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token accepted: %v", err)
	}

	other := NewGuard("different-secret", time.Hour)
	tok, err := other.IssueToken(model.User{ID: "u-1", Role: model.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authenticate(tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign-secret token accepted: %v", err)
	}
}

func TestOrderPolicy(t *testing.T) {
	owner := Identity{UserID: "u-1", Role: model.RoleUser}
	stranger := Identity{UserID: "u-2", Role: model.RoleUser}
	admin := Identity{UserID: "u-9", Role: model.RoleAdmin}
	o := model.Order{ID: "o-1", UserID: "u-1"}

	if !CanViewOrder(owner, o) || !CanViewOrder(admin, o) {
		t.Fatal("owner/admin should view")
	}
	if CanViewOrder(stranger, o) {
		t.Fatal("stranger should not view")
	}
	if !CanCancelOrder(owner, o) {
		t.Fatal("owner should cancel")
	}
	if CanCancelOrder(admin, o) || CanCancelOrder(stranger, o) {
		t.Fatal("only the owner cancels")
	}
}
