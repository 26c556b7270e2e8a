package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/store"
	"github.com/mallkit/shop-admin-api/internal/store/memstore"
)

func newFixture(t *testing.T) (*Service, *memstore.Store, *auth.Guard) {
	t.Helper()
	st := memstore.New()
	guard := auth.NewGuard("test-secret", time.Hour)
	return NewService(st, guard), st, guard
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, guard := newFixture(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleUser {
		t.Fatalf("expected user role, got %q", u.Role)
	}
	if u.PasswordHash == "secret123" || u.PasswordHash == "" {
		t.Fatal("password not hashed")
	}
	id, err := guard.Authenticate(token)
	if err != nil || id.UserID != u.ID {
		t.Fatalf("token does not authenticate: %v", err)
	}

	_, _, err = svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_, _, err = svc.Login(ctx, "alice", "wrong")
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	_, _, err = svc.Login(ctx, "nobody", "secret123")
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user must look like bad credentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterRequest{Username: "ab", Password: "secret123"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short username: %v", err)
	}
	if _, _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "short"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short password: %v", err)
	}
	if _, _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret123"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate username: %v", err)
	}
}

func TestAdminUserManagement(t *testing.T) {
	svc, st, _ := newFixture(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, RoleInput{Name: "editor", Permissions: []string{"product:edit"}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AdminCreateUser(ctx, AdminCreateUserRequest{Username: "bob"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing fields: %v", err)
	}
	if _, err := svc.AdminCreateUser(ctx, AdminCreateUserRequest{Username: "bob", Password: "secret123", RoleID: "ghost"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: %v", err)
	}

	created, err := svc.AdminCreateUser(ctx, AdminCreateUserRequest{Username: "bob", Password: "secret123", RoleID: role.ID})
	if err != nil {
		t.Fatal(err)
	}
	if created.Role != "editor" || created.Nickname != "bob" {
		t.Fatalf("unexpected user: %+v", created)
	}

	if err := svc.AdminUpdateUser(ctx, created.ID, AdminUpdateUserRequest{Nickname: "Bobby"}); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetUser(ctx, created.ID)
	if got.Nickname != "Bobby" {
		t.Fatalf("nickname not updated: %+v", got)
	}

	adminUser := model.User{ID: "u-admin", Username: "root", Role: model.RoleAdmin, CreatedAt: time.Now()}
	if err := st.CreateUser(ctx, adminUser); err != nil {
		t.Fatal(err)
	}
	if err := svc.AdminUpdateUser(ctx, "u-admin", AdminUpdateUserRequest{Nickname: "x"}); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("admin update must be blocked: %v", err)
	}
	if err := svc.AdminDeleteUser(ctx, "u-admin"); !errors.Is(err, ErrProtectedUser) {
		t.Fatalf("admin delete must be blocked: %v", err)
	}

	if err := svc.AdminDeleteUser(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetUser(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("user not deleted: %v", err)
	}
}

func TestRoleManagement(t *testing.T) {
	svc, st, _ := newFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateRole(ctx, RoleInput{Name: "editor"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty permissions: %v", err)
	}
	role, err := svc.CreateRole(ctx, RoleInput{Name: "editor", Permissions: []string{"product:edit"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRole(ctx, RoleInput{Name: "editor", Permissions: []string{"x"}}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate role name: %v", err)
	}

	updated, err := svc.UpdateRole(ctx, role.ID, RoleInput{Name: "chief-editor", Permissions: []string{"product:edit", "product:delete"}})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "chief-editor" || len(updated.Permissions) != 2 {
		t.Fatalf("unexpected role: %+v", updated)
	}

	sys := model.RoleDef{ID: "r-sys", Name: "admin", Permissions: []string{"*"}, IsSystem: true, CreatedAt: time.Now()}
	if err := st.CreateRole(ctx, sys); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateRole(ctx, "r-sys", RoleInput{Name: "admin", Permissions: []string{"*"}}); !errors.Is(err, ErrProtectedRole) {
		t.Fatalf("system role update must be blocked: %v", err)
	}
	if err := svc.DeleteRole(ctx, "r-sys"); !errors.Is(err, ErrProtectedRole) {
		t.Fatalf("system role delete must be blocked: %v", err)
	}

	if _, err := svc.AdminCreateUser(ctx, AdminCreateUserRequest{Username: "bob", Password: "secret123", RoleID: role.ID}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRole(ctx, role.ID); !errors.Is(err, ErrRoleInUse) {
		t.Fatalf("in-use role delete must be blocked: %v", err)
	}

	empty, err := svc.CreateRole(ctx, RoleInput{Name: "unused", Permissions: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRole(ctx, empty.ID); err != nil {
		t.Fatal(err)
	}

	page, err := svc.ListRoles(ctx, "chief", 1, 10)
	if err != nil || page.Total != 1 {
		t.Fatalf("keyword listing: %v %+v", err, page)
	}
}
