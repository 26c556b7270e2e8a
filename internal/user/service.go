// Package user implements registration, login and the admin console's
// user and role management.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/store"
)

var (
	// ErrInvalidInput reports a malformed user or role payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBadCredentials reports a failed username/password login.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrProtectedUser reports an attempt to modify or delete an
	// administrator account through the admin console.
	ErrProtectedUser = errors.New("administrator accounts cannot be changed")
	// ErrProtectedRole reports an attempt to modify or delete a system role.
	ErrProtectedRole = errors.New("system roles cannot be changed")
	// ErrRoleInUse reports a role deletion blocked by existing users.
	ErrRoleInUse = errors.New("role is in use")
)

// Permissions is the closed permission catalog offered to role editors.
var Permissions = []string{
	"user:view", "user:create", "user:edit", "user:delete",
	"role:view", "role:create", "role:edit", "role:delete",
	"product:view", "product:create", "product:edit", "product:delete",
	"order:view", "order:create", "order:edit", "order:delete",
}

// Service wraps the user and role collections.
type Service struct {
	store store.Store
	guard *auth.Guard
}

// NewService returns a Service backed by st, issuing tokens through guard.
func NewService(st store.Store, guard *auth.Guard) *Service {
	return &Service{store: st, guard: guard}
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular user account and returns it with a fresh
// token, mirroring the login response.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (model.User, string, error) {
	if len(strings.TrimSpace(req.Username)) < 4 {
		return model.User{}, "", errors.Join(ErrInvalidInput, errors.New("username must be at least 4 characters"))
	}
	if len(req.Password) < 6 {
		return model.User{}, "", errors.Join(ErrInvalidInput, errors.New("password must be at least 6 characters"))
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.User{}, "", err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Email:        strings.TrimSpace(req.Email),
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return model.User{}, "", err
	}
	token, err := s.guard.IssueToken(u)
	if err != nil {
		return model.User{}, "", err
	}
	obs.Logger.Info("user_registered", "user_id", u.ID, "username", u.Username)
	return u, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, string, error) {
	u, err := s.store.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, "", ErrBadCredentials
	}
	if err != nil {
		return model.User{}, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return model.User{}, "", ErrBadCredentials
	}
	token, err := s.guard.IssueToken(u)
	if err != nil {
		return model.User{}, "", err
	}
	obs.Logger.Info("user_logged_in", "user_id", u.ID)
	return u, token, nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, userID string) (model.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UserPage is one page of the admin console's user listing.
type UserPage struct {
	Users []model.User
	Total int
}

// ListUsers returns users for the admin console, filtered by keyword.
func (s *Service) ListUsers(ctx context.Context, keyword string, pageIndex, pageSize int) (UserPage, error) {
	users, total, err := s.store.ListUsers(ctx, keyword, pageIndex, pageSize)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total}, nil
}

// AdminCreateUserRequest is the admin console's user creation payload.
// The role is referenced by ID and stored by name.
type AdminCreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleID   string `json:"roleId"`
	Nickname string `json:"nickname"`
}

// AdminCreateUser creates an account with an explicit role.
func (s *Service) AdminCreateUser(ctx context.Context, req AdminCreateUserRequest) (model.User, error) {
	if req.Username == "" || req.Password == "" || req.RoleID == "" {
		return model.User{}, errors.Join(ErrInvalidInput, errors.New("username, password and roleId are required"))
	}
	var created model.User
	err := s.store.Tx(ctx, func(st store.Stores) error {
		role, err := st.GetRole(ctx, req.RoleID)
		if errors.Is(err, store.ErrNotFound) {
			return errors.Join(ErrInvalidInput, errors.New("role does not exist"))
		}
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}
		nickname := req.Nickname
		if nickname == "" {
			nickname = req.Username
		}
		created = model.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			PasswordHash: hash,
			Nickname:     nickname,
			Role:         role.Name,
			CreatedAt:    time.Now().UTC(),
		}
		return st.CreateUser(ctx, created)
	})
	if err != nil {
		return model.User{}, err
	}
	obs.Logger.Info("user_created", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// AdminUpdateUserRequest carries the optional fields an admin may change.
type AdminUpdateUserRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// AdminUpdateUser patches an account. Administrator accounts are immutable
// through this path.
func (s *Service) AdminUpdateUser(ctx context.Context, id string, req AdminUpdateUserRequest) error {
	return s.store.Tx(ctx, func(st store.Stores) error {
		u, err := st.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if u.Role == model.RoleAdmin {
			return ErrProtectedUser
		}
		if req.Nickname != "" {
			u.Nickname = req.Nickname
		}
		if req.Avatar != "" {
			u.Avatar = req.Avatar
		}
		if req.Role != "" {
			u.Role = req.Role
		}
		if req.Password != "" {
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		return st.UpdateUser(ctx, u)
	})
}

// AdminDeleteUser removes an account. Administrator accounts cannot be
// deleted.
func (s *Service) AdminDeleteUser(ctx context.Context, id string) error {
	return s.store.Tx(ctx, func(st store.Stores) error {
		u, err := st.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if u.Role == model.RoleAdmin {
			return ErrProtectedUser
		}
		return st.DeleteUser(ctx, id)
	})
}

// RolePage is one page of the role listing.
type RolePage struct {
	Roles []model.RoleDef
	Total int
}

// ListRoles returns roles filtered by keyword.
func (s *Service) ListRoles(ctx context.Context, keyword string, pageIndex, pageSize int) (RolePage, error) {
	roles, total, err := s.store.ListRoles(ctx, keyword, pageIndex, pageSize)
	if err != nil {
		return RolePage{}, err
	}
	return RolePage{Roles: roles, Total: total}, nil
}

// RoleInput carries the writable role fields.
type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// CreateRole stores a new role; the permission list must not be empty.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (model.RoleDef, error) {
	if in.Name == "" {
		return model.RoleDef{}, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	if len(in.Permissions) == 0 {
		return model.RoleDef{}, errors.Join(ErrInvalidInput, errors.New("permissions must not be empty"))
	}
	r := model.RoleDef{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Permissions: in.Permissions,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		return model.RoleDef{}, err
	}
	obs.Logger.Info("role_created", "role_id", r.ID, "name", r.Name)
	return r, nil
}

// UpdateRole rewrites a role. System roles are immutable.
func (s *Service) UpdateRole(ctx context.Context, id string, in RoleInput) (model.RoleDef, error) {
	if len(in.Permissions) == 0 {
		return model.RoleDef{}, errors.Join(ErrInvalidInput, errors.New("permissions must not be empty"))
	}
	var updated model.RoleDef
	err := s.store.Tx(ctx, func(st store.Stores) error {
		r, err := st.GetRole(ctx, id)
		if err != nil {
			return err
		}
		if r.IsSystem {
			return ErrProtectedRole
		}
		r.Name = in.Name
		r.Description = in.Description
		r.Permissions = in.Permissions
		updated = r
		return st.UpdateRole(ctx, r)
	})
	if err != nil {
		return model.RoleDef{}, err
	}
	return updated, nil
}

// DeleteRole removes a role unless it is a system role or still assigned
// to users.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	return s.store.Tx(ctx, func(st store.Stores) error {
		r, err := st.GetRole(ctx, id)
		if err != nil {
			return err
		}
		if r.IsSystem {
			return ErrProtectedRole
		}
		n, err := st.CountUsersByRole(ctx, r.Name)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRoleInUse
		}
		return st.DeleteRole(ctx, id)
	})
}

// RoleOptions lists id/name/description triples for selection widgets.
func (s *Service) RoleOptions(ctx context.Context) ([]model.RoleDef, error) {
	roles, _, err := s.store.ListRoles(ctx, "", 1, 1000)
	return roles, err
}
