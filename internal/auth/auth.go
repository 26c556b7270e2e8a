// Package auth implements credential checking, token issuing and the
// authorization policy consulted by the services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mallkit/shop-admin-api/internal/model"
)

var (
	// ErrUnauthorized reports a missing, malformed or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden reports an authenticated caller lacking the right to act.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the authenticated caller: a user ID plus a role.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller holds the administrator role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// CanViewOrder allows the order's owner and administrators.
func CanViewOrder(id Identity, o model.Order) bool {
	return id.IsAdmin() || o.UserID == id.UserID
}

// CanCancelOrder allows only the order's owner; administrators do not
// cancel on a user's behalf.
func CanCancelOrder(id Identity, o model.Order) bool {
	return o.UserID == id.UserID
}

// HashPassword returns a bcrypt hash of the plaintext password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Guard issues and verifies HS256 bearer tokens.
type Guard struct {
	secret []byte
	ttl    time.Duration
}

// NewGuard builds a Guard signing with secret; ttl is the default token
// lifetime.
func NewGuard(secret string, ttl time.Duration) *Guard {
	return &Guard{secret: []byte(secret), ttl: ttl}
}

// IssueToken signs a token for the user with the Guard's default lifetime.
func (g *Guard) IssueToken(u model.User) (string, error) {
	return g.IssueTokenTTL(u, g.ttl)
}

// IssueTokenTTL signs a token with an explicit lifetime.
func (g *Guard) IssueTokenTTL(u model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a bearer token and returns the caller identity.
func (g *Guard) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid || c.Subject == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{UserID: c.Subject, Role: c.Role}, nil
}
