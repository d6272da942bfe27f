package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ApniDukan/pkg/kit"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	tokenIssuer = "apnidukan-auth"
	clockSkew   = 30 * time.Second
)

// TokenMaker signs and verifies HS256 session tokens. The gateway holds the
// same secret and verifies tokens without calling the auth service.
type TokenMaker struct {
	secret []byte
	now    func() time.Time
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{secret: []byte(secret), now: time.Now}
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) Identity() kit.Identity {
	return kit.Identity{UserID: c.UserID, Role: c.Role, Name: c.Name, Email: c.Email}
}

func (t *TokenMaker) New(u User, ttl time.Duration) (string, error) {
	now := t.now()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(t.secret)
}

// Parse rejects tokens signed with another algorithm, issued elsewhere,
// expired, or carrying a role the marketplace does not know.
func (t *TokenMaker) Parse(raw string) (Claims, error) {
	var c Claims

	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	switch {
	case c.UserID == "" || c.Subject != c.UserID:
		return Claims{}, ErrInvalidToken
	case c.Role != kit.RoleCustomer && c.Role != kit.RoleShopkeeper:
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}
