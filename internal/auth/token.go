// Package auth issues and verifies the HS256 access tokens that identify a
// user. Tokens carry identity only; the role and membership status are looked
// up on every request so changes take effect immediately.
package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. Subject holds the user ID.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses access tokens with a shared secret.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewTokenManager returns a manager for secret. An empty issuer disables the
// issuer check; a zero ttl defaults to one hour.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (m *TokenManager) Issue(userID, name string) (string, error) {
	now := m.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates raw and returns its claims. Only HS256 is accepted.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
