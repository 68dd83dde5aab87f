package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenMalformed is returned for values that are not a parseable JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned for correctly signed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, wrong algorithms and missing claims.
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is the caller identity asserted by a token.
type Identity struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// Claims is the JWT payload: {email, userId, iat, exp}.
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens with a single secret that is
// fixed for the lifetime of the value.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Tokens.
type Option func(*Tokens)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tokens) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tokens) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokens returns a token issuer/verifier bound to secret.
func NewTokens(secret string, opts ...Option) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	t := &Tokens{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for identity and returns it with its expiry.
func (t *Tokens) Issue(identity Identity) (string, time.Time, error) {
	now := t.now().Truncate(time.Second)
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Email:  identity.Email,
		UserID: identity.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// asserts. A nil error means the token was accepted; otherwise the error is
// one of ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalid.
func (t *Tokens) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrTokenMalformed
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrTokenExpired
		default:
			return Identity{}, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Email) == "" || strings.TrimSpace(claims.UserID) == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{Email: claims.Email, UserID: claims.UserID}, nil
}
