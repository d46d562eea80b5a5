// Package auth verifies bearer tokens issued by the session service and exposes the caller's role.
package auth

import (
	"errors"
	"strings"
	"time"

	"golang-ea-automation/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

const component = "auth"

// Claims is the token payload.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`

	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 tokens.
type JWT struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
}

// NewJWT creates a verifier for the given secret.
func NewJWT(secret, issuer string, ttl time.Duration) JWT {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return JWT{Secret: []byte(secret), Issuer: issuer, TokenTTL: ttl}
}

// Sign issues a token for p.
func (j JWT) Sign(p Principal) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(j.TokenTTL)
	claims := Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses token and returns its principal.
func (j JWT) Verify(token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, errs.New(component, errs.CodeUnauthenticated, errs.WithMessage("missing bearer token"))
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, errs.New(component, errs.CodeUnauthenticated, errs.WithMessage("invalid token"), errs.WithCause(err))
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, errs.New(component, errs.CodeUnauthenticated, errs.WithMessage("invalid token"))
	}
	if c.UserID == 0 && c.Role != RoleAdmin {
		return Principal{}, errs.New(component, errs.CodeUnauthenticated, errs.WithMessage("token has no subject"), errs.WithCause(errors.New("user_id missing")))
	}
	return Principal{UserID: c.UserID, Role: c.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
