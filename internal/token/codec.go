// Package token issues and verifies the HS256 bearer tokens that carry
// identity claims between login and every later request.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saas-backoffice/internal/model"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = 24 * time.Hour

var (
	ErrConfig       = errors.New("token: signing secret is not configured")
	ErrInvalidToken = errors.New("token: invalid token")
	ErrExpired      = errors.New("token: token expired")
)

type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// wireClaims is the JWT payload. iat and exp are numeric seconds since epoch.
type wireClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
}

func NewCodec(opts Options) (*Codec, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, ErrConfig
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Codec{
		secret: []byte(opts.Secret),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		now:    opts.Now,
		// Expiry is checked by Decode itself so that a bad signature and an
		// expired token stay distinguishable.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs claims. Zero IssuedAt/ExpiresAt default to now and now+TTL.
// The returned claims are exactly what Decode will yield for the token.
func (c *Codec) Issue(claims model.Claims) (string, model.Claims, error) {
	if !claims.Role.Valid() {
		return "", model.Claims{}, fmt.Errorf("issue token: %w: %q", model.ErrUnknownRole, claims.Role)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", model.Claims{}, fmt.Errorf("issue token: subject is required")
	}

	if claims.IssuedAt.IsZero() {
		claims.IssuedAt = c.now()
	}
	claims.IssuedAt = claims.IssuedAt.UTC().Truncate(time.Second)
	if claims.ExpiresAt.IsZero() {
		claims.ExpiresAt = claims.IssuedAt.Add(c.ttl)
	}
	claims.ExpiresAt = claims.ExpiresAt.UTC().Truncate(time.Second)

	wire := wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Username: claims.Username,
		TenantID: claims.TenantID,
		Role:     claims.Role.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.secret)
	if err != nil {
		return "", model.Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// Decode verifies the signature and issuer, then the expiry. Failures wrap
// ErrInvalidToken or ErrExpired.
func (c *Codec) Decode(raw string) (model.Claims, error) {
	var wire wireClaims
	_, err := c.parser.ParseWithClaims(raw, &wire, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if wire.ExpiresAt == nil {
		return model.Claims{}, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	if strings.TrimSpace(wire.Subject) == "" {
		return model.Claims{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	// Claims validation is off in the parser, so the issuer is checked here.
	if c.issuer != "" && wire.Issuer != c.issuer {
		return model.Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, wire.Issuer)
	}

	role, err := model.ParseRole(wire.Role)
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := model.Claims{
		Subject:   wire.Subject,
		Username:  wire.Username,
		TenantID:  wire.TenantID,
		Role:      role,
		ExpiresAt: wire.ExpiresAt.Time.UTC(),
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time.UTC()
	}

	if !claims.ExpiresAt.After(c.now()) {
		return model.Claims{}, fmt.Errorf("%w: expired at %s", ErrExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	return claims, nil
}
