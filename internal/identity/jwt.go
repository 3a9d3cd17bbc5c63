// Package identity answers "who is the current shopper" from a bearer token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nikolayk812/partscart/internal/domain"
)

type tokenKey struct{}

// WithToken attaches the raw bearer token of the current request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// JWTProvider verifies HS256 tokens whose subject is the shopper id.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret []byte) *JWTProvider {
	return &JWTProvider{secret: secret}
}

// CurrentIdentity returns a guest when no token is attached. A token that is
// present but invalid fails closed instead of falling back to a guest cart.
func (p *JWTProvider) CurrentIdentity(ctx context.Context) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err)
	}

	raw := tokenFromContext(ctx)
	if raw == "" {
		return domain.Identity{}, nil
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: jwt.ParseWithClaims: %w", domain.ErrIdentityUnavailable, err)
	}

	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, errors.New("token has no subject"))
	}

	return domain.Identity{ID: claims.Subject}, nil
}

// Sign issues a token for shopperID. The storefront's sign-in flow owns token
// issuance; this exists for tooling and tests.
func (p *JWTProvider) Sign(shopperID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   shopperID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("token.SignedString: %w", err)
	}

	return signed, nil
}
