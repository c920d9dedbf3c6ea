package issuers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenResponse is the authentication payload returned on register and login.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Issuer    *Issuer   `json:"issuer"`
}

// TokenIssuer signs HS256 bearer tokens for authenticated issuers.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer with the given signing key and
// token lifetime.
func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(signingKey),
		ttl:    ttl,
	}
}

// Issue signs a token for the issuer account. The subject claim carries the
// account id and the role claim its role.
func (t *TokenIssuer) Issue(issuer *Issuer) (*TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(t.ttl)

	claims := jwt.MapClaims{
		"sub":  issuer.ID.String(),
		"role": issuer.Role,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Issuer:    issuer,
	}, nil
}
