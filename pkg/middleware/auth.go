package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type principalKey struct{}

// Principal identifies the authenticated account for a request.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// PrincipalFrom extracts the authenticated principal from a request context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenVerifier validates a bearer token and returns the principal it
// represents. Implementations exist for locally signed JWTs and for OIDC
// id tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// ErrUnauthorized indicates a missing, malformed, or invalid bearer token.
var ErrUnauthorized = errors.New("invalid or missing bearer token")

// Auth returns middleware that requires a valid bearer token and stores the
// resulting principal in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// JWTVerifier validates HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for locally issued HS256 tokens.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Principal, error) {
	var claims authClaims
	parsed, err := jwt.ParseWithClaims(
		token, &claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthorized
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	return Principal{ID: id, Role: claims.Role}, nil
}

// OIDCVerifier validates id tokens issued by an external OIDC provider.
// The subject claim must be a UUID matching a registered issuer account.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider configuration and creates a verifier
// for the given client id.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	var claims struct {
		Role string `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Principal{}, ErrUnauthorized
	}

	id, err := uuid.Parse(idToken.Subject)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}

	return Principal{ID: id, Role: claims.Role}, nil
}
