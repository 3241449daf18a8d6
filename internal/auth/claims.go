package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// Roles recognized by the back office. Issuance lives elsewhere; this
// package only verifies and extracts.
const (
	RoleAdmin          = "admin"
	RoleZoneManager    = "gerente_zona"
	RoleStationManager = "gerente_estacion"
)

// Claims is the token payload the back office cares about.
type Claims struct {
	jwt.RegisteredClaims
	ActorID int64  `json:"actor_id"`
	Role    string `json:"role"`
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, eris.Wrap(err, "parse token")
	}
	if !token.Valid {
		return nil, eris.New("invalid token")
	}
	return claims, nil
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the verified identity on the request context.
func WithIdentity(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, identityKey, claims)
}

// IdentityFrom returns the verified identity, if any.
func IdentityFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(identityKey).(*Claims)
	return claims, ok
}

// ActorFrom returns the acting user id, 0 when unauthenticated.
func ActorFrom(ctx context.Context) int64 {
	if claims, ok := IdentityFrom(ctx); ok {
		return claims.ActorID
	}
	return 0
}
