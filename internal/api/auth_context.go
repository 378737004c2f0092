package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/renovatuludoteca/ludoteca-server/internal/auth"
	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// claimsKey is the context key for verified access token claims.
const claimsKey ctxKey = "claims"

// GetClaims returns the verified token claims from context.
// Returns 401 error if the request is not authenticated.
func GetClaims(ctx context.Context) (*auth.AccessClaims, error) {
	claims, ok := ctx.Value(claimsKey).(*auth.AccessClaims)
	if !ok || claims == nil {
		return nil, domainerrors.Unauthorized("Authentication required")
	}
	return claims, nil
}

func setClaims(ctx context.Context, claims *auth.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// authMiddleware validates Bearer tokens and stores the claims in context.
// If no token is present or it is invalid, the request continues
// unauthenticated; handlers call RequireAuth or RequireAdmin.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || tokens == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setClaims(r.Context(), claims)))
		})
	}
}

// RequireAuth returns the caller's subject or a 401 error.
func (s *Server) RequireAuth(ctx context.Context) (string, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// RequireAdmin validates the caller is authenticated with an admin token.
func (s *Server) RequireAdmin(ctx context.Context) (string, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return "", err
	}
	if !claims.Admin {
		return "", domainerrors.Forbidden("Admin access required")
	}
	return claims.Subject, nil
}
