package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/phraseforge/phraseforge/internal/accounts"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const identityContextKey contextKey = "identity"

// RequireAuth verifies the bearer session token and resolves the account
// into an immutable identity snapshot stored in the request context.
// The account is reloaded from storage on every request, never cached, so
// role and membership changes take effect immediately on the next call.
func RequireAuth(svc *accounts.Service, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				apperrors.WriteUnauthorized(w, r, "Authentication required")
				return
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				log.Debug().Err(err).Msg("Invalid session token")
				apperrors.WriteUnauthorized(w, r, "Invalid token")
				return
			}

			identity, err := svc.LoadIdentity(r.Context(), claims.AccountID)
			if err != nil {
				if errors.Is(err, accounts.ErrAccountNotFound) {
					apperrors.WriteUnauthorized(w, r, "Account not found")
					return
				}
				log.Error().Err(err).Msg("Failed to load identity")
				apperrors.WriteInternalError(w, r, "Authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOrgAdmin gates organization-management and tenant-admin routes.
// Being in no organization and holding an insufficient role both answer 403.
func RequireOrgAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity.OrgID == nil {
			apperrors.WriteForbidden(w, r, "Not part of an organization")
			return
		}
		if !identity.Role.IsAdmin() {
			apperrors.WriteForbidden(w, r, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity retrieves the identity snapshot from the request context.
// Only meaningful below RequireAuth; the zero value is returned otherwise.
func GetIdentity(ctx context.Context) accounts.Identity {
	identity, ok := ctx.Value(identityContextKey).(accounts.Identity)
	if !ok {
		return accounts.Identity{}
	}
	return identity
}

// BearerToken extracts the token from the Authorization header.
// Returns an empty string when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
