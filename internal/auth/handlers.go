package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/phraseforge/phraseforge/internal/accounts"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/phraseforge/phraseforge/internal/audit"
	"github.com/rs/zerolog/log"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// RegisteredUser is the user shape returned on registration
type RegisteredUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}

// UserResponse is the full user shape returned by login and /auth/me
type UserResponse struct {
	ID    uuid.UUID        `json:"id"`
	Email string           `json:"email"`
	Name  *string          `json:"name"`
	Role  accounts.Role    `json:"role"`
	Org   *accounts.OrgRef `json:"org"`
}

// HandleRegister handles POST /auth/register
func HandleRegister(svc *accounts.Service, auditor *audit.Writer, jwtSecret string, sessionDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || strings.TrimSpace(req.Password) == "" {
			apperrors.WriteBadRequest(w, r, "Email and password required")
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid email address")
			return
		}

		account, err := svc.Register(ctx, req.Email, req.Password, req.Name)
		if err != nil {
			if errors.Is(err, accounts.ErrEmailTaken) {
				apperrors.WriteConflict(w, r, "Email already registered")
				return
			}
			log.Error().Err(err).Msg("Failed to register account")
			apperrors.WriteInternalError(w, r, "Registration failed")
			return
		}

		if err := auditor.LogRegistered(ctx, account.ID, account.Email); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		token, err := CreateToken(account.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		log.Info().
			Str("account_id", account.ID.String()).
			Str("email", account.Email).
			Msg("Account registered")

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"user": RegisteredUser{
				ID:    account.ID,
				Email: account.Email,
				Name:  account.Name,
			},
			"token": token,
		})
	}
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login
func HandleLogin(svc *accounts.Service, auditor *audit.Writer, jwtSecret string, sessionDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		account, err := svc.VerifyCredentials(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, accounts.ErrInvalidCredentials) {
				log.Debug().Str("email", req.Email).Msg("Login failed")
				apperrors.WriteUnauthorized(w, r, "Invalid credentials")
				return
			}
			log.Error().Err(err).Msg("Failed to verify credentials")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		identity, err := svc.LoadIdentity(ctx, account.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load identity")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		token, err := CreateToken(account.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		if err := auditor.LogLogin(ctx, account.ID, account.Email); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		log.Info().
			Str("account_id", account.ID.String()).
			Str("email", account.Email).
			Msg("Account logged in")

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user":  userFromIdentity(*identity),
			"token": token,
		})
	}
}

// HandleMe handles GET /auth/me
func HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": userFromIdentity(identity),
		})
	}
}

func userFromIdentity(identity accounts.Identity) UserResponse {
	return UserResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		Org:   identity.Org,
	}
}
