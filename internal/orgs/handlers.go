package orgs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/phraseforge/phraseforge/internal/audit"
	"github.com/phraseforge/phraseforge/internal/auth"
	"github.com/rs/zerolog/log"
)

// CreateRequest represents the request to create an organization
type CreateRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /org
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			apperrors.WriteBadRequest(w, r, "Organization name required")
			return
		}

		service := NewService(pool)
		org, err := service.Create(ctx, identity.ID, req.Name)
		if err != nil {
			if errors.Is(err, ErrAlreadyInOrg) {
				apperrors.WriteConflict(w, r, "Already in an organization")
				return
			}
			if errors.Is(err, ErrSlugConflict) {
				apperrors.WriteConflict(w, r, "Organization slug already exists")
				return
			}
			log.Error().Err(err).Msg("Failed to create organization")
			apperrors.WriteInternalError(w, r, "Failed to create organization")
			return
		}

		if err := auditor.LogOrgCreated(ctx, identity.ID, org.ID, org.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"org": org,
		})
	}
}

// HandleGet handles GET /org
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		if identity.OrgID == nil {
			apperrors.WriteNotFound(w, r, "Not in an organization")
			return
		}

		service := NewService(pool)
		detail, err := service.Get(ctx, *identity.OrgID)
		if err != nil {
			if errors.Is(err, ErrOrgNotFound) {
				apperrors.WriteNotFound(w, r, "Organization not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get organization")
			apperrors.WriteInternalError(w, r, "Failed to get organization")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"org": detail,
		})
	}
}
