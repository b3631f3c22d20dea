package templates

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/phraseforge/phraseforge/internal/auth"
	"github.com/rs/zerolog/log"
)

// CreateRequest represents the payload for creating a template
type CreateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Channel string `json:"channel"`
}

// UpdateRequest represents a partial template update
type UpdateRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
	Channel *string `json:"channel"`
}

// HandleList handles GET /templates. Accounts without an organization get
// an empty list, not an error.
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		list := []Template{}
		if identity.OrgID != nil {
			service := NewService(pool)
			var err error
			list, err = service.List(ctx, *identity.OrgID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to list templates")
				apperrors.WriteInternalError(w, r, "Failed to fetch templates")
				return
			}
			if list == nil {
				list = []Template{}
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"templates": list,
		})
	}
}

// HandleCreate handles POST /templates (admin only, gated in middleware)
func HandleCreate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
			apperrors.WriteBadRequest(w, r, "Name and content required")
			return
		}

		service := NewService(pool)
		created, err := service.Create(ctx, *identity.OrgID, req.Name, req.Content, req.Channel)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create template")
			apperrors.WriteInternalError(w, r, "Failed to create template")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"template": created,
		})
	}
}

// HandleUpdate handles PATCH /templates/{id} (admin only)
func HandleUpdate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		templateID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, "Template not found")
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		service := NewService(pool)
		updated, err := service.Update(ctx, *identity.OrgID, templateID, req.Name, req.Content, req.Channel)
		if err != nil {
			if errors.Is(err, ErrTemplateNotFound) {
				apperrors.WriteNotFound(w, r, "Template not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update template")
			apperrors.WriteInternalError(w, r, "Failed to update template")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"template": updated,
		})
	}
}

// HandleDelete handles DELETE /templates/{id} (admin only)
func HandleDelete(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		templateID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, "Template not found")
			return
		}

		service := NewService(pool)
		if err := service.Delete(ctx, *identity.OrgID, templateID); err != nil {
			if errors.Is(err, ErrTemplateNotFound) {
				apperrors.WriteNotFound(w, r, "Template not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete template")
			apperrors.WriteInternalError(w, r, "Failed to delete template")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message": "Template deleted",
		})
	}
}
