package slangs

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

// SlangRequest represents the payload for adding a slang
type SlangRequest struct {
	Slang      string `json:"slang"`
	Meaning    string `json:"meaning"`
	IsApproved *bool  `json:"isApproved"`
}

// HandleList handles GET /slangs: the account's personal vocabulary plus
// the approved shared vocabulary of its organization, if any.
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		service := NewService(pool)
		personal, err := service.ListPersonal(ctx, identity.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list personal slangs")
			apperrors.WriteInternalError(w, r, "Failed to fetch slangs")
			return
		}

		org := []PersonalSlang{}
		if identity.OrgID != nil {
			org, err = service.ListOrgApproved(ctx, *identity.OrgID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to list org slangs")
				apperrors.WriteInternalError(w, r, "Failed to fetch slangs")
				return
			}
		}

		if personal == nil {
			personal = []PersonalSlang{}
		}
		if org == nil {
			org = []PersonalSlang{}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"personal": personal,
			"org":      org,
		})
	}
}

// HandlePrompt handles GET /slangs/prompt. Org entries come first so shared
// vocabulary wins when the same slang appears in both scopes.
func HandlePrompt(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		service := NewService(pool)

		var entries []Entry
		if identity.OrgID != nil {
			org, err := service.ListOrgApproved(ctx, *identity.OrgID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to list org slangs")
				apperrors.WriteInternalError(w, r, "Failed to format slangs")
				return
			}
			for _, s := range org {
				entries = append(entries, Entry{Slang: s.Slang, Meaning: s.Meaning})
			}
		}

		personal, err := service.ListPersonal(ctx, identity.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list personal slangs")
			apperrors.WriteInternalError(w, r, "Failed to format slangs")
			return
		}
		for _, s := range personal {
			entries = append(entries, Entry{Slang: s.Slang, Meaning: s.Meaning})
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"prompt": BuildPrompt(entries),
		})
	}
}

// HandleAddPersonal handles POST /slangs/personal
func HandleAddPersonal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req SlangRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Slang) == "" || strings.TrimSpace(req.Meaning) == "" {
			apperrors.WriteBadRequest(w, r, "Slang and meaning required")
			return
		}

		service := NewService(pool)
		created, err := service.AddPersonal(ctx, identity.ID, req.Slang, req.Meaning)
		if err != nil {
			if errors.Is(err, ErrDuplicateSlang) {
				apperrors.WriteConflict(w, r, "Slang already exists")
				return
			}
			log.Error().Err(err).Msg("Failed to add personal slang")
			apperrors.WriteInternalError(w, r, "Failed to add slang")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"slang": created,
		})
	}
}

// HandleDeletePersonal handles DELETE /slangs/personal/{id}
func HandleDeletePersonal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		slangID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid slang ID")
			return
		}

		service := NewService(pool)
		if err := service.DeletePersonal(ctx, identity.ID, slangID); err != nil {
			log.Error().Err(err).Msg("Failed to delete personal slang")
			apperrors.WriteInternalError(w, r, "Failed to delete slang")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message": "Slang deleted",
		})
	}
}

// HandleListOrg handles GET /slangs/org (all entries, including pending)
func HandleListOrg(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		if identity.OrgID == nil {
			apperrors.WriteNotFound(w, r, "Not in an organization")
			return
		}

		service := NewService(pool)
		all, err := service.ListOrgAll(ctx, *identity.OrgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list org slangs")
			apperrors.WriteInternalError(w, r, "Failed to fetch slangs")
			return
		}
		if all == nil {
			all = []OrgSlangWithCreator{}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"slangs": all,
		})
	}
}

// HandleAddOrg handles POST /slangs/org (admin only, gated in middleware)
func HandleAddOrg(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req SlangRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Slang) == "" || strings.TrimSpace(req.Meaning) == "" {
			apperrors.WriteBadRequest(w, r, "Slang and meaning required")
			return
		}

		isApproved := true
		if req.IsApproved != nil {
			isApproved = *req.IsApproved
		}

		service := NewService(pool)
		created, err := service.AddOrg(ctx, *identity.OrgID, identity.ID, req.Slang, req.Meaning, isApproved)
		if err != nil {
			log.Error().Err(err).Msg("Failed to add org slang")
			apperrors.WriteInternalError(w, r, "Failed to add slang")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"slang": created,
		})
	}
}

// HandleApproveOrg handles PATCH /slangs/org/{id}/approve (admin only)
func HandleApproveOrg(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		slangID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, "Slang not found")
			return
		}

		service := NewService(pool)
		updated, err := service.Approve(ctx, *identity.OrgID, slangID)
		if err != nil {
			if errors.Is(err, ErrSlangNotFound) {
				apperrors.WriteNotFound(w, r, "Slang not found")
				return
			}
			log.Error().Err(err).Msg("Failed to approve org slang")
			apperrors.WriteInternalError(w, r, "Failed to approve slang")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"slang": updated,
		})
	}
}

// HandleDeleteOrg handles DELETE /slangs/org/{id} (admin only)
func HandleDeleteOrg(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		slangID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, "Slang not found")
			return
		}

		service := NewService(pool)
		if err := service.DeleteOrg(ctx, *identity.OrgID, slangID); err != nil {
			if errors.Is(err, ErrSlangNotFound) {
				apperrors.WriteNotFound(w, r, "Slang not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete org slang")
			apperrors.WriteInternalError(w, r, "Failed to delete slang")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message": "Slang deleted",
		})
	}
}
