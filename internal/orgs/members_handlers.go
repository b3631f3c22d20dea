package orgs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/accounts"
	"github.com/phraseforge/phraseforge/internal/apperrors"
	"github.com/phraseforge/phraseforge/internal/audit"
	"github.com/phraseforge/phraseforge/internal/auth"
	"github.com/rs/zerolog/log"
)

// RoleUpdateRequest represents the request to change a member's role
type RoleUpdateRequest struct {
	Role accounts.Role `json:"role"`
}

// MemberUserResponse is the user shape returned after a role update
type MemberUserResponse struct {
	ID    uuid.UUID     `json:"id"`
	Email string        `json:"email"`
	Role  accounts.Role `json:"role"`
}

// HandleUpdateMemberRole handles PATCH /org/members/{id}/role
func HandleUpdateMemberRole(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, "Member not found")
			return
		}

		var req RoleUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if !req.Role.IsAssignable() {
			apperrors.WriteBadRequest(w, r, "Invalid role")
			return
		}

		service := NewService(pool)
		member, prevRole, err := service.UpdateRole(ctx, *identity.OrgID, targetID, req.Role)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				apperrors.WriteNotFound(w, r, "Member not found")
				return
			}
			if errors.Is(err, ErrOwnerImmutable) {
				apperrors.WriteForbidden(w, r, "Cannot change owner role")
				return
			}
			if errors.Is(err, ErrInvalidRole) {
				apperrors.WriteBadRequest(w, r, "Invalid role")
				return
			}
			log.Error().Err(err).Msg("Failed to update member role")
			apperrors.WriteInternalError(w, r, "Failed to update role")
			return
		}

		if err := auditor.LogMemberRoleUpdated(ctx, identity.ID, *identity.OrgID, member.ID, string(prevRole), string(member.Role)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": MemberUserResponse{
				ID:    member.ID,
				Email: member.Email,
				Role:  member.Role,
			},
		})
	}
}

// HandleRemoveMember handles DELETE /org/members/{id}.
// A missing target and an OWNER target both answer 403: the operation
// reveals nothing about who is or is not a member.
func HandleRemoveMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			apperrors.WriteForbidden(w, r, "Cannot remove this member")
			return
		}

		service := NewService(pool)
		member, err := service.RemoveMember(ctx, *identity.OrgID, targetID)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrOwnerImmutable) {
				apperrors.WriteForbidden(w, r, "Cannot remove this member")
				return
			}
			log.Error().Err(err).Msg("Failed to remove member")
			apperrors.WriteInternalError(w, r, "Failed to remove member")
			return
		}

		if err := auditor.LogMemberRemoved(ctx, identity.ID, *identity.OrgID, member.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message": "Member removed",
		})
	}
}
