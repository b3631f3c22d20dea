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

// InviteRequest represents the request to invite a member
type InviteRequest struct {
	Email string `json:"email"`
}

// JoinRequest represents the request to redeem an invitation token
type JoinRequest struct {
	Token string `json:"token"`
}

// HandleInvite handles POST /org/invite. The admin gate runs in middleware;
// the identity here always carries an org id and an admin role.
func HandleInvite(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req InviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Email) == "" {
			apperrors.WriteBadRequest(w, r, "Email required")
			return
		}

		service := NewService(pool)
		invite, token, err := service.CreateInvite(ctx, *identity.OrgID, identity.ID, req.Email)
		if err != nil {
			if errors.Is(err, ErrInvalidEmail) {
				apperrors.WriteBadRequest(w, r, "Invalid email address")
				return
			}
			log.Error().Err(err).Msg("Failed to create invitation")
			apperrors.WriteInternalError(w, r, "Failed to create invitation")
			return
		}

		if err := auditor.LogInviteCreated(ctx, identity.ID, invite.OrgID, invite.Email); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		// The link carries the raw token as a capability, never the row id.
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message":    "Invitation created",
			"inviteLink": "/join?token=" + token,
		})
	}
}

// HandleJoin handles POST /org/join
func HandleJoin(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := auth.GetIdentity(ctx)

		var req JoinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		service := NewService(pool)
		org, err := service.RedeemInvite(ctx, identity.ID, req.Token)
		if err != nil {
			if errors.Is(err, ErrInviteInvalid) {
				apperrors.WriteConflict(w, r, "Invalid or expired invitation")
				return
			}
			if errors.Is(err, ErrAlreadyInOrg) {
				apperrors.WriteConflict(w, r, "Already in an organization")
				return
			}
			log.Error().Err(err).Msg("Failed to redeem invitation")
			apperrors.WriteInternalError(w, r, "Failed to join organization")
			return
		}

		if err := auditor.LogInviteRedeemed(ctx, identity.ID, org.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"message": "Joined organization",
			"org":     org,
		})
	}
}
