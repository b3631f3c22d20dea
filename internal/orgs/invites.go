package orgs

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phraseforge/phraseforge/internal/accounts"
)

const inviteTTL = 7 * 24 * time.Hour

func normalizeInviteEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 320 {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// CreateInvite issues a single-use invitation for the given email, valid for
// seven days. Multiple open invitations for the same email are allowed.
// Returns the invitation and the raw token; only the hash is persisted.
func (s *Service) CreateInvite(ctx context.Context, orgID, actorID uuid.UUID, email string) (*Invitation, string, error) {
	email, err := normalizeInviteEmail(email)
	if err != nil {
		return nil, "", err
	}

	for attempt := 0; attempt < 3; attempt++ {
		token, tokenHash, err := GenerateInviteToken()
		if err != nil {
			return nil, "", err
		}

		expiresAt := time.Now().UTC().Add(inviteTTL)

		var invite Invitation
		err = s.pool.QueryRow(ctx, `
			INSERT INTO invitations (org_id, email, invited_by, token_hash, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, org_id, email, invited_by, created_at, expires_at
		`, orgID, email, actorID, tokenHash, expiresAt).Scan(
			&invite.ID,
			&invite.OrgID,
			&invite.Email,
			&invite.InvitedBy,
			&invite.CreatedAt,
			&invite.ExpiresAt,
		)
		if err == nil {
			return &invite, token, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Token hash collision (extremely unlikely); retry.
			continue
		}
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil, "", fmt.Errorf("failed to create invitation: token collision retry exhausted")
}

// RedeemInvite consumes an invitation token: the requester joins the
// organization as MEMBER and the invitation row is deleted in the same
// transaction, so at most one redemption per token can ever succeed. The
// invitation row is locked first; a concurrent loser finds no row and gets
// the generic invalid/expired error. Expiry is checked lazily here — expired
// rows are refused, never swept.
func (s *Service) RedeemInvite(ctx context.Context, accountID uuid.UUID, token string) (*Org, error) {
	if !ValidateInviteTokenFormat(token) {
		return nil, ErrInviteInvalid
	}
	tokenHash := HashInviteToken(token)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var inviteID, orgID uuid.UUID
	var expiresAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT id, org_id, expires_at
		FROM invitations
		WHERE token_hash = $1
		FOR UPDATE
	`, tokenHash).Scan(&inviteID, &orgID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteInvalid
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}

	if !expiresAt.After(time.Now().UTC()) {
		return nil, ErrInviteInvalid
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET org_id = $1, role = $2
		WHERE id = $3 AND org_id IS NULL
	`, orgID, accounts.RoleMember, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyInOrg
	}

	tag, err = tx.Exec(ctx, `
		DELETE FROM invitations
		WHERE id = $1
	`, inviteID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInviteInvalid
	}

	org, err := s.getOrg(ctx, tx, orgID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return org, nil
}
