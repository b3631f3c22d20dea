package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phraseforge/phraseforge/internal/accounts"
)

// UpdateRole sets a member's role to ADMIN or MEMBER. The target row is
// locked so concurrent updates serialize. An OWNER's role can never be
// changed through this path, including by the owner on themself.
func (s *Service) UpdateRole(ctx context.Context, orgID, targetID uuid.UUID, newRole accounts.Role) (*Member, accounts.Role, error) {
	if !newRole.IsAssignable() {
		return nil, "", ErrInvalidRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var member Member
	err = tx.QueryRow(ctx, `
		SELECT id, email, name, role
		FROM users
		WHERE id = $1 AND org_id = $2
		FOR UPDATE
	`, targetID, orgID).Scan(&member.ID, &member.Email, &member.Name, &member.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrMemberNotFound
		}
		return nil, "", fmt.Errorf("failed to load member: %w", err)
	}

	if member.Role == accounts.RoleOwner {
		return nil, "", ErrOwnerImmutable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET role = $1
		WHERE id = $2
	`, newRole, targetID); err != nil {
		return nil, "", fmt.Errorf("failed to update member role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	prevRole := member.Role
	member.Role = newRole
	return &member, prevRole, nil
}

// RemoveMember detaches a member from the organization: org_id is cleared
// and the role resets to the inert MEMBER default. Owners cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, orgID, targetID uuid.UUID) (*Member, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var member Member
	err = tx.QueryRow(ctx, `
		SELECT id, email, name, role
		FROM users
		WHERE id = $1 AND org_id = $2
		FOR UPDATE
	`, targetID, orgID).Scan(&member.ID, &member.Email, &member.Name, &member.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	if member.Role == accounts.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET org_id = NULL, role = $1
		WHERE id = $2
	`, accounts.RoleMember, targetID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &member, nil
}
