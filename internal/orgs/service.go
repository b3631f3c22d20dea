package orgs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/accounts"
	"github.com/phraseforge/phraseforge/internal/validation"
)

// Service owns organizations, memberships, and invitations. All mutations to
// users.org_id and users.role go through this service; nothing else writes
// those columns.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new organization service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Create creates an organization and makes the requester its OWNER. The
// owner assignment is a conditional write: two concurrent creations from
// the same account cannot both succeed.
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, name string) (*Org, error) {
	slug := validation.DeriveSlug(name, time.Now().UTC())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var org Org
	err = tx.QueryRow(ctx, `
		INSERT INTO orgs (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug, created_at
	`, name, slug).Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	// OWNER is assigned only here. The org_id IS NULL guard enforces the
	// one-organization-per-account invariant under concurrency.
	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET org_id = $1, role = $2
		WHERE id = $3 AND org_id IS NULL
	`, org.ID, accounts.RoleOwner, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyInOrg
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &org, nil
}

// Get retrieves an organization with its member list and resource counts.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*OrgDetail, error) {
	var detail OrgDetail

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, created_at
		FROM orgs
		WHERE id = $1
	`, orgID).Scan(
		&detail.ID,
		&detail.Name,
		&detail.Slug,
		&detail.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	members, err := s.listMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	detail.Members = members

	err = s.pool.QueryRow(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM org_slangs WHERE org_id = $1),
		  (SELECT COUNT(*) FROM templates WHERE org_id = $1)
	`, orgID).Scan(&detail.Counts.Slangs, &detail.Counts.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}

	return &detail, nil
}

func (s *Service) listMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, name, role
		FROM users
		WHERE org_id = $1
		ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var member Member
		if err := rows.Scan(&member.ID, &member.Email, &member.Name, &member.Role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (s *Service) getOrg(ctx context.Context, tx pgx.Tx, orgID uuid.UUID) (*Org, error) {
	var org Org
	err := tx.QueryRow(ctx, `
		SELECT id, name, slug, created_at
		FROM orgs
		WHERE id = $1
	`, orgID).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}
