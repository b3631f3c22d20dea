package slangs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service owns personal and organization vocabulary entries. Every
// org-scoped query filters by the requester's current organization id.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new slang service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListPersonal returns all personal slangs owned by the account
func (s *Service) ListPersonal(ctx context.Context, accountID uuid.UUID) ([]PersonalSlang, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slang, meaning
		FROM personal_slangs
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal slangs: %w", err)
	}
	defer rows.Close()

	var out []PersonalSlang
	for rows.Next() {
		var ps PersonalSlang
		if err := rows.Scan(&ps.ID, &ps.Slang, &ps.Meaning); err != nil {
			return nil, fmt.Errorf("failed to scan personal slang: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// AddPersonal inserts a personal slang. Duplicates per owner are rejected
// case-insensitively.
func (s *Service) AddPersonal(ctx context.Context, accountID uuid.UUID, slang, meaning string) (*PersonalSlang, error) {
	slang = strings.TrimSpace(slang)
	meaning = strings.TrimSpace(meaning)

	var ps PersonalSlang
	err := s.pool.QueryRow(ctx, `
		INSERT INTO personal_slangs (user_id, slang, meaning)
		VALUES ($1, $2, $3)
		RETURNING id, slang, meaning
	`, accountID, slang, meaning).Scan(&ps.ID, &ps.Slang, &ps.Meaning)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrDuplicateSlang
		}
		return nil, fmt.Errorf("failed to add personal slang: %w", err)
	}

	return &ps, nil
}

// DeletePersonal removes a personal slang owned by the account. Deleting an
// id outside the account's scope is a silent no-op, matching list semantics.
func (s *Service) DeletePersonal(ctx context.Context, accountID, slangID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM personal_slangs
		WHERE id = $1 AND user_id = $2
	`, slangID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete personal slang: %w", err)
	}
	return nil
}

// ListOrgApproved returns the approved shared vocabulary of an organization
func (s *Service) ListOrgApproved(ctx context.Context, orgID uuid.UUID) ([]PersonalSlang, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slang, meaning
		FROM org_slangs
		WHERE org_id = $1 AND is_approved = TRUE
		ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org slangs: %w", err)
	}
	defer rows.Close()

	var out []PersonalSlang
	for rows.Next() {
		var ps PersonalSlang
		if err := rows.Scan(&ps.ID, &ps.Slang, &ps.Meaning); err != nil {
			return nil, fmt.Errorf("failed to scan org slang: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// ListOrgAll returns every org slang including pending ones, with creator
// details, for the organization view.
func (s *Service) ListOrgAll(ctx context.Context, orgID uuid.UUID) ([]OrgSlangWithCreator, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT os.id, os.org_id, os.slang, os.meaning, os.is_approved, os.created_at,
		       u.name, u.email
		FROM org_slangs os
		INNER JOIN users u ON u.id = os.created_by
		WHERE os.org_id = $1
		ORDER BY os.created_at ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org slangs: %w", err)
	}
	defer rows.Close()

	var out []OrgSlangWithCreator
	for rows.Next() {
		var os OrgSlangWithCreator
		if err := rows.Scan(&os.ID, &os.OrgID, &os.Slang, &os.Meaning, &os.IsApproved, &os.CreatedAt,
			&os.CreatedBy.Name, &os.CreatedBy.Email); err != nil {
			return nil, fmt.Errorf("failed to scan org slang: %w", err)
		}
		out = append(out, os)
	}
	return out, rows.Err()
}

// AddOrg inserts a shared vocabulary entry for the organization
func (s *Service) AddOrg(ctx context.Context, orgID, creatorID uuid.UUID, slang, meaning string, isApproved bool) (*OrgSlang, error) {
	slang = strings.TrimSpace(slang)
	meaning = strings.TrimSpace(meaning)

	var os OrgSlang
	err := s.pool.QueryRow(ctx, `
		INSERT INTO org_slangs (org_id, created_by, slang, meaning, is_approved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, org_id, slang, meaning, is_approved, created_at
	`, orgID, creatorID, slang, meaning, isApproved).Scan(
		&os.ID, &os.OrgID, &os.Slang, &os.Meaning, &os.IsApproved, &os.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add org slang: %w", err)
	}

	return &os, nil
}

// Approve marks an org slang as approved
func (s *Service) Approve(ctx context.Context, orgID, slangID uuid.UUID) (*OrgSlang, error) {
	var os OrgSlang
	err := s.pool.QueryRow(ctx, `
		UPDATE org_slangs
		SET is_approved = TRUE
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, slang, meaning, is_approved, created_at
	`, slangID, orgID).Scan(
		&os.ID, &os.OrgID, &os.Slang, &os.Meaning, &os.IsApproved, &os.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlangNotFound
		}
		return nil, fmt.Errorf("failed to approve org slang: %w", err)
	}
	return &os, nil
}

// DeleteOrg removes an org slang within the organization's scope
func (s *Service) DeleteOrg(ctx context.Context, orgID, slangID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM org_slangs
		WHERE id = $1 AND org_id = $2
	`, slangID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete org slang: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlangNotFound
	}
	return nil
}
