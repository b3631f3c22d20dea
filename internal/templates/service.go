package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultChannel = "EMAIL"

// Service owns organization message templates. Every query filters by the
// requester's current organization id.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new template service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// List returns all templates of an organization, newest first
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Template, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, name, content, channel, created_at
		FROM templates
		WHERE org_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Content, &t.Channel, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a template for the organization
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name, content, channel string) (*Template, error) {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}

	var t Template
	err := s.pool.QueryRow(ctx, `
		INSERT INTO templates (org_id, name, content, channel)
		VALUES ($1, $2, $3, $4)
		RETURNING id, org_id, name, content, channel, created_at
	`, orgID, strings.TrimSpace(name), strings.TrimSpace(content), channel).Scan(
		&t.ID, &t.OrgID, &t.Name, &t.Content, &t.Channel, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return &t, nil
}

// Update applies a partial update: only non-nil fields change.
func (s *Service) Update(ctx context.Context, orgID, templateID uuid.UUID, name, content, channel *string) (*Template, error) {
	var t Template
	err := s.pool.QueryRow(ctx, `
		UPDATE templates
		SET name    = COALESCE($3, name),
		    content = COALESCE($4, content),
		    channel = COALESCE($5, channel)
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, name, content, channel, created_at
	`, templateID, orgID, trimmed(name), trimmed(content), channel).Scan(
		&t.ID, &t.OrgID, &t.Name, &t.Content, &t.Channel, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return &t, nil
}

// Delete removes a template within the organization's scope
func (s *Service) Delete(ctx context.Context, orgID, templateID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM templates
		WHERE id = $1 AND org_id = $2
	`, templateID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
