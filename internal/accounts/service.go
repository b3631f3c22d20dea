package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so callers cannot enumerate registered addresses.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotFound is returned when an account id does not resolve
	ErrAccountNotFound = errors.New("account not found")
)

// Service owns account records and credential verification.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new account service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Register creates an account with a bcrypt-hashed password. The account
// starts with no organization and the inert MEMBER role.
func (s *Service) Register(ctx context.Context, email, password string, name *string) (*Account, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var account Account
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, name, org_id, role, created_at
	`

	err = s.pool.QueryRow(ctx, query, email, passwordHash, name).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.OrgID,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	return &account, nil
}

// VerifyCredentials checks an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.getByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// GetByID retrieves an account by id
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var account Account
	query := `
		SELECT id, email, password_hash, name, org_id, role, created_at
		FROM users
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.OrgID,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// LoadIdentity resolves an account id into a fresh identity snapshot,
// including the organization summary when the account belongs to one.
func (s *Service) LoadIdentity(ctx context.Context, id uuid.UUID) (*Identity, error) {
	var identity Identity
	var orgID, orgName, orgSlug *string

	query := `
		SELECT u.id, u.email, u.name, u.org_id, u.role, o.id::text, o.name, o.slug
		FROM users u
		LEFT JOIN orgs o ON o.id = u.org_id
		WHERE u.id = $1
	`

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.OrgID,
		&identity.Role,
		&orgID,
		&orgName,
		&orgSlug,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if identity.OrgID != nil && orgID != nil {
		identity.Org = &OrgRef{
			ID:   *identity.OrgID,
			Name: *orgName,
			Slug: *orgSlug,
		}
	}

	return &identity, nil
}

func (s *Service) getByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	query := `
		SELECT id, email, password_hash, name, org_id, role, created_at
		FROM users
		WHERE email = $1
	`

	err := s.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.OrgID,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}
