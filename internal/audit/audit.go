package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Writer appends audit log entries. Audit failures are logged by callers
// and never fail the originating request.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter creates a new audit writer
func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

func (w *Writer) log(ctx context.Context, actorID uuid.UUID, event, details string) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, event, details)
		VALUES ($1, $2, $3)
	`, actorID, event, details)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// LogRegistered records a new account registration
func (w *Writer) LogRegistered(ctx context.Context, accountID uuid.UUID, email string) error {
	return w.log(ctx, accountID, "account.registered", email)
}

// LogLogin records a successful login
func (w *Writer) LogLogin(ctx context.Context, accountID uuid.UUID, email string) error {
	return w.log(ctx, accountID, "account.login", email)
}

// LogOrgCreated records an organization creation
func (w *Writer) LogOrgCreated(ctx context.Context, actorID, orgID uuid.UUID, slug string) error {
	return w.log(ctx, actorID, "org.created", fmt.Sprintf("org=%s slug=%s", orgID, slug))
}

// LogInviteCreated records an invitation being issued
func (w *Writer) LogInviteCreated(ctx context.Context, actorID, orgID uuid.UUID, email string) error {
	return w.log(ctx, actorID, "org.invite_created", fmt.Sprintf("org=%s email=%s", orgID, email))
}

// LogInviteRedeemed records an invitation being redeemed
func (w *Writer) LogInviteRedeemed(ctx context.Context, actorID, orgID uuid.UUID) error {
	return w.log(ctx, actorID, "org.invite_redeemed", fmt.Sprintf("org=%s", orgID))
}

// LogMemberRoleUpdated records a member role change
func (w *Writer) LogMemberRoleUpdated(ctx context.Context, actorID, orgID, targetID uuid.UUID, oldRole, newRole string) error {
	return w.log(ctx, actorID, "org.member_role_updated",
		fmt.Sprintf("org=%s target=%s %s->%s", orgID, targetID, oldRole, newRole))
}

// LogMemberRemoved records a member removal
func (w *Writer) LogMemberRemoved(ctx context.Context, actorID, orgID, targetID uuid.UUID) error {
	return w.log(ctx, actorID, "org.member_removed", fmt.Sprintf("org=%s target=%s", orgID, targetID))
}
