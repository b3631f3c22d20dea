package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// RunRetentionJob deletes audit log rows older than the retention window.
// Invitations are deliberately not touched here: expiry is enforced lazily
// at redemption time, never by a sweep.
func RunRetentionJob(ctx context.Context, pool *pgxpool.Pool, auditRetentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -auditRetentionDays)

	tag, err := pool.Exec(ctx, `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge audit logs: %w", err)
	}

	log.Info().
		Int64("deleted", tag.RowsAffected()).
		Time("cutoff", cutoff).
		Msg("Audit log retention completed")

	return nil
}
