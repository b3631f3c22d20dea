package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phraseforge/phraseforge/internal/retention"
	"github.com/stretchr/testify/require"
)

func TestRetentionPurgesOldAuditLogs(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	actorID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, 'actor@example.com', 'x')
	`, actorID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, event, details, created_at)
		VALUES
			($1, 'account.login', 'old', NOW() - INTERVAL '200 days'),
			($1, 'account.login', 'recent', NOW() - INTERVAL '2 days')
	`, actorID)
	require.NoError(t, err)

	require.NoError(t, retention.RunRetentionJob(ctx, pool, 180))

	var details []string
	rows, err := pool.Query(ctx, `SELECT details FROM audit_logs ORDER BY created_at ASC`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		details = append(details, d)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"recent"}, details)

	// Invitations are never swept, even long past expiry
	var orgID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO orgs (name, slug) VALUES ('Acme', 'acme-retention') RETURNING id
	`).Scan(&orgID))
	_, err = pool.Exec(ctx, `
		INSERT INTO invitations (org_id, email, invited_by, token_hash, expires_at)
		VALUES ($1, 'stale@example.com', $2, $3, NOW() - INTERVAL '365 days')
	`, orgID, actorID, []byte("retention-test-hash-0123456789ab"))
	require.NoError(t, err)

	require.NoError(t, retention.RunRetentionJob(ctx, pool, 180))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM invitations`).Scan(&count))
	require.Equal(t, 1, count)
}
