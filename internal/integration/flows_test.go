package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phraseforge/phraseforge/internal/app"
	"github.com/phraseforge/phraseforge/internal/config"
	"github.com/phraseforge/phraseforge/internal/orgs"
	"github.com/stretchr/testify/require"
)

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

type userPayload struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
	Role  string    `json:"role"`
	Org   *struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
		Slug string    `json:"slug"`
	} `json:"org"`
}

type orgDetailPayload struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	Members []struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
		Role  string    `json:"role"`
	} `json:"members"`
	Counts struct {
		Slangs    int `json:"slangs"`
		Templates int `json:"templates"`
	} `json:"_count"`
}

func newTestServer(t *testing.T) (*httptest.Server, *pgxpool.Pool) {
	t.Helper()

	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	cfg := &config.Config{
		Env:                "dev",
		HTTPAddr:           ":0",
		BaseURL:            "http://localhost",
		DBDSN:              "unused",
		JWTSecret:          "test-secret",
		LogLevel:           "error",
		SessionDays:        7,
		LoginRateLimitRPM:  1000,
		AuditRetentionDays: 180,
	}

	srv := httptest.NewServer(app.NewRouter(pool, cfg))
	t.Cleanup(srv.Close)

	return srv, pool
}

func doJSON(t *testing.T, method, urlStr, token string, payload any) (int, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, urlStr, bodyReader)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func doJSONExpect(t *testing.T, method, urlStr, token string, wantStatus int, payload any) []byte {
	t.Helper()

	status, body := doJSON(t, method, urlStr, token, payload)
	require.Equal(t, wantStatus, status, "body: %s", string(body))
	return body
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.NotEmpty(t, env.Error.Code)
	require.NotEmpty(t, env.Error.RequestID)
	return env
}

func register(t *testing.T, baseURL, email, password string) (uuid.UUID, string) {
	t.Helper()

	body := doJSONExpect(t, http.MethodPost, baseURL+"/auth/register", "", http.StatusCreated, map[string]any{
		"email":    email,
		"password": password,
	})

	var parsed struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.NotEqual(t, uuid.Nil, parsed.User.ID)
	require.NotEmpty(t, parsed.Token)

	return parsed.User.ID, parsed.Token
}

func createOrg(t *testing.T, baseURL, token, name string) orgs.Org {
	t.Helper()

	body := doJSONExpect(t, http.MethodPost, baseURL+"/org", token, http.StatusCreated, map[string]any{
		"name": name,
	})

	var parsed struct {
		Org orgs.Org `json:"org"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.NotEqual(t, uuid.Nil, parsed.Org.ID)

	return parsed.Org
}

func createInvite(t *testing.T, baseURL, token, email string) string {
	t.Helper()

	body := doJSONExpect(t, http.MethodPost, baseURL+"/org/invite", token, http.StatusOK, map[string]any{
		"email": email,
	})

	var parsed struct {
		Message    string `json:"message"`
		InviteLink string `json:"inviteLink"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.True(t, strings.HasPrefix(parsed.InviteLink, "/join?token="), "invite link: %s", parsed.InviteLink)

	return strings.TrimPrefix(parsed.InviteLink, "/join?token=")
}

func getOrg(t *testing.T, baseURL, token string) orgDetailPayload {
	t.Helper()

	body := doJSONExpect(t, http.MethodGet, baseURL+"/org", token, http.StatusOK, nil)

	var parsed struct {
		Org orgDetailPayload `json:"org"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))

	return parsed.Org
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	_, token := register(t, srv.URL, "alice@example.com", "pw123456")

	// Re-registering the same email fails
	body := doJSONExpect(t, http.MethodPost, srv.URL+"/auth/register", "", http.StatusBadRequest, map[string]any{
		"email":    "alice@example.com",
		"password": "other-password",
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)

	body = doJSONExpect(t, http.MethodPost, srv.URL+"/auth/register", "", http.StatusBadRequest, map[string]any{
		"email":    "not-an-email",
		"password": "pw123456",
	})
	decodeError(t, body)

	// Wrong password and unknown email answer identically
	body = doJSONExpect(t, http.MethodPost, srv.URL+"/auth/login", "", http.StatusUnauthorized, map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	wrongPW := decodeError(t, body)
	body = doJSONExpect(t, http.MethodPost, srv.URL+"/auth/login", "", http.StatusUnauthorized, map[string]any{
		"email":    "nobody@example.com",
		"password": "pw123456",
	})
	unknown := decodeError(t, body)
	require.Equal(t, wrongPW.Error.Message, unknown.Error.Message)

	body = doJSONExpect(t, http.MethodPost, srv.URL+"/auth/login", "", http.StatusOK, map[string]any{
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	var login struct {
		User  userPayload `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	require.Equal(t, "alice@example.com", login.User.Email)
	require.Equal(t, "MEMBER", login.User.Role)
	require.Nil(t, login.User.Org)
	require.NotEmpty(t, login.Token)

	body = doJSONExpect(t, http.MethodGet, srv.URL+"/auth/me", token, http.StatusOK, nil)
	var me struct {
		User userPayload `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &me))
	require.Equal(t, "alice@example.com", me.User.Email)

	doJSONExpect(t, http.MethodGet, srv.URL+"/auth/me", "", http.StatusUnauthorized, nil)
	doJSONExpect(t, http.MethodGet, srv.URL+"/auth/me", "garbage-token", http.StatusUnauthorized, nil)
}

func TestOrgLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	ownerID, ownerToken := register(t, srv.URL, "owner@example.com", "pw123456")

	// No org yet
	doJSONExpect(t, http.MethodGet, srv.URL+"/org", ownerToken, http.StatusNotFound, nil)

	org := createOrg(t, srv.URL, ownerToken, "Acme Corp")
	require.Equal(t, "Acme Corp", org.Name)
	require.True(t, strings.HasPrefix(org.Slug, "acme-corp-"), "slug: %s", org.Slug)

	detail := getOrg(t, srv.URL, ownerToken)
	require.Equal(t, org.ID, detail.ID)
	require.Len(t, detail.Members, 1)
	require.Equal(t, ownerID, detail.Members[0].ID)
	require.Equal(t, "OWNER", detail.Members[0].Role)
	require.Equal(t, 0, detail.Counts.Slangs)
	require.Equal(t, 0, detail.Counts.Templates)

	// Creating a second org while already a member fails
	body := doJSONExpect(t, http.MethodPost, srv.URL+"/org", ownerToken, http.StatusBadRequest, map[string]any{
		"name": "Other Org",
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)

	// Creator shows up as OWNER on /auth/me with the org attached
	body = doJSONExpect(t, http.MethodGet, srv.URL+"/auth/me", ownerToken, http.StatusOK, nil)
	var me struct {
		User userPayload `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &me))
	require.Equal(t, "OWNER", me.User.Role)
	require.NotNil(t, me.User.Org)
	require.Equal(t, org.ID, me.User.Org.ID)
}

func TestInviteJoinFlow(t *testing.T) {
	srv, pool := newTestServer(t)

	ownerID, ownerToken := register(t, srv.URL, "a@x.com", "pw123456")
	org := createOrg(t, srv.URL, ownerToken, "Acme")

	inviteToken := createInvite(t, srv.URL, ownerToken, "b@x.com")

	inviteeID, inviteeToken := register(t, srv.URL, "b@x.com", "pw123456")

	body := doJSONExpect(t, http.MethodPost, srv.URL+"/org/join", inviteeToken, http.StatusOK, map[string]any{
		"token": inviteToken,
	})
	var joined struct {
		Org orgs.Org `json:"org"`
	}
	require.NoError(t, json.Unmarshal(body, &joined))
	require.Equal(t, org.ID, joined.Org.ID)

	detail := getOrg(t, srv.URL, inviteeToken)
	require.Len(t, detail.Members, 2)

	// A consumed token is gone for good
	_, thirdToken := register(t, srv.URL, "c@x.com", "pw123456")
	body = doJSONExpect(t, http.MethodPost, srv.URL+"/org/join", thirdToken, http.StatusBadRequest, map[string]any{
		"token": inviteToken,
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)

	// Non-admin members cannot invite
	doJSONExpect(t, http.MethodPost, srv.URL+"/org/invite", inviteeToken, http.StatusForbidden, map[string]any{
		"email": "d@x.com",
	})

	// Promote the invitee; the new role takes effect on their next request
	body = doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+inviteeID.String()+"/role", ownerToken, http.StatusOK, map[string]any{
		"role": "ADMIN",
	})
	var updated struct {
		User struct {
			ID   uuid.UUID `json:"id"`
			Role string    `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, inviteeID, updated.User.ID)
	require.Equal(t, "ADMIN", updated.User.Role)

	createInvite(t, srv.URL, inviteeToken, "d@x.com")

	// Roles outside the assignable set are refused
	doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+inviteeID.String()+"/role", ownerToken, http.StatusBadRequest, map[string]any{
		"role": "OWNER",
	})
	doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+inviteeID.String()+"/role", ownerToken, http.StatusBadRequest, map[string]any{
		"role": "SUPERUSER",
	})

	// The owner role is immutable, even for the owner themself
	doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+ownerID.String()+"/role", inviteeToken, http.StatusForbidden, map[string]any{
		"role": "MEMBER",
	})
	doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+ownerID.String()+"/role", ownerToken, http.StatusForbidden, map[string]any{
		"role": "MEMBER",
	})

	// Targets outside the org are a 404 on role updates
	doJSONExpect(t, http.MethodPatch, srv.URL+"/org/members/"+uuid.NewString()+"/role", ownerToken, http.StatusNotFound, map[string]any{
		"role": "MEMBER",
	})

	// Removing the owner is refused, as is removing a non-member
	doJSONExpect(t, http.MethodDelete, srv.URL+"/org/members/"+ownerID.String(), inviteeToken, http.StatusForbidden, nil)
	doJSONExpect(t, http.MethodDelete, srv.URL+"/org/members/"+uuid.NewString(), ownerToken, http.StatusForbidden, nil)

	doJSONExpect(t, http.MethodDelete, srv.URL+"/org/members/"+inviteeID.String(), ownerToken, http.StatusOK, nil)

	// Removed member is org-less again and free to start their own org
	doJSONExpect(t, http.MethodGet, srv.URL+"/org", inviteeToken, http.StatusNotFound, nil)
	createOrg(t, srv.URL, inviteeToken, "Beta")

	// The whole flow left an audit trail
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := pool.Query(ctx, `SELECT DISTINCT event FROM audit_logs`)
	require.NoError(t, err)
	defer rows.Close()

	events := make(map[string]bool)
	for rows.Next() {
		var event string
		require.NoError(t, rows.Scan(&event))
		events[event] = true
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{
		"account.registered",
		"org.created",
		"org.invite_created",
		"org.invite_redeemed",
		"org.member_role_updated",
		"org.member_removed",
	} {
		require.True(t, events[want], "missing audit event %s", want)
	}
}

func TestInviteRedemption_Concurrent(t *testing.T) {
	srv, _ := newTestServer(t)

	_, ownerToken := register(t, srv.URL, "owner@example.com", "pw123456")
	createOrg(t, srv.URL, ownerToken, "Acme")

	inviteToken := createInvite(t, srv.URL, ownerToken, "race@example.com")

	_, tokenA := register(t, srv.URL, "race-a@example.com", "pw123456")
	_, tokenB := register(t, srv.URL, "race-b@example.com", "pw123456")

	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i, token := range []string{tokenA, tokenB} {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()

			b, err := json.Marshal(map[string]any{"token": inviteToken})
			if err != nil {
				return
			}
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/org/join", bytes.NewReader(b))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			statuses[i] = resp.StatusCode
		}(i, token)
	}
	wg.Wait()

	// Exactly one racer wins the row lock; the loser sees a consumed token.
	wins := 0
	losses := 0
	for _, status := range statuses {
		switch status {
		case http.StatusOK:
			wins++
		case http.StatusBadRequest:
			losses++
		}
	}
	require.Equal(t, 1, wins, "statuses: %v", statuses)
	require.Equal(t, 1, losses, "statuses: %v", statuses)
}

func TestInviteRedemption_Expired(t *testing.T) {
	srv, pool := newTestServer(t)

	ownerID, ownerToken := register(t, srv.URL, "owner@example.com", "pw123456")
	org := createOrg(t, srv.URL, ownerToken, "Acme")

	token, tokenHash, err := orgs.GenerateInviteToken()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = pool.Exec(ctx, `
		INSERT INTO invitations (org_id, email, invited_by, token_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, org.ID, "late@example.com", ownerID, tokenHash, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, lateToken := register(t, srv.URL, "late@example.com", "pw123456")
	body := doJSONExpect(t, http.MethodPost, srv.URL+"/org/join", lateToken, http.StatusBadRequest, map[string]any{
		"token": token,
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)

	// Expired rows are refused lazily, never deleted by redemption attempts
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM invitations`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestInvite_Guards(t *testing.T) {
	srv, _ := newTestServer(t)

	_, orglessToken := register(t, srv.URL, "solo@example.com", "pw123456")

	// Accounts without an org cannot reach admin endpoints at all
	doJSONExpect(t, http.MethodPost, srv.URL+"/org/invite", orglessToken, http.StatusForbidden, map[string]any{
		"email": "x@example.com",
	})

	_, ownerToken := register(t, srv.URL, "owner@example.com", "pw123456")
	createOrg(t, srv.URL, ownerToken, "Acme")

	doJSONExpect(t, http.MethodPost, srv.URL+"/org/invite", ownerToken, http.StatusBadRequest, map[string]any{
		"email": "not-an-email",
	})
	doJSONExpect(t, http.MethodPost, srv.URL+"/org/invite", ownerToken, http.StatusBadRequest, map[string]any{
		"email": "",
	})

	// Joining with a malformed token never touches the database
	body := doJSONExpect(t, http.MethodPost, srv.URL+"/org/join", orglessToken, http.StatusBadRequest, map[string]any{
		"token": "pfi_not-a-real-token",
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)

	// Members of an org cannot redeem another invitation
	inviteToken := createInvite(t, srv.URL, ownerToken, "owner@example.com")
	body = doJSONExpect(t, http.MethodPost, srv.URL+"/org/join", ownerToken, http.StatusBadRequest, map[string]any{
		"token": inviteToken,
	})
	require.Equal(t, "conflict", decodeError(t, body).Error.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSONExpect(t, http.MethodGet, srv.URL+"/healthz", "", http.StatusOK, nil)
	doJSONExpect(t, http.MethodGet, srv.URL+"/readyz", "", http.StatusOK, nil)
}
