package orgs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phraseforge/phraseforge/internal/accounts"
)

var (
	// ErrOrgNotFound is returned when an organization is not found
	ErrOrgNotFound = errors.New("organization not found")

	// ErrAlreadyInOrg is returned when the account already belongs to an
	// organization. An account holds at most one membership at a time.
	ErrAlreadyInOrg = errors.New("account already belongs to an organization")

	// ErrSlugConflict is returned when an organization slug already exists
	ErrSlugConflict = errors.New("organization slug already exists")

	// ErrMemberNotFound is returned when the target is not a member of the
	// requester's organization
	ErrMemberNotFound = errors.New("member not found")

	// ErrOwnerImmutable guards the OWNER role: it can never be changed or
	// removed through membership operations, not even by the owner themself.
	ErrOwnerImmutable = errors.New("owner role cannot be changed or removed")

	// ErrInvalidRole is returned when a role update names a role outside
	// the assignable set (ADMIN, MEMBER)
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidEmail is returned when an invitation email is missing or
	// not a parseable address
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInviteInvalid covers unknown, expired, and already-redeemed
	// invitation tokens. Callers cannot tell these cases apart.
	ErrInviteInvalid = errors.New("invalid or expired invitation")
)

// Org represents an organization (tenant)
type Org struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a member entry in the organization detail view
type Member struct {
	ID    uuid.UUID     `json:"id"`
	Email string        `json:"email"`
	Name  *string       `json:"name"`
	Role  accounts.Role `json:"role"`
}

// ResourceCounts are read-only aggregates from the tenant-scoped stores
type ResourceCounts struct {
	Slangs    int `json:"slangs"`
	Templates int `json:"templates"`
}

// OrgDetail is the organization plus its member list and resource counts
type OrgDetail struct {
	Org
	Members []Member       `json:"members"`
	Counts  ResourceCounts `json:"_count"`
}

// Invitation is a single-use, time-bound membership capability scoped to
// an email address and an organization.
type Invitation struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Email     string    `json:"email"`
	InvitedBy uuid.UUID `json:"invited_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
