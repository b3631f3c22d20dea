package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Role is an account's role within its organization. The value is inert
// while the account has no organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// IsValid reports whether r is one of the closed set of roles.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// IsAdmin reports whether r grants organization-management capability.
func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// IsAssignable reports whether r may be set through a role update.
// OWNER is assigned only at organization creation and never via updates.
func (r Role) IsAssignable() bool {
	return r == RoleAdmin || r == RoleMember
}

// Account is a registered user. PasswordHash never leaves this package.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         *string
	OrgID        *uuid.UUID
	Role         Role
	CreatedAt    time.Time
}

// OrgRef is the organization summary embedded in identity snapshots.
type OrgRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Identity is the immutable per-request snapshot produced by the auth
// middleware. It is resolved fresh from storage on every request so role
// and membership changes take effect on the next call.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  *string
	OrgID *uuid.UUID
	Role  Role
	Org   *OrgRef
}

// IsOrgAdmin reports whether the identity may manage its organization.
// Accounts without an organization never qualify.
func (id Identity) IsOrgAdmin() bool {
	return id.OrgID != nil && id.Role.IsAdmin()
}
