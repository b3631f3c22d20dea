package slangs

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateSlang is returned when the owner already defined the
	// same slang (case-insensitive)
	ErrDuplicateSlang = errors.New("slang already exists")

	// ErrSlangNotFound is returned when a slang id does not resolve inside
	// the requester's scope
	ErrSlangNotFound = errors.New("slang not found")
)

// PersonalSlang is a private vocabulary entry owned by a single account.
// Personal entries are independent of any organization.
type PersonalSlang struct {
	ID      uuid.UUID `json:"id"`
	Slang   string    `json:"slang"`
	Meaning string    `json:"meaning"`
}

// OrgSlang is a shared vocabulary entry owned by an organization. Entries
// surface to members only once approved.
type OrgSlang struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	Slang      string    `json:"slang"`
	Meaning    string    `json:"meaning"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrgSlangWithCreator adds creator details for the admin listing
type OrgSlangWithCreator struct {
	OrgSlang
	CreatedBy SlangCreator `json:"createdBy"`
}

// SlangCreator identifies who added an org slang
type SlangCreator struct {
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// Entry is the slang/meaning pair used when building the prompt block
type Entry struct {
	Slang   string
	Meaning string
}
