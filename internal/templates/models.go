package templates

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTemplateNotFound is returned when a template id does not resolve
// inside the requester's organization.
var ErrTemplateNotFound = errors.New("template not found")

// Template is an organization-owned message template.
type Template struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}
