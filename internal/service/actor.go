package service

import "github.com/google/uuid"

// Roles as carried in the auth token. Moderation acts on behalf of the
// platform (publishing approvals, cancellations).
const (
	RoleCustomer  = "customer"
	RoleVendor    = "vendor"
	RoleModerator = "moderator"
)

// Actor identifies the authenticated caller of a state-changing operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsModerator() bool {
	return a.Role == RoleModerator
}
