// Package activeorg resolves the organization a session is operating in and
// carries it to scoped operations as an explicit Scope value.
package activeorg

import (
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Scope is the caller identity and active organization for one request.
// OrgID is zero when the session has no active organization.
type Scope struct {
	UserID    snowflake.ID
	SessionID snowflake.ID
	OrgID     snowflake.ID
}

// HasOrg reports whether an active organization is set.
func (s Scope) HasOrg() bool {
	return s.OrgID != 0
}

// ForUser returns a scope without a session, bound to orgID.
func ForUser(userID, orgID snowflake.ID) Scope {
	return Scope{UserID: userID, OrgID: orgID}
}

// ErrNoActiveOrg is returned by scoped creates when the session has no
// active organization.
var ErrNoActiveOrg = errors.New("no_active_organization")
