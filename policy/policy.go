// Package policy holds the authorization rules for articles and comments.
// Decisions are pure functions of the caller, the action and the target;
// nothing here touches storage or the request.
package policy

import "net/http"

// Role names as stored in the groups table.
const (
	RoleModerators = "Moderators"
	RoleEditors    = "Editors"
	RoleMembers    = "Members"
)

// Action is a resource action derived from the HTTP verb.
type Action int

const (
	ActionUnknown Action = iota
	ActionList
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionRetrieve:
		return "retrieve"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Safe reports whether the action only reads.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

// ActionFromMethod maps an HTTP verb to an action. detail is true when the
// request addresses a single object (e.g. /comments/:id).
func ActionFromMethod(method string, detail bool) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		if detail {
			return ActionRetrieve
		}
		return ActionList
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUnknown
	}
}

// Decision is the outcome of a policy check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Caller describes who is making the request. The zero value is an
// anonymous caller.
type Caller struct {
	UserID        uint
	Username      string
	Authenticated bool
	IsSuperuser   bool
	Roles         []string
	Permissions   []string
}

// HasRole reports whether the caller holds any of the given roles.
func (c Caller) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasPermission reports whether the caller was granted the codename
// through one of its groups.
func (c Caller) HasPermission(codename string) bool {
	for _, p := range c.Permissions {
		if p == codename {
			return true
		}
	}
	return false
}

// Target is the object an update or delete is aimed at. AuthorID is nil
// when the author account no longer exists.
type Target struct {
	AuthorID *uint
}

// OwnedBy reports whether the target was written by the given user.
func (t *Target) OwnedBy(userID uint) bool {
	return t != nil && t.AuthorID != nil && *t.AuthorID == userID
}

// Policy decides whether caller may perform action on target. target is
// nil for list and create.
type Policy interface {
	Decide(caller Caller, action Action, target *Target) Decision
}
