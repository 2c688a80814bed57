package policy

// CommentPolicy gates the comment endpoints.
//
// Rules, first match wins:
//  1. superusers may do anything;
//  2. list and retrieve are open to everyone, including anonymous callers;
//  3. create needs an authenticated Member or Moderator;
//  4. update and delete need an authenticated caller and a target:
//     Moderators and Editors may change any comment, plain Members only
//     their own;
//  5. everything else is denied.
type CommentPolicy struct{}

// Decide implements Policy.
func (CommentPolicy) Decide(caller Caller, action Action, target *Target) Decision {
	if caller.Authenticated && caller.IsSuperuser {
		return Allow
	}

	switch action {
	case ActionList, ActionRetrieve:
		return Allow
	case ActionCreate:
		if caller.Authenticated && caller.HasRole(RoleMembers, RoleModerators) {
			return Allow
		}
		return Deny
	case ActionUpdate, ActionDelete:
		if !caller.Authenticated || target == nil {
			return Deny
		}
		if caller.HasRole(RoleModerators, RoleEditors) {
			return Allow
		}
		if caller.HasRole(RoleMembers) {
			return Decision(target.OwnedBy(caller.UserID))
		}
		return Deny
	}
	return Deny
}
