package policy

// Model permission codenames for articles.
const (
	PermViewArticle   = "view_article"
	PermAddArticle    = "add_article"
	PermChangeArticle = "change_article"
	PermDeleteArticle = "delete_article"
)

// ArticlePolicy gates the article endpoints. On top of the group checks it
// requires the matching model permission: Editors may only update,
// Moderators may create, update and delete.
type ArticlePolicy struct{}

// Decide implements Policy. target is not consulted; article writes are
// not ownership based.
func (ArticlePolicy) Decide(caller Caller, action Action, _ *Target) Decision {
	if caller.Authenticated && caller.IsSuperuser {
		return Allow
	}

	if action.Safe() {
		return Allow
	}

	switch action {
	case ActionCreate:
		return Decision(caller.Authenticated &&
			caller.HasRole(RoleModerators) &&
			caller.HasPermission(PermAddArticle))
	case ActionUpdate:
		return Decision(caller.Authenticated &&
			caller.HasRole(RoleModerators, RoleEditors) &&
			caller.HasPermission(PermChangeArticle))
	case ActionDelete:
		return Decision(caller.Authenticated &&
			caller.HasRole(RoleModerators) &&
			caller.HasPermission(PermDeleteArticle))
	}
	return Deny
}

// DefaultGroupPermissions lists the permissions each role starts with.
var DefaultGroupPermissions = map[string][]string{
	RoleModerators: {
		PermViewArticle, PermAddArticle, PermChangeArticle, PermDeleteArticle,
		"view_comment", "add_comment", "change_comment", "delete_comment",
	},
	RoleEditors: {
		PermViewArticle, PermChangeArticle,
		"change_comment",
	},
	RoleMembers: {
		PermViewArticle,
		"view_comment", "add_comment", "delete_comment",
	},
}
