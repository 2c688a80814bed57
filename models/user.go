package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/policy"
)

// User is a blog account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	IsSuperuser  bool       `gorm:"not null;default:false" json:"is_superuser"`
	Bio          string     `gorm:"size:1000" json:"bio"`
	ProfilePic   string     `gorm:"size:512" json:"profile_pic"`
	BirthDate    *time.Time `json:"birth_date"`
	Groups       []Group    `gorm:"many2many:user_groups;" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AfterCreate puts users created without any group into Members.
func (u *User) AfterCreate(tx *gorm.DB) error {
	if len(u.Groups) > 0 {
		return nil
	}
	var members Group
	if err := tx.Where(Group{Name: policy.RoleMembers}).FirstOrCreate(&members).Error; err != nil {
		return err
	}
	if err := tx.Exec("INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)", u.ID, members.ID).Error; err != nil {
		return err
	}
	u.Groups = []Group{members}
	return nil
}

// GroupNames returns the names of the loaded groups.
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}

// PermissionCodenames returns the distinct permissions granted by the loaded groups.
func (u *User) PermissionCodenames() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, g := range u.Groups {
		for _, p := range g.Permissions {
			if !seen[p.Codename] {
				seen[p.Codename] = true
				out = append(out, p.Codename)
			}
		}
	}
	return out
}

// Caller converts an authenticated user into a policy caller.
func (u *User) Caller() policy.Caller {
	return policy.Caller{
		UserID:        u.ID,
		Username:      u.Username,
		Authenticated: true,
		IsSuperuser:   u.IsSuperuser,
		Roles:         u.GroupNames(),
		Permissions:   u.PermissionCodenames(),
	}
}
