package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/policy"
)

// UserStore abstracts user persistence. Users are always loaded with their
// groups and the groups' permissions.
type UserStore interface {
	// FindByUsername returns a user if it exists, or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// Create persists a new user; users without groups land in Members.
	Create(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, u *models.User) error
	List(ctx context.Context, page, pageSize int) ([]models.User, int64, error)
	// Delete removes the user and their articles; their comments survive without an author.
	Delete(ctx context.Context, id uint) error
	// SetGroups replaces the user's groups, or returns ErrUnknownGroup.
	SetGroups(ctx context.Context, id uint, names []string) (*models.User, error)
}

// GormUserStore implements UserStore using GORM.
type GormUserStore struct{ DB *gorm.DB }

// NewUserStore returns a GORM backed user store.
func NewUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{DB: db}
}

func (s *GormUserStore) withGroups(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Preload("Groups.Permissions")
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.withGroups(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.withGroups(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Preload("Groups.Permissions").First(u, u.ID).Error
	})
}

func (s *GormUserStore) UpdateProfile(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Model(u).
		Select("email", "bio", "profile_pic", "birth_date").
		Updates(u).Error
}

func (s *GormUserStore) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	err := s.withGroups(ctx).Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *GormUserStore) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("id").First(&u, id).Error; err != nil {
			return err
		}
		var articleIDs []uint
		if err := tx.Model(&models.Article{}).Where("author_id = ?", u.ID).Pluck("id", &articleIDs).Error; err != nil {
			return err
		}
		if err := deleteArticles(tx, articleIDs); err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("author_id = ?", u.ID).Update("author_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_groups WHERE user_id = ?", u.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, u.ID).Error
	})
}

func (s *GormUserStore) SetGroups(ctx context.Context, id uint, names []string) (*models.User, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		groups := []models.Group{}
		if len(names) > 0 {
			if err := tx.Where("name IN ?", names).Find(&groups).Error; err != nil {
				return err
			}
		}
		if len(groups) != len(uniqueStrings(names)) {
			return ErrUnknownGroup
		}
		return tx.Model(&u).Association("Groups").Replace(groups)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// EnsureRoles creates the Moderators, Editors and Members groups and grants
// their default permissions. Safe to run on every start.
func EnsureRoles(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, codenames := range policy.DefaultGroupPermissions {
			var g models.Group
			if err := tx.Where(models.Group{Name: name}).FirstOrCreate(&g).Error; err != nil {
				return err
			}
			perms := make([]models.Permission, 0, len(codenames))
			for _, code := range codenames {
				var p models.Permission
				if err := tx.Where(models.Permission{Codename: code}).FirstOrCreate(&p).Error; err != nil {
					return err
				}
				perms = append(perms, p)
			}
			if err := tx.Model(&g).Association("Permissions").Append(perms); err != nil {
				return errors.Join(errors.New("grant permissions to "+name), err)
			}
		}
		return nil
	})
}
