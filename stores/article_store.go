package stores

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// ArticleFilter narrows and pages an article listing.
type ArticleFilter struct {
	Search   string
	Tag      string
	Page     int
	PageSize int
}

// ArticleStore abstracts article persistence.
type ArticleStore interface {
	Get(ctx context.Context, id uint) (*models.Article, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter ArticleFilter) ([]models.Article, int64, error)
	// Create stores the article and its tags. Returns ErrTitleTaken on a duplicate title.
	Create(ctx context.Context, a *models.Article, tags []string) error
	// Update saves title and content; tags are replaced unless nil.
	Update(ctx context.Context, a *models.Article, tags []string) error
	// Delete removes the article together with its comments.
	Delete(ctx context.Context, id uint) error
}

// GormArticleStore implements ArticleStore using GORM.
type GormArticleStore struct{ DB *gorm.DB }

// NewArticleStore returns a GORM backed article store.
func NewArticleStore(db *gorm.DB) *GormArticleStore {
	return &GormArticleStore{DB: db}
}

func (s *GormArticleStore) Get(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	if err := s.DB.WithContext(ctx).Preload("Author").Preload("Tags").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormArticleStore) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormArticleStore) List(ctx context.Context, filter ArticleFilter) ([]models.Article, int64, error) {
	scoped := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&models.Article{})
		if search := strings.TrimSpace(filter.Search); search != "" {
			like := "%" + search + "%"
			q = q.Where("title LIKE ? OR content LIKE ? OR id IN (?)", like, like, s.taggedWith("tags.name LIKE ?", like))
		}
		if tag := strings.TrimSpace(filter.Tag); tag != "" {
			q = q.Where("id IN (?)", s.taggedWith("tags.name = ?", tag))
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	articles := []models.Article{}
	err := scoped().Preload("Author").Preload("Tags").
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *GormArticleStore) taggedWith(cond string, arg interface{}) *gorm.DB {
	return s.DB.Table("article_tags").
		Select("article_tags.article_id").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where(cond, arg)
}

func (s *GormArticleStore) Create(ctx context.Context, a *models.Article, tags []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, a.Title, 0); err != nil {
			return err
		}
		found, err := findOrCreateTags(tx, tags)
		if err != nil {
			return err
		}
		a.Tags = found
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return tx.First(&a.Author, a.AuthorID).Error
	})
}

func (s *GormArticleStore) Update(ctx context.Context, a *models.Article, tags []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, a.Title, a.ID); err != nil {
			return err
		}
		res := tx.Model(&models.Article{}).Where("id = ?", a.ID).
			Updates(map[string]interface{}{"title": a.Title, "content": a.Content})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if tags != nil {
			found, err := findOrCreateTags(tx, tags)
			if err != nil {
				return err
			}
			if err := tx.Model(a).Association("Tags").Replace(found); err != nil {
				return err
			}
		}
		return tx.Preload("Author").Preload("Tags").First(a, a.ID).Error
	})
}

func (s *GormArticleStore) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Article
		if err := tx.Select("id").First(&a, id).Error; err != nil {
			return err
		}
		return deleteArticles(tx, []uint{a.ID})
	})
}

// deleteArticles removes articles, their comments and their tag links.
func deleteArticles(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("article_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM article_tags WHERE article_id IN ?", ids).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Article{}).Error
}

func ensureTitleFree(tx *gorm.DB, title string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Article{}).Where("title = ?", title)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrTitleTaken
	}
	return nil
}

func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		var t models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&t).Error; err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}
