package stores

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

// CommentFilter narrows a comment listing. Zero value lists everything.
type CommentFilter struct {
	ArticleID *uint
}

// CommentUpdate carries the mutable fields of a comment.
type CommentUpdate struct {
	Content string
}

// CommentStore abstracts comment persistence.
type CommentStore interface {
	// Get returns the comment with its author, or ErrNotFound.
	Get(ctx context.Context, id uint) (*models.Comment, error)
	// List returns comments newest first.
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
	// Update changes the content of a comment, or returns ErrNotFound.
	Update(ctx context.Context, id uint, data CommentUpdate) (*models.Comment, error)
	// Delete removes the comment and every reply below it, or returns ErrNotFound.
	Delete(ctx context.Context, id uint) error
}

// GormCommentStore implements CommentStore using GORM.
type GormCommentStore struct{ DB *gorm.DB }

// NewCommentStore returns a GORM backed comment store.
func NewCommentStore(db *gorm.DB) *GormCommentStore {
	return &GormCommentStore{DB: db}
}

func (s *GormCommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.DB.WithContext(ctx).Preload("Author").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormCommentStore) List(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	q := s.DB.WithContext(ctx).Preload("Author").Order("created_at DESC").Order("id DESC")
	if filter.ArticleID != nil {
		q = q.Where("article_id = ?", *filter.ArticleID)
	}
	comments := []models.Comment{}
	if err := q.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *GormCommentStore) Create(ctx context.Context, c *models.Comment) error {
	db := s.DB.WithContext(ctx)
	if err := db.Create(c).Error; err != nil {
		return err
	}
	if c.AuthorID != nil {
		var author models.User
		if err := db.First(&author, *c.AuthorID).Error; err == nil {
			c.Author = &author
		}
	}
	return nil
}

func (s *GormCommentStore) Update(ctx context.Context, id uint, data CommentUpdate) (*models.Comment, error) {
	res := s.DB.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).
		Updates(map[string]interface{}{"content": data.Content, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *GormCommentStore) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Select("id").First(&root, id).Error; err != nil {
			return err
		}
		ids, err := replyClosure(tx, []uint{root.ID})
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
}

// replyClosure returns roots plus every comment that transitively replies to one of them.
func replyClosure(tx *gorm.DB, roots []uint) ([]uint, error) {
	all := append([]uint(nil), roots...)
	seen := make(map[uint]bool, len(roots))
	for _, id := range roots {
		seen[id] = true
	}
	frontier := roots
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Comment{}).Where("reply_to_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0:0]
		for _, id := range next {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
				frontier = append(frontier, id)
			}
		}
	}
	return all, nil
}
