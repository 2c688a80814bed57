package models

import "time"

// MaxCommentLength bounds comment content, counted in characters.
const MaxCommentLength = 1000

// Comment is a remark on an article, optionally replying to another
// comment on the same article. AuthorID is cleared when the author
// account is deleted.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"index;not null" json:"article"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  *uint     `gorm:"index" json:"-"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"-"`
	ReplyToID *uint     `gorm:"index" json:"reply_to"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{&Permission{}, &Group{}, &User{}, &Tag{}, &Article{}, &Comment{}}
}
