package models

import "time"

// Article is a blog post owned by its author.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
	Title     string    `gorm:"size:100;uniqueIndex;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      []Tag     `gorm:"many2many:article_tags;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagNames returns the names of the loaded tags.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag labels articles.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}
