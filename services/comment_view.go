package services

import (
	"time"

	"github.com/cppla/aiblog/models"
)

// DeletedUserName stands in for authors whose account is gone.
const DeletedUserName = "Deleted User"

// CommentView is the API representation of a comment. The author id stays
// internal; clients see author_name and author_profile_pic.
type CommentView struct {
	ID               uint           `json:"id"`
	Article          uint           `json:"article"`
	Content          string         `json:"content"`
	AuthorID         *uint          `json:"-"`
	AuthorName       string         `json:"author_name"`
	AuthorProfilePic *string        `json:"author_profile_pic"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	ReplyTo          *uint          `json:"reply_to"`
	Replies          []*CommentView `json:"replies,omitempty"`
}

// NewCommentView renders a stored comment. The Author association must be loaded.
func NewCommentView(c *models.Comment) CommentView {
	v := CommentView{
		ID:         c.ID,
		Article:    c.ArticleID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		AuthorName: DeletedUserName,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		ReplyTo:    c.ReplyToID,
	}
	if c.AuthorID != nil && c.Author != nil {
		v.AuthorName = c.Author.Username
		if c.Author.ProfilePic != "" {
			pic := c.Author.ProfilePic
			v.AuthorProfilePic = &pic
		}
	}
	return v
}

// NewCommentViews renders a list of stored comments, keeping their order.
func NewCommentViews(comments []models.Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentView(&comments[i]))
	}
	return out
}
