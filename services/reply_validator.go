package services

import (
	"context"
	"errors"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

// CommentGetter is the slice of the comment store the validator needs.
type CommentGetter interface {
	Get(ctx context.Context, id uint) (*models.Comment, error)
}

// ReplyValidator keeps replies on the same article as the comment they answer.
type ReplyValidator struct {
	Comments CommentGetter
}

// Validate checks a new comment on articleRef replying to replyTo. Both are
// raw transport values: articleRef is coerced leniently and a value that is
// not an id never matches; a blank replyTo means a root comment.
// It returns *ReplyIntegrityError on rejection and store errors unchanged.
func (v ReplyValidator) Validate(ctx context.Context, articleRef any, replyTo any) error {
	if utils.IsBlank(replyTo) {
		return nil
	}
	replyID, ok := utils.TryParseUint(replyTo)
	if !ok {
		return &ReplyIntegrityError{Reason: ReasonReplyNotFound}
	}

	parent, err := v.Comments.Get(ctx, replyID)
	if errors.Is(err, stores.ErrNotFound) {
		return &ReplyIntegrityError{Reason: ReasonReplyNotFound}
	}
	if err != nil {
		return err
	}

	articleID, ok := utils.TryParseUint(articleRef)
	if !ok || parent.ArticleID != articleID {
		return &ReplyIntegrityError{Reason: ReasonReplyOtherTopic}
	}
	return nil
}
